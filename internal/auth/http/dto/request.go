// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/dr0pmead/rplus-server-sub000/internal/validation"
)

// IssueTokensRequest contains the parameters for minting a new token pair.
// The caller is a trusted service that has already authenticated the user.
type IssueTokensRequest struct {
	UserID            string `json:"user_id"`
	DeviceID          string `json:"device_id"`
	DeviceFingerprint string `json:"device_fingerprint"`
	DpopThumbprint    string `json:"dpop_thumbprint"`
}

// Validate checks if the issue tokens request is valid.
func (r *IssueTokensRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.DeviceID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.DeviceFingerprint,
			validation.Length(0, 512),
		),
		validation.Field(&r.DpopThumbprint,
			validation.Length(0, 128),
			customValidation.NoWhitespace,
		),
	)
}

// RefreshTokensRequest contains the parameters for rotating a refresh token.
type RefreshTokensRequest struct {
	RefreshToken   string `json:"refresh_token"`
	DeviceID       string `json:"device_id"`
	DpopThumbprint string `json:"dpop_thumbprint"`
}

// Validate checks if the refresh tokens request is valid.
func (r *RefreshTokensRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.DeviceID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.DpopThumbprint,
			validation.Length(0, 128),
			customValidation.NoWhitespace,
		),
	)
}

// RevokeTokensRequest contains the parameters for revoking a refresh token
// family on logout.
type RevokeTokensRequest struct {
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

// Validate checks if the revoke tokens request is valid.
func (r *RevokeTokensRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.DeviceID,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
