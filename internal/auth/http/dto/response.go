// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
)

// TokenPairResponse contains a freshly minted access/refresh token pair.
// SECURITY: The refresh token is only returned once and must be saved securely.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	SessionID        string    `json:"session_id"`
}

// MapTokenPairToResponse converts a domain token pair to an API response.
func MapTokenPairToResponse(output *authDomain.TokenPairOutput) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:      output.AccessToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  output.AccessExpiresAt,
		RefreshToken:     output.RefreshToken,
		RefreshExpiresAt: output.RefreshExpiresAt,
		SessionID:        output.SessionID.String(),
	}
}
