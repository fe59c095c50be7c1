package domain

import (
	"time"

	"github.com/google/uuid"
)

// IssueTokensInput carries the request for a fresh token pair after the
// caller has authenticated the user.
type IssueTokensInput struct {
	UserID            uuid.UUID
	DeviceID          uuid.UUID
	DeviceFingerprint string
	// DpopThumbprint optionally binds the pair to the client's
	// proof-of-possession key.
	DpopThumbprint string
}

// RefreshInput carries one refresh attempt.
type RefreshInput struct {
	// RefreshToken is the opaque "{tokenId}.{secret}" wire value.
	RefreshToken   string
	DeviceID       uuid.UUID
	DpopThumbprint string
}

// RevokeInput carries an explicit logout request.
type RevokeInput struct {
	RefreshToken string
	DeviceID     uuid.UUID
}

// TokenPairOutput is the result of a successful issue or refresh.
type TokenPairOutput struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	SessionID        uuid.UUID
}
