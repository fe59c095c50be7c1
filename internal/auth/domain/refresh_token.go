package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is one link in a refresh chain. The raw secret is never
// stored; TokenHash is the SHA-256 of the secret half of the wire value.
//
// A token is single-use: UsedAt is set exactly once, atomically with the
// decision to mint its successor. A token presented after UsedAt is set is
// conclusive evidence of replay and condemns its whole family.
type RefreshToken struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	UserID    uuid.UUID
	DeviceID  uuid.UUID
	TokenHash string
	// TokenFamily is shared by every token descended from the same login.
	// It never changes across a refresh chain.
	TokenFamily       uuid.UUID
	IssuedAt          time.Time
	ExpiresAt         time.Time
	UsedAt            *time.Time
	IsRevoked         bool
	ReplacedByID      *uuid.UUID
	DeviceFingerprint string
	DpopThumbprint    string
}

// IsExpired reports whether the token is past its validity window.
func (r *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsConsumed reports whether the token was already spent or revoked.
// A consumed token presented again signals replay.
func (r *RefreshToken) IsConsumed() bool {
	return r.UsedAt != nil || r.IsRevoked
}
