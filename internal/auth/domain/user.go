// Package domain defines the session, device, and refresh-token models for
// the token lifecycle engine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the token owner as seen by the engine. Authentication (OTP, login)
// happens upstream; the engine only needs the blocking state and the security
// version that gates previously issued tokens.
type User struct {
	ID uuid.UUID
	// TenantID scopes the user to one tenant on the platform.
	TenantID uuid.UUID
	// SecurityVersion is embedded into every access token as the ver claim.
	// Bumping it invalidates all outstanding tokens at verification time.
	SecurityVersion int64
	IsBlocked       bool
	CreatedAt       time.Time
}
