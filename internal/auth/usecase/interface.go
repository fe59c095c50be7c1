// Package usecase implements the token issuance, refresh, and revocation
// protocol.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
)

// UserRepository defines persistence operations for token owners.
// Implementations must support transaction-aware operations via context propagation.
type UserRepository interface {
	// Get retrieves a user by ID. Returns ErrUserNotFound if not found.
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)

	// Create stores a new user in the repository.
	Create(ctx context.Context, user *authDomain.User) error

	// BumpSecurityVersion increments the user's security version.
	BumpSecurityVersion(ctx context.Context, userID uuid.UUID) error
}

// DeviceRepository defines persistence operations for client devices.
// Implementations must support transaction-aware operations via context propagation.
type DeviceRepository interface {
	// Get retrieves a device by ID. Returns ErrDeviceNotFound if not found.
	Get(ctx context.Context, deviceID uuid.UUID) (*authDomain.Device, error)

	// Create stores a new device in the repository.
	Create(ctx context.Context, device *authDomain.Device) error

	// TouchLastSeen updates the device's last-seen time.
	TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error
}

// SessionRepository defines persistence operations for sessions.
// Implementations must support transaction-aware operations via context propagation.
type SessionRepository interface {
	// Create stores a new session in the repository.
	Create(ctx context.Context, session *authDomain.Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound if not found.
	Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error)

	// Revoke terminates a session. Idempotent.
	Revoke(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time, reason string) error

	// RevokeByUser terminates every live session of a user. Idempotent.
	RevokeByUser(ctx context.Context, userID uuid.UUID, revokedAt time.Time, reason string) error

	// TouchActivity updates the session's last-activity time.
	TouchActivity(ctx context.Context, sessionID uuid.UUID, at time.Time) error
}

// RefreshTokenRepository defines persistence operations for refresh tokens.
// Implementations must support transaction-aware operations via context propagation.
type RefreshTokenRepository interface {
	// Create stores a new refresh token in the repository.
	Create(ctx context.Context, token *authDomain.RefreshToken) error

	// GetByTokenHash retrieves a token by its secret hash.
	// Returns ErrRefreshTokenNotFound if no token matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.RefreshToken, error)

	// MarkUsed consumes a token with one atomic conditional update: used_at
	// and the successor link are set only if the token is still unconsumed
	// and unrevoked. Returns ErrRefreshTokenReused when a concurrent call
	// already consumed it.
	MarkUsed(ctx context.Context, tokenID uuid.UUID, usedAt time.Time, replacedByID uuid.UUID) error

	// RevokeFamily revokes every token sharing a family. Idempotent.
	RevokeFamily(ctx context.Context, tokenFamily uuid.UUID) error

	// RevokeByUser revokes every token belonging to a user. Idempotent.
	RevokeByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes tokens expired before the cutoff and returns the
	// number of rows removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// TokenUseCase defines the token lifecycle operations exposed to transports.
type TokenUseCase interface {
	// IssueTokens creates a session and mints the first token pair of a new
	// family. Callers must have authenticated the user beforehand.
	IssueTokens(ctx context.Context, input *authDomain.IssueTokensInput) (*authDomain.TokenPairOutput, error)

	// Refresh consumes a refresh token and mints its successor pair. A replay
	// of an already-consumed token revokes the whole family and returns
	// ErrRefreshTokenReused.
	Refresh(ctx context.Context, input *authDomain.RefreshInput) (*authDomain.TokenPairOutput, error)

	// Revoke terminates the token's family and session (logout). Idempotent:
	// revoking an absent or already-revoked token is a no-op.
	Revoke(ctx context.Context, input *authDomain.RevokeInput) error

	// RevokeAllForUser terminates every session and token of a user and bumps
	// the user's security version so outstanding access tokens stop verifying.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error

	// PurgeExpired removes refresh tokens whose validity has ended.
	PurgeExpired(ctx context.Context) (int64, error)
}
