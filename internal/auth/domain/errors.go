package domain

import (
	"github.com/dr0pmead/rplus-server-sub000/internal/errors"
)

// Token lifecycle errors. Each protocol violation maps to its own sentinel so
// the transport layer can report a specific status instead of a generic
// failure.
var (
	// ErrUserNotFound indicates the token's owning user no longer exists.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserBlocked indicates the owning user is blocked from refreshing.
	ErrUserBlocked = errors.Wrap(errors.ErrForbidden, "user is blocked")

	// ErrDeviceNotFound indicates the device bound to the token was not found.
	ErrDeviceNotFound = errors.Wrap(errors.ErrNotFound, "device not found")

	// ErrDeviceBlocked indicates the device is blocked.
	ErrDeviceBlocked = errors.Wrap(errors.ErrForbidden, "device is blocked")

	// ErrDeviceMismatch indicates the refresh token was presented from a
	// device other than the one it is bound to.
	ErrDeviceMismatch = errors.Wrap(errors.ErrUnauthorized, "refresh token device mismatch")

	// ErrSessionNotFound indicates a session with the specified ID was not found.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrSessionRevoked indicates the owning session has been terminated.
	ErrSessionRevoked = errors.Wrap(errors.ErrUnauthorized, "session is revoked")

	// ErrMalformedRefreshToken indicates the presented value is not a valid
	// "{tokenId}.{secret}" pair.
	ErrMalformedRefreshToken = errors.Wrap(errors.ErrInvalidInput, "malformed refresh token")

	// ErrRefreshTokenNotFound indicates no token matches the presented secret.
	ErrRefreshTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")

	// ErrRefreshTokenExpired indicates the token is past its validity window.
	// Ordinary expiry, not evidence of theft.
	ErrRefreshTokenExpired = errors.Wrap(errors.ErrUnauthorized, "refresh token expired")

	// ErrRefreshTokenRevoked indicates the token belongs to a revoked family.
	ErrRefreshTokenRevoked = errors.Wrap(errors.ErrUnauthorized, "refresh token revoked")

	// ErrRefreshTokenReused indicates an already-consumed token was presented
	// again: conclusive evidence of replay. The whole family is revoked.
	ErrRefreshTokenReused = errors.Wrap(errors.ErrUnauthorized, "refresh token reuse detected")
)
