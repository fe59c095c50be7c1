package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	"github.com/dr0pmead/rplus-server-sub000/internal/database"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
)

// MySQLSessionRepository implements Session persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLSessionRepository struct {
	db *sql.DB
}

// NewMySQLSessionRepository creates a new MySQL Session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}

// Create inserts a new Session using BINARY(16) for UUIDs.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *authDomain.Session) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO sessions (id, user_id, device_id, device_fingerprint, issued_at,
				  expires_at, last_activity_at, revoked_at, revoke_reason)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}
	userID, err := session.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	deviceID, err := session.DeviceID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
		deviceID,
		session.DeviceFingerprint,
		session.IssuedAt,
		session.ExpiresAt,
		session.LastActivityAt,
		session.RevokedAt,
		session.RevokeReason,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// Get retrieves a Session by ID using BINARY(16) for UUIDs. Returns
// ErrSessionNotFound if it doesn't exist.
func (m *MySQLSessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, device_id, device_fingerprint, issued_at,
				  expires_at, last_activity_at, revoked_at, revoke_reason
			  FROM sessions WHERE id = ?`

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal session id")
	}

	var session authDomain.Session
	var idBytes, userIDBytes, deviceIDBytes []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&userIDBytes,
		&deviceIDBytes,
		&session.DeviceFingerprint,
		&session.IssuedAt,
		&session.ExpiresAt,
		&session.LastActivityAt,
		&session.RevokedAt,
		&session.RevokeReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	if err := session.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session id")
	}
	if err := session.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if err := session.DeviceID.UnmarshalBinary(deviceIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal device id")
	}

	return &session, nil
}

// Revoke terminates a session. Idempotent: an already-revoked session keeps
// its original revocation time and reason.
func (m *MySQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	revokedAt time.Time,
	reason string,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions SET revoked_at = ?, revoke_reason = ?
			  WHERE id = ? AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, revokedAt, reason, id); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}
	return nil
}

// RevokeByUser terminates every live session belonging to a user. Idempotent.
func (m *MySQLSessionRepository) RevokeByUser(
	ctx context.Context,
	userID uuid.UUID,
	revokedAt time.Time,
	reason string,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE sessions SET revoked_at = ?, revoke_reason = ?
			  WHERE user_id = ? AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, revokedAt, reason, id); err != nil {
		return apperrors.Wrap(err, "failed to revoke user sessions")
	}
	return nil
}

// TouchActivity updates a session's last-activity time.
func (m *MySQLSessionRepository) TouchActivity(
	ctx context.Context,
	sessionID uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions SET last_activity_at = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, at, id); err != nil {
		return apperrors.Wrap(err, "failed to touch session activity")
	}
	return nil
}
