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

// PostgreSQLSessionRepository implements Session persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL Session repository.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}

// Create inserts a new Session.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *authDomain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO sessions (id, user_id, device_id, device_fingerprint, issued_at,
				  expires_at, last_activity_at, revoked_at, revoke_reason)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.DeviceID,
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

// Get retrieves a Session by ID. Returns ErrSessionNotFound if it doesn't exist.
func (p *PostgreSQLSessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, device_id, device_fingerprint, issued_at,
				  expires_at, last_activity_at, revoked_at, revoke_reason
			  FROM sessions WHERE id = $1`

	var session authDomain.Session

	err := querier.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.DeviceID,
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

	return &session, nil
}

// Revoke terminates a session. Idempotent: an already-revoked session keeps
// its original revocation time and reason.
func (p *PostgreSQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	revokedAt time.Time,
	reason string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET revoked_at = $1, revoke_reason = $2
			  WHERE id = $3 AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, revokedAt, reason, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to revoke session")
	}
	return nil
}

// RevokeByUser terminates every live session belonging to a user. Idempotent.
func (p *PostgreSQLSessionRepository) RevokeByUser(
	ctx context.Context,
	userID uuid.UUID,
	revokedAt time.Time,
	reason string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET revoked_at = $1, revoke_reason = $2
			  WHERE user_id = $3 AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, revokedAt, reason, userID); err != nil {
		return apperrors.Wrap(err, "failed to revoke user sessions")
	}
	return nil
}

// TouchActivity updates a session's last-activity time.
func (p *PostgreSQLSessionRepository) TouchActivity(
	ctx context.Context,
	sessionID uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET last_activity_at = $1 WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, at, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to touch session activity")
	}
	return nil
}
