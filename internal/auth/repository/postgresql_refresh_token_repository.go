// Package repository implements session, device, user, and refresh-token
// persistence for PostgreSQL and MySQL.
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

// PostgreSQLRefreshTokenRepository implements RefreshToken persistence for
// PostgreSQL. Uses native UUID types with transaction support via
// database.GetTx().
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL RefreshToken repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}

// Create inserts a new RefreshToken. The token_hash column carries a unique
// constraint, so storing the same secret twice fails loudly.
func (p *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *authDomain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO refresh_tokens (id, session_id, user_id, device_id, token_hash, token_family,
				  issued_at, expires_at, used_at, is_revoked, replaced_by_id, device_fingerprint, dpop_thumbprint)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.SessionID,
		token.UserID,
		token.DeviceID,
		token.TokenHash,
		token.TokenFamily,
		token.IssuedAt,
		token.ExpiresAt,
		token.UsedAt,
		token.IsRevoked,
		token.ReplacedByID,
		token.DeviceFingerprint,
		token.DpopThumbprint,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetByTokenHash retrieves a RefreshToken by its secret hash. Returns
// ErrRefreshTokenNotFound if no token matches.
func (p *PostgreSQLRefreshTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, session_id, user_id, device_id, token_hash, token_family,
				  issued_at, expires_at, used_at, is_revoked, replaced_by_id, device_fingerprint, dpop_thumbprint
			  FROM refresh_tokens WHERE token_hash = $1`

	var token authDomain.RefreshToken

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.SessionID,
		&token.UserID,
		&token.DeviceID,
		&token.TokenHash,
		&token.TokenFamily,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.IsRevoked,
		&token.ReplacedByID,
		&token.DeviceFingerprint,
		&token.DpopThumbprint,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	return &token, nil
}

// MarkUsed consumes a token: sets used_at and the successor link in one
// conditional update. The WHERE clause is the single-use invariant: if the
// token was already consumed or revoked by a concurrent call, zero rows match
// and ErrRefreshTokenReused is returned, so exactly one of two racing
// refreshes wins.
func (p *PostgreSQLRefreshTokenRepository) MarkUsed(
	ctx context.Context,
	tokenID uuid.UUID,
	usedAt time.Time,
	replacedByID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET used_at = $1, replaced_by_id = $2
			  WHERE id = $3 AND used_at IS NULL AND is_revoked = false`

	result, err := querier.ExecContext(ctx, query, usedAt, replacedByID, tokenID)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark refresh token used")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to mark refresh token used")
	}
	if rows == 0 {
		return authDomain.ErrRefreshTokenReused
	}
	return nil
}

// RevokeFamily revokes every token sharing a family. Idempotent.
func (p *PostgreSQLRefreshTokenRepository) RevokeFamily(ctx context.Context, tokenFamily uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens SET is_revoked = true WHERE token_family = $1`

	if _, err := querier.ExecContext(ctx, query, tokenFamily); err != nil {
		return apperrors.Wrap(err, "failed to revoke token family")
	}
	return nil
}

// RevokeByUser revokes every token belonging to a user. Idempotent.
func (p *PostgreSQLRefreshTokenRepository) RevokeByUser(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens SET is_revoked = true WHERE user_id = $1`

	if _, err := querier.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Wrap(err, "failed to revoke user refresh tokens")
	}
	return nil
}

// DeleteExpired removes tokens whose validity ended before the cutoff.
// Returns the number of rows removed.
func (p *PostgreSQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	return rows, nil
}
