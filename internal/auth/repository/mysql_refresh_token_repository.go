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

// MySQLRefreshTokenRepository implements RefreshToken persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewMySQLRefreshTokenRepository creates a new MySQL RefreshToken repository.
func NewMySQLRefreshTokenRepository(db *sql.DB) *MySQLRefreshTokenRepository {
	return &MySQLRefreshTokenRepository{db: db}
}

// Create inserts a new RefreshToken using BINARY(16) for UUIDs.
func (m *MySQLRefreshTokenRepository) Create(ctx context.Context, token *authDomain.RefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO refresh_tokens (id, session_id, user_id, device_id, token_hash, token_family,
				  issued_at, expires_at, used_at, is_revoked, replaced_by_id, device_fingerprint, dpop_thumbprint)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}
	sessionID, err := token.SessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}
	userID, err := token.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	deviceID, err := token.DeviceID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}
	tokenFamily, err := token.TokenFamily.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token family")
	}

	var replacedByID []byte
	if token.ReplacedByID != nil {
		replacedByID, err = token.ReplacedByID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal replaced-by id")
		}
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		sessionID,
		userID,
		deviceID,
		token.TokenHash,
		tokenFamily,
		token.IssuedAt,
		token.ExpiresAt,
		token.UsedAt,
		token.IsRevoked,
		replacedByID,
		token.DeviceFingerprint,
		token.DpopThumbprint,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetByTokenHash retrieves a RefreshToken by its secret hash using BINARY(16)
// for UUIDs. Returns ErrRefreshTokenNotFound if no token matches.
func (m *MySQLRefreshTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, session_id, user_id, device_id, token_hash, token_family,
				  issued_at, expires_at, used_at, is_revoked, replaced_by_id, device_fingerprint, dpop_thumbprint
			  FROM refresh_tokens WHERE token_hash = ?`

	var token authDomain.RefreshToken
	var idBytes, sessionIDBytes, userIDBytes, deviceIDBytes, tokenFamilyBytes, replacedByIDBytes []byte

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&idBytes,
		&sessionIDBytes,
		&userIDBytes,
		&deviceIDBytes,
		&token.TokenHash,
		&tokenFamilyBytes,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.IsRevoked,
		&replacedByIDBytes,
		&token.DeviceFingerprint,
		&token.DpopThumbprint,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	if err := token.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token id")
	}
	if err := token.SessionID.UnmarshalBinary(sessionIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session id")
	}
	if err := token.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if err := token.DeviceID.UnmarshalBinary(deviceIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal device id")
	}
	if err := token.TokenFamily.UnmarshalBinary(tokenFamilyBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token family")
	}
	if len(replacedByIDBytes) > 0 {
		var replacedByID uuid.UUID
		if err := replacedByID.UnmarshalBinary(replacedByIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal replaced-by id")
		}
		token.ReplacedByID = &replacedByID
	}

	return &token, nil
}

// MarkUsed consumes a token via one conditional update, preserving the
// single-use invariant under concurrency. Returns ErrRefreshTokenReused when
// the token was already consumed or revoked.
func (m *MySQLRefreshTokenRepository) MarkUsed(
	ctx context.Context,
	tokenID uuid.UUID,
	usedAt time.Time,
	replacedByID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE refresh_tokens
			  SET used_at = ?, replaced_by_id = ?
			  WHERE id = ? AND used_at IS NULL AND is_revoked = false`

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}
	successorID, err := replacedByID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal replaced-by id")
	}

	result, err := querier.ExecContext(ctx, query, usedAt, successorID, id)
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
func (m *MySQLRefreshTokenRepository) RevokeFamily(ctx context.Context, tokenFamily uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	family, err := tokenFamily.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token family")
	}

	query := `UPDATE refresh_tokens SET is_revoked = true WHERE token_family = ?`

	if _, err := querier.ExecContext(ctx, query, family); err != nil {
		return apperrors.Wrap(err, "failed to revoke token family")
	}
	return nil
}

// RevokeByUser revokes every token belonging to a user. Idempotent.
func (m *MySQLRefreshTokenRepository) RevokeByUser(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE refresh_tokens SET is_revoked = true WHERE user_id = ?`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to revoke user refresh tokens")
	}
	return nil
}

// DeleteExpired removes tokens whose validity ended before the cutoff.
// Returns the number of rows removed.
func (m *MySQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`

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
