package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	"github.com/dr0pmead/rplus-server-sub000/internal/database"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
)

// MySQLUserRepository implements User persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL User repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new User using BINARY(16) for UUIDs.
func (m *MySQLUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO users (id, tenant_id, security_version, is_blocked, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	tenantID, err := user.TenantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		tenantID,
		user.SecurityVersion,
		user.IsBlocked,
		user.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// Get retrieves a User by ID using BINARY(16) for UUIDs. Returns
// ErrUserNotFound if it doesn't exist.
func (m *MySQLUserRepository) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, tenant_id, security_version, is_blocked, created_at
			  FROM users WHERE id = ?`

	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	var user authDomain.User
	var idBytes, tenantIDBytes []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&tenantIDBytes,
		&user.SecurityVersion,
		&user.IsBlocked,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := user.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if err := user.TenantID.UnmarshalBinary(tenantIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal tenant id")
	}

	return &user, nil
}

// BumpSecurityVersion increments the user's security version, invalidating
// every outstanding access token at verification time.
func (m *MySQLUserRepository) BumpSecurityVersion(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET security_version = security_version + 1 WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to bump user security version")
	}
	return nil
}
