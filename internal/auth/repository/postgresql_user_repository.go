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

// PostgreSQLUserRepository implements User persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQL User repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new User.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO users (id, tenant_id, security_version, is_blocked, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.TenantID,
		user.SecurityVersion,
		user.IsBlocked,
		user.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// Get retrieves a User by ID. Returns ErrUserNotFound if it doesn't exist.
func (p *PostgreSQLUserRepository) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, tenant_id, security_version, is_blocked, created_at
			  FROM users WHERE id = $1`

	var user authDomain.User

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.TenantID,
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

	return &user, nil
}

// BumpSecurityVersion increments the user's security version, invalidating
// every outstanding access token at verification time.
func (p *PostgreSQLUserRepository) BumpSecurityVersion(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE users SET security_version = security_version + 1 WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Wrap(err, "failed to bump user security version")
	}
	return nil
}
