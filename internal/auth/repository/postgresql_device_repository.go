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

// PostgreSQLDeviceRepository implements Device persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLDeviceRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeviceRepository creates a new PostgreSQL Device repository.
func NewPostgreSQLDeviceRepository(db *sql.DB) *PostgreSQLDeviceRepository {
	return &PostgreSQLDeviceRepository{db: db}
}

// Create inserts a new Device.
func (p *PostgreSQLDeviceRepository) Create(ctx context.Context, device *authDomain.Device) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO devices (id, user_id, device_key, public_jwk, is_blocked, last_seen_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		device.ID,
		device.UserID,
		device.DeviceKey,
		device.PublicJWK,
		device.IsBlocked,
		device.LastSeenAt,
		device.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create device")
	}
	return nil
}

// Get retrieves a Device by ID. Returns ErrDeviceNotFound if it doesn't exist.
func (p *PostgreSQLDeviceRepository) Get(ctx context.Context, deviceID uuid.UUID) (*authDomain.Device, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, device_key, public_jwk, is_blocked, last_seen_at, created_at
			  FROM devices WHERE id = $1`

	var device authDomain.Device

	err := querier.QueryRowContext(ctx, query, deviceID).Scan(
		&device.ID,
		&device.UserID,
		&device.DeviceKey,
		&device.PublicJWK,
		&device.IsBlocked,
		&device.LastSeenAt,
		&device.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrDeviceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get device")
	}

	return &device, nil
}

// TouchLastSeen updates a device's last-seen time.
func (p *PostgreSQLDeviceRepository) TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE devices SET last_seen_at = $1 WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, at, deviceID); err != nil {
		return apperrors.Wrap(err, "failed to touch device last seen")
	}
	return nil
}
