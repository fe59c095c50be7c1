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

// MySQLDeviceRepository implements Device persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLDeviceRepository struct {
	db *sql.DB
}

// NewMySQLDeviceRepository creates a new MySQL Device repository.
func NewMySQLDeviceRepository(db *sql.DB) *MySQLDeviceRepository {
	return &MySQLDeviceRepository{db: db}
}

// Create inserts a new Device using BINARY(16) for UUIDs.
func (m *MySQLDeviceRepository) Create(ctx context.Context, device *authDomain.Device) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO devices (id, user_id, device_key, public_jwk, is_blocked, last_seen_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := device.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}
	userID, err := device.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
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

// Get retrieves a Device by ID using BINARY(16) for UUIDs. Returns
// ErrDeviceNotFound if it doesn't exist.
func (m *MySQLDeviceRepository) Get(ctx context.Context, deviceID uuid.UUID) (*authDomain.Device, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, device_key, public_jwk, is_blocked, last_seen_at, created_at
			  FROM devices WHERE id = ?`

	id, err := deviceID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal device id")
	}

	var device authDomain.Device
	var idBytes, userIDBytes []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&userIDBytes,
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

	if err := device.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal device id")
	}
	if err := device.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	return &device, nil
}

// TouchLastSeen updates a device's last-seen time.
func (m *MySQLDeviceRepository) TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := deviceID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}

	query := `UPDATE devices SET last_seen_at = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, at, id); err != nil {
		return apperrors.Wrap(err, "failed to touch device last seen")
	}
	return nil
}
