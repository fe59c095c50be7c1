package domain

import (
	"time"

	"github.com/google/uuid"
)

// Device identifies one client installation. Tokens are bound to a device at
// issuance; a refresh presented from a different device is never honored.
type Device struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// DeviceKey is the stable client-generated identifier for the installation.
	DeviceKey string
	// PublicJWK optionally holds the device's proof-of-possession public key
	// in JWK form, embedded as the cnf claim when no thumbprint is supplied.
	PublicJWK  string
	IsBlocked  bool
	LastSeenAt time.Time
	CreatedAt  time.Time
}
