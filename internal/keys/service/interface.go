// Package service provides signing-key generation, encryption-at-rest, and
// the per-instance key provider cache.
package service

import (
	"context"
	"time"

	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

// KeyStore defines the shared, durable storage for signing key records.
type KeyStore interface {
	// SaveActiveKey persists a key record and promotes it to active.
	// Must be an idempotent upsert.
	SaveActiveKey(ctx context.Context, material *keysDomain.KeyMaterial) error

	// GetActiveKey returns the currently active key, or nil when none exists.
	GetActiveKey(ctx context.Context) (*keysDomain.KeyMaterial, error)

	// GetAllKeys returns every non-expired known key.
	GetAllKeys(ctx context.Context) ([]*keysDomain.KeyMaterial, error)

	// CleanupExpiredKeys prunes expired key records.
	CleanupExpiredKeys(ctx context.Context) error
}

// KeyGenerator produces new signing key material.
type KeyGenerator interface {
	// Generate creates a fresh RSA signing key valid for the given duration.
	Generate(validFor time.Duration) (*keysDomain.KeyMaterial, error)

	// Import builds a key record from existing PEM material.
	Import(privateKeyPEM string, validFor time.Duration) (*keysDomain.KeyMaterial, error)
}
