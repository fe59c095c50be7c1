// Package usecase implements the signing key rotation loop.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	"github.com/dr0pmead/rplus-server-sub000/internal/config"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
	keysService "github.com/dr0pmead/rplus-server-sub000/internal/keys/service"
)

// Rotator keeps the shared key store supplied with a fresh active signing key.
//
// Every instance runs its own loop without leader election: rotation is an
// idempotent upsert, so two instances rotating in the same tick simply race to
// promote a new key and the last write wins. Verification is unaffected because
// both keys land in the known-key set.
type Rotator struct {
	store     keysService.KeyStore
	generator keysService.KeyGenerator
	cfg       *config.Config
	clock     clock.Clock
	logger    *slog.Logger
}

// NewRotator creates a rotation loop over the given key store.
func NewRotator(
	store keysService.KeyStore,
	generator keysService.KeyGenerator,
	cfg *config.Config,
	clk clock.Clock,
	logger *slog.Logger,
) *Rotator {
	return &Rotator{
		store:     store,
		generator: generator,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
	}
}

// Initialize guarantees an active key exists before the instance starts
// serving. It must complete successfully before token issuance begins;
// a failure here is fatal to startup.
func (r *Rotator) Initialize(ctx context.Context) error {
	active, err := r.store.GetActiveKey(ctx)
	if err != nil {
		return err
	}
	if active != nil {
		r.logger.Info("active signing key present",
			slog.String("key_id", active.KeyID),
			slog.Time("created_at", active.CreatedAt),
		)
		return nil
	}

	material, err := r.initialKey()
	if err != nil {
		return err
	}
	if err := r.store.SaveActiveKey(ctx, material); err != nil {
		return err
	}

	r.logger.Info("created initial signing key",
		slog.String("key_id", material.KeyID),
		slog.Time("expires_at", material.ExpiresAt),
	)
	return nil
}

// Run ticks at the configured check interval until ctx is canceled. Each tick
// rotates the active key when it is old enough and prunes expired records.
// Tick failures are logged and retried on the next tick, never fatal.
func (r *Rotator) Run(ctx context.Context) {
	interval := r.cfg.SigningKeyCheckInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("signing key rotation loop started",
		slog.Duration("check_interval", interval),
		slog.Duration("rotate_every", r.cfg.SigningKeyRotateEvery),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("signing key rotation loop stopped")
			return
		case <-ticker.C:
			if err := r.RotateIfNeeded(ctx); err != nil {
				r.logger.Error("signing key rotation check failed", slog.Any("error", err))
			}
			if err := r.store.CleanupExpiredKeys(ctx); err != nil {
				r.logger.Error("signing key cleanup failed", slog.Any("error", err))
			}
		}
	}
}

// RotateIfNeeded promotes a fresh key when the active one has been signing for
// at least the rotation period, or when no active key exists at all.
func (r *Rotator) RotateIfNeeded(ctx context.Context) error {
	active, err := r.store.GetActiveKey(ctx)
	if err != nil {
		return err
	}

	now := r.clock.Now()
	if active != nil && now.Sub(active.CreatedAt) < r.cfg.SigningKeyRotateEvery {
		return nil
	}

	material, err := r.generator.Generate(r.rotatedValidity())
	if err != nil {
		return err
	}
	if err := r.store.SaveActiveKey(ctx, material); err != nil {
		return err
	}

	previousKeyID := ""
	if active != nil {
		previousKeyID = active.KeyID
	}
	r.logger.Info("rotated signing key",
		slog.String("key_id", material.KeyID),
		slog.String("previous_key_id", previousKeyID),
		slog.Time("expires_at", material.ExpiresAt),
	)
	return nil
}

// ForceRotate promotes a fresh key regardless of the active key's age.
// Used by the operational rotate command.
func (r *Rotator) ForceRotate(ctx context.Context) (string, error) {
	material, err := r.generator.Generate(r.rotatedValidity())
	if err != nil {
		return "", err
	}
	if err := r.store.SaveActiveKey(ctx, material); err != nil {
		return "", err
	}

	r.logger.Info("forced signing key rotation",
		slog.String("key_id", material.KeyID),
		slog.Time("expires_at", material.ExpiresAt),
	)
	return material.KeyID, nil
}

// initialKey builds the first active key: the configured seed key is imported
// when present, so a deployment migrating from a static key keeps its tokens
// verifiable, and a fresh key is generated otherwise.
func (r *Rotator) initialKey() (*keysDomain.KeyMaterial, error) {
	if r.cfg.SigningKeySeedPrivateKey != "" {
		return r.generator.Import(r.cfg.SigningKeySeedPrivateKey, r.initialValidity())
	}
	return r.generator.Generate(r.initialValidity())
}

// initialValidity is the lifetime of the very first key. It is floored at one
// hour so a misconfigured retention window cannot produce a key that expires
// before the first rotation tick.
func (r *Rotator) initialValidity() time.Duration {
	validity := r.cfg.SigningKeyRetain
	if validity < time.Hour {
		validity = time.Hour
	}
	return validity
}

// rotatedValidity is the lifetime of rotated keys: the longer of the rotation
// period and the retention window, so a retired key stays verifiable until
// every token it signed has expired.
func (r *Rotator) rotatedValidity() time.Duration {
	validity := r.cfg.SigningKeyRotateEvery
	if r.cfg.SigningKeyRetain > validity {
		validity = r.cfg.SigningKeyRetain
	}
	if validity < time.Hour {
		validity = time.Hour
	}
	return validity
}
