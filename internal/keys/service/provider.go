package service

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"sync"
	"time"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

const (
	// defaultCacheTTL is how long cached key material is served without a store round-trip.
	defaultCacheTTL = 30 * time.Second
	// minCacheTTL is the floor for the configurable cache interval.
	minCacheTTL = 5 * time.Second
)

// ProviderConfig holds the key provider settings.
type ProviderConfig struct {
	// StaticPrivateKey, when set, selects the non-rotating deployment mode:
	// signing and verification material is built from it directly and the
	// shared store is never consulted.
	StaticPrivateKey string
	// StaticPublicKey optionally pairs with StaticPrivateKey; derived from the
	// private key when empty.
	StaticPublicKey string
	// CacheTTL is how long cached material is served before re-fetching.
	CacheTTL time.Duration
}

// Provider is the per-instance cache in front of the shared key store.
//
// It resolves either a statically configured key or the dynamically rotated
// active key. The signing credential is always the active key; the
// verification set is every non-expired known key, which is what lets tokens
// signed by a just-retired key keep verifying during rotation overlap.
type Provider struct {
	store  KeyStore
	clock  clock.Clock
	logger *slog.Logger

	staticPrivate string
	staticPublic  string
	cacheTTL      time.Duration

	mu         sync.Mutex
	signingKey *rsa.PrivateKey
	keyID      string
	publicKeys map[string]*rsa.PublicKey
	fetchedAt  time.Time
}

// NewProvider creates a key provider. The cache TTL defaults to 30s and is
// floored at 5s.
func NewProvider(cfg ProviderConfig, store KeyStore, clk clock.Clock, logger *slog.Logger) *Provider {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	if ttl < minCacheTTL {
		ttl = minCacheTTL
	}

	return &Provider{
		store:         store,
		clock:         clk,
		logger:        logger,
		staticPrivate: cfg.StaticPrivateKey,
		staticPublic:  cfg.StaticPublicKey,
		cacheTTL:      ttl,
	}
}

// GetSigningCredentials returns the private key and key id that sign new tokens.
func (p *Provider) GetSigningCredentials(ctx context.Context) (*rsa.PrivateKey, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureFreshLocked(ctx); err != nil {
		return nil, "", err
	}
	return p.signingKey, p.keyID, nil
}

// GetPublicKey returns the public half of the active signing key.
func (p *Provider) GetPublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}
	return &p.signingKey.PublicKey, nil
}

// GetPublicKeys returns the full verification key set, keyed by key id.
func (p *Provider) GetPublicKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(p.publicKeys))
	for kid, pub := range p.publicKeys {
		keys[kid] = pub
	}
	return keys, nil
}

// GetKeyID returns the id of the active signing key.
func (p *Provider) GetKeyID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureFreshLocked(ctx); err != nil {
		return "", err
	}
	return p.keyID, nil
}

// JWKS builds the published key set document from the verification keys.
func (p *Provider) JWKS(ctx context.Context) (*keysDomain.JWKS, error) {
	publicKeys, err := p.GetPublicKeys(ctx)
	if err != nil {
		return nil, err
	}

	jwks := &keysDomain.JWKS{Keys: make([]keysDomain.JWK, 0, len(publicKeys))}
	for kid, pub := range publicKeys {
		jwks.Keys = append(jwks.Keys, keysDomain.NewJWK(kid, pub))
	}
	return jwks, nil
}

// ensureFreshLocked refreshes the cached tuple when it is missing or older
// than the cache TTL. Callers must hold p.mu.
func (p *Provider) ensureFreshLocked(ctx context.Context) error {
	now := p.clock.Now()
	if !p.fetchedAt.IsZero() && now.Sub(p.fetchedAt) < p.cacheTTL {
		return nil
	}

	var err error
	if p.staticPrivate != "" {
		err = p.loadStaticLocked()
	} else {
		err = p.loadFromStoreLocked(ctx)
	}
	if err != nil {
		// A populated cache outlives a transient store failure; an empty one
		// cannot, so the error propagates.
		if p.fetchedAt.IsZero() {
			return err
		}
		p.logger.Warn("failed to refresh signing keys, serving cached material",
			slog.Any("error", err),
		)
		return nil
	}

	p.fetchedAt = now
	return nil
}

// loadStaticLocked builds signing and verification material from the
// configured key pair. This path never touches the shared store.
func (p *Provider) loadStaticLocked() error {
	privateKey, err := keysDomain.ParsePrivateKey(p.staticPrivate)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
	}

	publicKey := &privateKey.PublicKey
	if p.staticPublic != "" {
		publicKey, err = keysDomain.ParsePublicKey(p.staticPublic)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
		}
	}

	keyID := keysDomain.ComputeKeyID(publicKey)
	p.signingKey = privateKey
	p.keyID = keyID
	p.publicKeys = map[string]*rsa.PublicKey{keyID: publicKey}
	return nil
}

// loadFromStoreLocked fetches the active key and the full known-key set.
func (p *Provider) loadFromStoreLocked(ctx context.Context) error {
	active, err := p.store.GetActiveKey(ctx)
	if err != nil {
		return err
	}
	if active == nil {
		// Only possible before the rotation loop finishes initialization.
		return apperrors.Wrap(apperrors.ErrConfiguration, keysDomain.ErrNoActiveKey.Error())
	}

	signingKey, err := active.PrivateKey()
	if err != nil {
		return err
	}

	known, err := p.store.GetAllKeys(ctx)
	if err != nil {
		return err
	}

	publicKeys := make(map[string]*rsa.PublicKey, len(known)+1)
	for _, material := range known {
		pub, err := material.PublicKey()
		if err != nil {
			p.logger.Warn("skipping unparseable public key",
				slog.String("key_id", material.KeyID),
				slog.Any("error", err),
			)
			continue
		}
		publicKeys[material.KeyID] = pub
	}
	// The active key always verifies, even if the index read raced its insertion.
	publicKeys[active.KeyID] = &signingKey.PublicKey

	p.signingKey = signingKey
	p.keyID = active.KeyID
	p.publicKeys = publicKeys
	return nil
}
