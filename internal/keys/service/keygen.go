package service

import (
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

// rsaKeyGenerator implements KeyGenerator using RSA key pairs.
type rsaKeyGenerator struct {
	keySize int
	clock   clock.Clock
}

// NewKeyGenerator creates a KeyGenerator producing RSA keys of the given size.
// Sizes below 2048 bits are rejected.
func NewKeyGenerator(keySize int, clk clock.Clock) (KeyGenerator, error) {
	if keySize < 2048 {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "signing key size must be at least 2048 bits")
	}
	return &rsaKeyGenerator{keySize: keySize, clock: clk}, nil
}

// Generate creates a fresh RSA signing key valid for the given duration.
// The key id is derived from the public key, so regenerating identical key
// material always yields the same id.
func (g *rsaKeyGenerator) Generate(validFor time.Duration) (*keysDomain.KeyMaterial, error) {
	key, err := rsa.GenerateKey(rand.Reader, g.keySize)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate RSA key")
	}
	return g.build(key, validFor)
}

// Import builds a key record from existing PEM (or bare base64) material.
func (g *rsaKeyGenerator) Import(privateKeyPEM string, validFor time.Duration) (*keysDomain.KeyMaterial, error) {
	key, err := keysDomain.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
	}
	return g.build(key, validFor)
}

func (g *rsaKeyGenerator) build(key *rsa.PrivateKey, validFor time.Duration) (*keysDomain.KeyMaterial, error) {
	publicPEM, err := keysDomain.EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	now := g.clock.Now()
	return &keysDomain.KeyMaterial{
		KeyID:         keysDomain.ComputeKeyID(&key.PublicKey),
		PrivateKeyPEM: keysDomain.EncodePrivateKeyPEM(key),
		PublicKeyPEM:  publicPEM,
		CreatedAt:     now,
		ExpiresAt:     now.Add(validFor),
	}, nil
}
