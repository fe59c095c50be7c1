// Package service provides the token primitives: opaque refresh secrets and
// signed access tokens.
package service

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
)

// RefreshSecretService generates and hashes the opaque secret half of a
// refresh token.
type RefreshSecretService interface {
	// GenerateSecret creates a new random secret. Returns the plain secret
	// and its hash; only the hash is ever persisted.
	GenerateSecret() (plainSecret string, secretHash string, err error)

	// HashSecret hashes a plain secret for lookup.
	HashSecret(plainSecret string) string

	// ComposeToken builds the opaque wire value "{tokenId}.{secret}".
	ComposeToken(tokenID uuid.UUID, plainSecret string) string

	// ParseToken splits a wire value back into token id and secret.
	ParseToken(value string) (tokenID uuid.UUID, plainSecret string, err error)
}

// KeyProvider is the slice of the key provider the access token service needs.
type KeyProvider interface {
	GetSigningCredentials(ctx context.Context) (*rsa.PrivateKey, string, error)
	GetPublicKeys(ctx context.Context) (map[string]*rsa.PublicKey, error)
}

// UserSource is the slice of user persistence the token verifier needs to
// resolve a subject's current security version.
type UserSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)
}

// MintAccessTokenInput carries everything embedded into one access token.
type MintAccessTokenInput struct {
	User      *authDomain.User
	SessionID uuid.UUID
	DeviceID  uuid.UUID
	// DpopThumbprint, when set, is embedded as the cnf.jkt confirmation claim.
	DpopThumbprint string
	// DevicePublicJWK is embedded as cnf.jwk when no thumbprint was supplied.
	DevicePublicJWK string
}

// AccessTokenClaims is the verified content of an access token.
type AccessTokenClaims struct {
	UserID          uuid.UUID
	SessionID       uuid.UUID
	TenantID        uuid.UUID
	DeviceID        uuid.UUID
	TokenID         uuid.UUID
	SecurityVersion int64
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// AccessTokenService mints and verifies the signed access tokens other
// services trust.
type AccessTokenService interface {
	// Mint signs a new access token with the current signing key.
	Mint(ctx context.Context, input *MintAccessTokenInput) (token string, expiresAt time.Time, err error)

	// Verify checks a token's signature against the known key set and
	// returns its claims. Tokens whose ver claim is older than the
	// subject's current security version are rejected, so bumping the
	// version invalidates every previously minted token at once.
	Verify(ctx context.Context, token string) (*AccessTokenClaims, error)
}
