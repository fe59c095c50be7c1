package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
)

// refreshSecretService implements RefreshSecretService using SHA-256 for
// secret hashing.
type refreshSecretService struct{}

// NewRefreshSecretService creates a RefreshSecretService instance.
func NewRefreshSecretService() RefreshSecretService {
	return &refreshSecretService{}
}

// GenerateSecret creates a cryptographically secure 32-byte random secret.
// The secret is base64 URL-encoded for transmission; only its SHA-256 hash is
// ever stored.
func (s *refreshSecretService) GenerateSecret() (plainSecret string, secretHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate refresh secret")
	}

	plainSecret = base64.RawURLEncoding.EncodeToString(randomBytes)
	secretHash = s.HashSecret(plainSecret)
	return plainSecret, secretHash, nil
}

// HashSecret hashes a plain secret using SHA-256.
// Returns the hash as a hexadecimal string.
func (s *refreshSecretService) HashSecret(plainSecret string) string {
	hash := sha256.Sum256([]byte(plainSecret))
	return hex.EncodeToString(hash[:])
}

// ComposeToken builds the opaque wire value presented back by clients.
func (s *refreshSecretService) ComposeToken(tokenID uuid.UUID, plainSecret string) string {
	return tokenID.String() + "." + plainSecret
}

// ParseToken splits a wire value into its token id and secret halves.
// The secret may itself contain dots, so only the first separator counts.
func (s *refreshSecretService) ParseToken(value string) (uuid.UUID, string, error) {
	idPart, secretPart, found := strings.Cut(value, ".")
	if !found || secretPart == "" {
		return uuid.Nil, "", authDomain.ErrMalformedRefreshToken
	}

	tokenID, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", authDomain.ErrMalformedRefreshToken
	}

	return tokenID, secretPart, nil
}
