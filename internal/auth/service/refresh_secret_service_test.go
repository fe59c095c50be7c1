package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
)

func TestRefreshSecretService_GenerateSecret(t *testing.T) {
	service := NewRefreshSecretService()

	plainSecret, secretHash, err := service.GenerateSecret()
	require.NoError(t, err)

	assert.NotEmpty(t, plainSecret)
	assert.Len(t, secretHash, 64)
	assert.Equal(t, service.HashSecret(plainSecret), secretHash)
	assert.NotEqual(t, plainSecret, secretHash)

	// Two secrets must never collide.
	otherSecret, otherHash, err := service.GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, plainSecret, otherSecret)
	assert.NotEqual(t, secretHash, otherHash)
}

func TestRefreshSecretService_ComposeAndParse(t *testing.T) {
	service := NewRefreshSecretService()
	tokenID := uuid.Must(uuid.NewV7())

	t.Run("Success_RoundTrip", func(t *testing.T) {
		value := service.ComposeToken(tokenID, "some-secret")
		assert.Equal(t, tokenID.String()+".some-secret", value)

		parsedID, secret, err := service.ParseToken(value)
		require.NoError(t, err)
		assert.Equal(t, tokenID, parsedID)
		assert.Equal(t, "some-secret", secret)
	})

	t.Run("Success_SecretContainingDots", func(t *testing.T) {
		value := service.ComposeToken(tokenID, "a.b.c")

		parsedID, secret, err := service.ParseToken(value)
		require.NoError(t, err)
		assert.Equal(t, tokenID, parsedID)
		assert.Equal(t, "a.b.c", secret)
	})

	t.Run("Error_NoSeparator", func(t *testing.T) {
		_, _, err := service.ParseToken("justonepart")
		assert.ErrorIs(t, err, authDomain.ErrMalformedRefreshToken)
	})

	t.Run("Error_EmptySecret", func(t *testing.T) {
		_, _, err := service.ParseToken(tokenID.String() + ".")
		assert.ErrorIs(t, err, authDomain.ErrMalformedRefreshToken)
	})

	t.Run("Error_InvalidTokenID", func(t *testing.T) {
		_, _, err := service.ParseToken("not-a-uuid.secret")
		assert.ErrorIs(t, err, authDomain.ErrMalformedRefreshToken)
	})

	t.Run("Error_Empty", func(t *testing.T) {
		_, _, err := service.ParseToken("")
		assert.ErrorIs(t, err, authDomain.ErrMalformedRefreshToken)
	})
}
