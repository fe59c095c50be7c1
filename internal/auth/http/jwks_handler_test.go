package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

// mockKeySetProvider is a mock implementation of KeySetProvider for testing.
type mockKeySetProvider struct {
	mock.Mock
}

func (m *mockKeySetProvider) JWKS(ctx context.Context) (*keysDomain.JWKS, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keysDomain.JWKS), args.Error(1)
}

func setupJWKSTestHandler(t *testing.T) (*JWKSHandler, *mockKeySetProvider) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockProvider := &mockKeySetProvider{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewJWKSHandler(mockProvider, logger), mockProvider
}

func TestJWKSHandler_GetHandler(t *testing.T) {
	t.Run("Success_ReturnsKeySet", func(t *testing.T) {
		handler, mockProvider := setupJWKSTestHandler(t)

		jwks := &keysDomain.JWKS{
			Keys: []keysDomain.JWK{
				{Kty: "RSA", Use: "sig", Alg: "RS256", Kid: "kid-1", N: "abc", E: "AQAB"},
				{Kty: "RSA", Use: "sig", Alg: "RS256", Kid: "kid-2", N: "def", E: "AQAB"},
			},
		}
		mockProvider.On("JWKS", mock.Anything).Return(jwks, nil).Once()

		c, w := createTestContext(http.MethodGet, "/.well-known/jwks.json", nil)

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

		var response keysDomain.JWKS
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Keys, 2)
		assert.Equal(t, "kid-1", response.Keys[0].Kid)
		assert.Equal(t, "RS256", response.Keys[0].Alg)

		mockProvider.AssertExpectations(t)
	})

	t.Run("Error_NoSigningMaterial", func(t *testing.T) {
		handler, mockProvider := setupJWKSTestHandler(t)

		mockProvider.On("JWKS", mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrConfiguration, "no active signing key")).
			Once()

		c, w := createTestContext(http.MethodGet, "/.well-known/jwks.json", nil)

		handler.GetHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
