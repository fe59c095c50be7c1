package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

// mockKeyStore is a mock implementation of KeyStore for testing.
type mockKeyStore struct {
	mock.Mock
}

func (m *mockKeyStore) SaveActiveKey(ctx context.Context, material *keysDomain.KeyMaterial) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

func (m *mockKeyStore) GetActiveKey(ctx context.Context) (*keysDomain.KeyMaterial, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keysDomain.KeyMaterial), args.Error(1)
}

func (m *mockKeyStore) GetAllKeys(ctx context.Context) ([]*keysDomain.KeyMaterial, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*keysDomain.KeyMaterial), args.Error(1)
}

func (m *mockKeyStore) CleanupExpiredKeys(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generateTestKey(t *testing.T, clk clock.Clock, validFor time.Duration) *keysDomain.KeyMaterial {
	t.Helper()
	generator, err := NewKeyGenerator(2048, clk)
	require.NoError(t, err)
	material, err := generator.Generate(validFor)
	require.NoError(t, err)
	return material
}

func TestProvider_StaticMode(t *testing.T) {
	ctx := context.Background()
	fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	material := generateTestKey(t, fakeClock, time.Hour)

	t.Run("Success_NeverTouchesStore", func(t *testing.T) {
		mockStore := &mockKeyStore{}
		provider := NewProvider(ProviderConfig{
			StaticPrivateKey: material.PrivateKeyPEM,
		}, mockStore, fakeClock, testLogger())

		privateKey, keyID, err := provider.GetSigningCredentials(ctx)
		require.NoError(t, err)
		assert.NotNil(t, privateKey)
		assert.Equal(t, material.KeyID, keyID)

		publicKeys, err := provider.GetPublicKeys(ctx)
		require.NoError(t, err)
		assert.Len(t, publicKeys, 1)
		assert.Contains(t, publicKeys, material.KeyID)

		mockStore.AssertNotCalled(t, "GetActiveKey", mock.Anything)
		mockStore.AssertNotCalled(t, "GetAllKeys", mock.Anything)
	})

	t.Run("Success_ExplicitPublicKey", func(t *testing.T) {
		provider := NewProvider(ProviderConfig{
			StaticPrivateKey: material.PrivateKeyPEM,
			StaticPublicKey:  material.PublicKeyPEM,
		}, &mockKeyStore{}, fakeClock, testLogger())

		keyID, err := provider.GetKeyID(ctx)
		require.NoError(t, err)
		assert.Equal(t, material.KeyID, keyID)
	})

	t.Run("Error_MalformedPrivateKey", func(t *testing.T) {
		provider := NewProvider(ProviderConfig{
			StaticPrivateKey: "garbage",
		}, &mockKeyStore{}, fakeClock, testLogger())

		_, _, err := provider.GetSigningCredentials(ctx)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})
}

func TestProvider_RotatingMode(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ActiveKeySignsAllKeysVerify", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		active := generateTestKey(t, fakeClock, 72*time.Hour)
		retired := generateTestKey(t, fakeClock, 24*time.Hour)

		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(active, nil).Once()
		mockStore.On("GetAllKeys", ctx).
			Return([]*keysDomain.KeyMaterial{active, retired}, nil).
			Once()

		provider := NewProvider(ProviderConfig{}, mockStore, fakeClock, testLogger())

		privateKey, keyID, err := provider.GetSigningCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, active.KeyID, keyID)

		expectedKey, err := active.PrivateKey()
		require.NoError(t, err)
		assert.Equal(t, expectedKey.D, privateKey.D)

		publicKeys, err := provider.GetPublicKeys(ctx)
		require.NoError(t, err)
		assert.Len(t, publicKeys, 2)
		assert.Contains(t, publicKeys, active.KeyID)
		assert.Contains(t, publicKeys, retired.KeyID)

		mockStore.AssertExpectations(t)
	})

	t.Run("Success_ActiveKeyMissingFromIndexStillVerifies", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		active := generateTestKey(t, fakeClock, 72*time.Hour)

		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(active, nil).Once()
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{}, nil).Once()

		provider := NewProvider(ProviderConfig{}, mockStore, fakeClock, testLogger())

		publicKeys, err := provider.GetPublicKeys(ctx)
		require.NoError(t, err)
		assert.Contains(t, publicKeys, active.KeyID)
	})

	t.Run("Error_NoActiveKey", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(nil, nil).Once()

		provider := NewProvider(ProviderConfig{}, mockStore, fakeClock, testLogger())

		_, _, err := provider.GetSigningCredentials(ctx)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		mockStore.AssertExpectations(t)
	})
}

func TestProvider_Caching(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ServesFromCacheWithinTTL", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		active := generateTestKey(t, fakeClock, 72*time.Hour)

		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(active, nil).Once()
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{active}, nil).Once()

		provider := NewProvider(ProviderConfig{CacheTTL: 30 * time.Second}, mockStore, fakeClock, testLogger())

		_, _, err := provider.GetSigningCredentials(ctx)
		require.NoError(t, err)

		fakeClock.Advance(10 * time.Second)
		_, _, err = provider.GetSigningCredentials(ctx)
		require.NoError(t, err)

		mockStore.AssertExpectations(t)
	})

	t.Run("Success_RefreshesAfterTTL", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		first := generateTestKey(t, fakeClock, 72*time.Hour)
		second := generateTestKey(t, fakeClock, 72*time.Hour)

		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(first, nil).Once()
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{first}, nil).Once()

		provider := NewProvider(ProviderConfig{CacheTTL: 30 * time.Second}, mockStore, fakeClock, testLogger())

		_, keyID, err := provider.GetSigningCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.KeyID, keyID)

		// Rotation happened elsewhere; the cache picks it up after expiry.
		mockStore.On("GetActiveKey", ctx).Return(second, nil).Once()
		mockStore.On("GetAllKeys", ctx).
			Return([]*keysDomain.KeyMaterial{first, second}, nil).
			Once()

		fakeClock.Advance(31 * time.Second)
		_, keyID, err = provider.GetSigningCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.KeyID, keyID)

		mockStore.AssertExpectations(t)
	})

	t.Run("Success_ServesStaleOnTransientStoreFailure", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		active := generateTestKey(t, fakeClock, 72*time.Hour)

		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(active, nil).Once()
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{active}, nil).Once()

		provider := NewProvider(ProviderConfig{CacheTTL: 30 * time.Second}, mockStore, fakeClock, testLogger())

		_, _, err := provider.GetSigningCredentials(ctx)
		require.NoError(t, err)

		mockStore.On("GetActiveKey", ctx).Return(nil, errors.New("connection refused"))

		fakeClock.Advance(31 * time.Second)
		_, keyID, err := provider.GetSigningCredentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, active.KeyID, keyID)
	})

	t.Run("Error_EmptyCacheCannotAbsorbStoreFailure", func(t *testing.T) {
		fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(nil, errors.New("connection refused")).Once()

		provider := NewProvider(ProviderConfig{}, mockStore, fakeClock, testLogger())

		_, _, err := provider.GetSigningCredentials(ctx)
		assert.Error(t, err)
	})
}

func TestProvider_JWKS(t *testing.T) {
	ctx := context.Background()
	fakeClock := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	active := generateTestKey(t, fakeClock, 72*time.Hour)
	retired := generateTestKey(t, fakeClock, 24*time.Hour)

	mockStore := &mockKeyStore{}
	mockStore.On("GetActiveKey", ctx).Return(active, nil).Once()
	mockStore.On("GetAllKeys", ctx).
		Return([]*keysDomain.KeyMaterial{active, retired}, nil).
		Once()

	provider := NewProvider(ProviderConfig{}, mockStore, fakeClock, testLogger())

	jwks, err := provider.JWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 2)

	kids := []string{jwks.Keys[0].Kid, jwks.Keys[1].Kid}
	assert.Contains(t, kids, active.KeyID)
	assert.Contains(t, kids, retired.KeyID)
	for _, key := range jwks.Keys {
		assert.Equal(t, "RSA", key.Kty)
		assert.Equal(t, "sig", key.Use)
		assert.Equal(t, "RS256", key.Alg)
		assert.NotEmpty(t, key.N)
		assert.NotEmpty(t, key.E)
	}
}
