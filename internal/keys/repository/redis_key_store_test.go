package repository

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets/localsecrets"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

func newTestStore(t *testing.T, clk clock.Clock) (*RedisKeyStore, *miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	secretKey, err := localsecrets.NewRandomKey()
	require.NoError(t, err)
	keeper := localsecrets.NewKeeper(secretKey)
	t.Cleanup(func() {
		_ = keeper.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisKeyStore(client, keeper, clk, logger), mr, client
}

func newTestKeyMaterial(t *testing.T, now time.Time, validFor time.Duration) *keysDomain.KeyMaterial {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	publicPEM, err := keysDomain.EncodePublicKeyPEM(&key.PublicKey)
	require.NoError(t, err)

	return &keysDomain.KeyMaterial{
		KeyID:         keysDomain.ComputeKeyID(&key.PublicKey),
		PrivateKeyPEM: keysDomain.EncodePrivateKeyPEM(key),
		PublicKeyPEM:  publicPEM,
		CreatedAt:     now,
		ExpiresAt:     now.Add(validFor),
	}
}

func TestRedisKeyStore_SaveActiveKey(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFake(now)

	t.Run("Success_RoundTrip", func(t *testing.T) {
		store, _, client := newTestStore(t, fakeClock)
		material := newTestKeyMaterial(t, now, 72*time.Hour)

		err := store.SaveActiveKey(ctx, material)
		require.NoError(t, err)

		got, err := store.GetActiveKey(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, material.KeyID, got.KeyID)
		assert.Equal(t, material.PrivateKeyPEM, got.PrivateKeyPEM)
		assert.True(t, material.ExpiresAt.Equal(got.ExpiresAt))

		// The stored record must be ciphertext, not the raw JSON document.
		raw, err := client.Get(ctx, keyRecordPrefix+material.KeyID).Bytes()
		require.NoError(t, err)
		var plain keysDomain.KeyMaterial
		assert.Error(t, json.Unmarshal(raw, &plain))

		ttl := client.TTL(ctx, keyRecordPrefix+material.KeyID).Val()
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, 72*time.Hour)
	})

	t.Run("Success_Idempotent", func(t *testing.T) {
		store, _, client := newTestStore(t, fakeClock)
		material := newTestKeyMaterial(t, now, 72*time.Hour)

		require.NoError(t, store.SaveActiveKey(ctx, material))
		require.NoError(t, store.SaveActiveKey(ctx, material))

		keyIDs, err := client.SMembers(ctx, keyIndexKey).Result()
		require.NoError(t, err)
		assert.Equal(t, []string{material.KeyID}, keyIDs)
	})

	t.Run("Error_ExpiredMaterial", func(t *testing.T) {
		store, _, _ := newTestStore(t, fakeClock)
		material := newTestKeyMaterial(t, now.Add(-2*time.Hour), time.Hour)

		err := store.SaveActiveKey(ctx, material)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestRedisKeyStore_GetActiveKey(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFake(now)

	t.Run("Success_NoActiveKey", func(t *testing.T) {
		store, _, _ := newTestStore(t, fakeClock)

		got, err := store.GetActiveKey(ctx)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Success_DanglingPointer", func(t *testing.T) {
		store, _, client := newTestStore(t, fakeClock)
		material := newTestKeyMaterial(t, now, 72*time.Hour)
		require.NoError(t, store.SaveActiveKey(ctx, material))

		// Simulate the record expiring out from under the pointer.
		require.NoError(t, client.Del(ctx, keyRecordPrefix+material.KeyID).Err())

		got, err := store.GetActiveKey(ctx)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Success_LatestSaveWins", func(t *testing.T) {
		store, _, _ := newTestStore(t, fakeClock)
		first := newTestKeyMaterial(t, now, 72*time.Hour)
		second := newTestKeyMaterial(t, now, 72*time.Hour)

		require.NoError(t, store.SaveActiveKey(ctx, first))
		require.NoError(t, store.SaveActiveKey(ctx, second))

		got, err := store.GetActiveKey(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, second.KeyID, got.KeyID)
	})
}

func TestRedisKeyStore_GetAllKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success_ReturnsAllNonExpired", func(t *testing.T) {
		fakeClock := clock.NewFake(now)
		store, _, _ := newTestStore(t, fakeClock)
		first := newTestKeyMaterial(t, now, 24*time.Hour)
		second := newTestKeyMaterial(t, now, 72*time.Hour)

		require.NoError(t, store.SaveActiveKey(ctx, first))
		require.NoError(t, store.SaveActiveKey(ctx, second))

		materials, err := store.GetAllKeys(ctx)
		require.NoError(t, err)
		assert.Len(t, materials, 2)
	})

	t.Run("Success_ReconcilesStaleIndexEntry", func(t *testing.T) {
		fakeClock := clock.NewFake(now)
		store, _, client := newTestStore(t, fakeClock)
		material := newTestKeyMaterial(t, now, 72*time.Hour)
		require.NoError(t, store.SaveActiveKey(ctx, material))

		// An index entry whose record already expired out of the store.
		require.NoError(t, client.SAdd(ctx, keyIndexKey, "deadbeefdeadbeefdeadbeefdeadbeef").Err())

		materials, err := store.GetAllKeys(ctx)
		require.NoError(t, err)
		assert.Len(t, materials, 1)

		keyIDs, err := client.SMembers(ctx, keyIndexKey).Result()
		require.NoError(t, err)
		assert.Equal(t, []string{material.KeyID}, keyIDs)
	})

	t.Run("Success_DropsExpiredRecord", func(t *testing.T) {
		fakeClock := clock.NewFake(now)
		store, _, client := newTestStore(t, fakeClock)
		shortLived := newTestKeyMaterial(t, now, time.Hour)
		longLived := newTestKeyMaterial(t, now, 72*time.Hour)

		require.NoError(t, store.SaveActiveKey(ctx, shortLived))
		require.NoError(t, store.SaveActiveKey(ctx, longLived))

		fakeClock.Advance(2 * time.Hour)

		materials, err := store.GetAllKeys(ctx)
		require.NoError(t, err)
		require.Len(t, materials, 1)
		assert.Equal(t, longLived.KeyID, materials[0].KeyID)

		exists, err := client.Exists(ctx, keyRecordPrefix+shortLived.KeyID).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(0), exists)
	})

	t.Run("Success_ExcludesUndecryptableRecord", func(t *testing.T) {
		fakeClock := clock.NewFake(now)
		store, _, client := newTestStore(t, fakeClock)
		material := newTestKeyMaterial(t, now, 72*time.Hour)
		require.NoError(t, store.SaveActiveKey(ctx, material))

		// A record encrypted under a rotated-away keeper key.
		require.NoError(t, client.Set(ctx, keyRecordPrefix+"feedfacefeedfacefeedfacefeedface", "garbage", time.Hour).Err())
		require.NoError(t, client.SAdd(ctx, keyIndexKey, "feedfacefeedfacefeedfacefeedface").Err())

		materials, err := store.GetAllKeys(ctx)
		require.NoError(t, err)
		require.Len(t, materials, 1)
		assert.Equal(t, material.KeyID, materials[0].KeyID)
	})
}

func TestRedisKeyStore_CleanupExpiredKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFake(now)

	store, _, client := newTestStore(t, fakeClock)
	shortLived := newTestKeyMaterial(t, now, time.Hour)
	longLived := newTestKeyMaterial(t, now, 72*time.Hour)

	require.NoError(t, store.SaveActiveKey(ctx, shortLived))
	require.NoError(t, store.SaveActiveKey(ctx, longLived))
	require.NoError(t, client.SAdd(ctx, keyIndexKey, "deadbeefdeadbeefdeadbeefdeadbeef").Err())

	fakeClock.Advance(2 * time.Hour)

	err := store.CleanupExpiredKeys(ctx)
	require.NoError(t, err)

	keyIDs, err := client.SMembers(ctx, keyIndexKey).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{longLived.KeyID}, keyIDs)

	exists, err := client.Exists(ctx, keyRecordPrefix+shortLived.KeyID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
