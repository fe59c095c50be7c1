package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

func TestRunListSigningKeys(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	oldKey := &keysDomain.KeyMaterial{
		KeyID:     "key-old",
		CreatedAt: now.Add(-24 * time.Hour),
		ExpiresAt: now.Add(48 * time.Hour),
	}
	activeKey := &keysDomain.KeyMaterial{
		KeyID:     "key-active",
		CreatedAt: now,
		ExpiresAt: now.Add(72 * time.Hour),
	}

	t.Run("text-output", func(t *testing.T) {
		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(activeKey, nil)
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{oldKey, activeKey}, nil)

		var out bytes.Buffer
		err := RunListSigningKeys(ctx, mockStore, clk, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Found 2 signing key(s)")
		require.Contains(t, out.String(), "key-active (active)")
		require.Contains(t, out.String(), "key-old created=")
		require.NotContains(t, out.String(), "key-old (active)")
		mockStore.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(activeKey, nil)
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{activeKey}, nil)

		var out bytes.Buffer
		err := RunListSigningKeys(ctx, mockStore, clk, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 1`)
		require.Contains(t, out.String(), `"key_id": "key-active"`)
		require.Contains(t, out.String(), `"active": true`)
		mockStore.AssertExpectations(t)
	})

	t.Run("no-keys", func(t *testing.T) {
		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(nil, nil)
		mockStore.On("GetAllKeys", ctx).Return([]*keysDomain.KeyMaterial{}, nil)

		var out bytes.Buffer
		err := RunListSigningKeys(ctx, mockStore, clk, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "No signing keys found")
	})

	t.Run("store-error", func(t *testing.T) {
		mockStore := &mockKeyStore{}
		mockStore.On("GetActiveKey", ctx).Return(nil, errors.New("redis unavailable"))

		err := RunListSigningKeys(ctx, mockStore, clk, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to get active signing key")
	})
}
