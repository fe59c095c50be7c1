package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSigningKeyRotator struct {
	mock.Mock
}

func (m *mockSigningKeyRotator) ForceRotate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func TestRunRotateSigningKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockRotator := &mockSigningKeyRotator{}
		mockRotator.On("ForceRotate", ctx).Return("key-2025-06-01", nil)

		var out bytes.Buffer
		err := RunRotateSigningKey(ctx, mockRotator, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "new active key: key-2025-06-01")
		mockRotator.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockRotator := &mockSigningKeyRotator{}
		mockRotator.On("ForceRotate", ctx).Return("key-2025-06-01", nil)

		var out bytes.Buffer
		err := RunRotateSigningKey(ctx, mockRotator, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"key_id": "key-2025-06-01"`)
		mockRotator.AssertExpectations(t)
	})

	t.Run("rotation-error", func(t *testing.T) {
		mockRotator := &mockSigningKeyRotator{}
		mockRotator.On("ForceRotate", ctx).Return("", errors.New("redis unavailable"))

		err := RunRotateSigningKey(ctx, mockRotator, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to rotate signing key")
	})
}
