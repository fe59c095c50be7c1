package dto

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIssueTokensRequest_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		req := IssueTokensRequest{
			UserID:            uuid.Must(uuid.NewV7()).String(),
			DeviceID:          uuid.Must(uuid.NewV7()).String(),
			DeviceFingerprint: "fp-1",
			DpopThumbprint:    "NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs",
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingUserID", func(t *testing.T) {
		req := IssueTokensRequest{DeviceID: uuid.Must(uuid.NewV7()).String()}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_BlankDeviceID", func(t *testing.T) {
		req := IssueTokensRequest{
			UserID:   uuid.Must(uuid.NewV7()).String(),
			DeviceID: "   ",
		}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_OversizedFingerprint", func(t *testing.T) {
		req := IssueTokensRequest{
			UserID:            uuid.Must(uuid.NewV7()).String(),
			DeviceID:          uuid.Must(uuid.NewV7()).String(),
			DeviceFingerprint: strings.Repeat("x", 513),
		}
		assert.Error(t, req.Validate())
	})
}

func TestRefreshTokensRequest_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		req := RefreshTokensRequest{
			RefreshToken: uuid.Must(uuid.NewV7()).String() + ".secret",
			DeviceID:     uuid.Must(uuid.NewV7()).String(),
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingRefreshToken", func(t *testing.T) {
		req := RefreshTokensRequest{DeviceID: uuid.Must(uuid.NewV7()).String()}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_ThumbprintWithWhitespace", func(t *testing.T) {
		req := RefreshTokensRequest{
			RefreshToken:   uuid.Must(uuid.NewV7()).String() + ".secret",
			DeviceID:       uuid.Must(uuid.NewV7()).String(),
			DpopThumbprint: "has space",
		}
		assert.Error(t, req.Validate())
	})
}

func TestRevokeTokensRequest_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		req := RevokeTokensRequest{
			RefreshToken: uuid.Must(uuid.NewV7()).String() + ".secret",
			DeviceID:     uuid.Must(uuid.NewV7()).String(),
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingDeviceID", func(t *testing.T) {
		req := RevokeTokensRequest{RefreshToken: "value.secret"}
		assert.Error(t, req.Validate())
	})
}
