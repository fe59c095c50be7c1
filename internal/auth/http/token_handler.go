// Package http provides HTTP handlers for token lifecycle operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	"github.com/dr0pmead/rplus-server-sub000/internal/auth/http/dto"
	authUseCase "github.com/dr0pmead/rplus-server-sub000/internal/auth/usecase"
	"github.com/dr0pmead/rplus-server-sub000/internal/httputil"
	customValidation "github.com/dr0pmead/rplus-server-sub000/internal/validation"
)

// TokenHandler handles HTTP requests for token lifecycle operations.
// It coordinates issuance, refresh, and revocation with the TokenUseCase.
type TokenHandler struct {
	tokenUseCase authUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// IssueHandler mints a token pair for an already-authenticated user.
// POST /v1/auth/tokens - Called by trusted services after credential checks.
// Returns 201 Created with the pair; the refresh token is shown only once.
func (h *TokenHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueTokensRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid user_id format: must be a valid UUID"),
			h.logger)
		return
	}

	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device_id format: must be a valid UUID"),
			h.logger)
		return
	}

	input := &authDomain.IssueTokensInput{
		UserID:            userID,
		DeviceID:          deviceID,
		DeviceFingerprint: req.DeviceFingerprint,
		DpopThumbprint:    req.DpopThumbprint,
	}

	output, err := h.tokenUseCase.IssueTokens(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTokenPairToResponse(output))
}

// RefreshHandler rotates a refresh token into its successor pair.
// POST /v1/auth/tokens/refresh - No authentication beyond the token itself.
// Returns 200 OK with the new pair, or 401 when the token is replayed,
// expired, or bound to a different device.
func (h *TokenHandler) RefreshHandler(c *gin.Context) {
	var req dto.RefreshTokensRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device_id format: must be a valid UUID"),
			h.logger)
		return
	}

	input := &authDomain.RefreshInput{
		RefreshToken:   req.RefreshToken,
		DeviceID:       deviceID,
		DpopThumbprint: req.DpopThumbprint,
	}

	output, err := h.tokenUseCase.Refresh(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenPairToResponse(output))
}

// RevokeHandler terminates a refresh token's family and session (logout).
// POST /v1/auth/tokens/revoke - Idempotent; revoking an unknown token still
// returns 204 No Content so logout never fails client-side.
func (h *TokenHandler) RevokeHandler(c *gin.Context) {
	var req dto.RevokeTokensRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device_id format: must be a valid UUID"),
			h.logger)
		return
	}

	input := &authDomain.RevokeInput{
		RefreshToken: req.RefreshToken,
		DeviceID:     deviceID,
	}

	if err := h.tokenUseCase.Revoke(c.Request.Context(), input); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
