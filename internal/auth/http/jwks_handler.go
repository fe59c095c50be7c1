package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dr0pmead/rplus-server-sub000/internal/httputil"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

// KeySetProvider exposes the public half of the signing key set.
type KeySetProvider interface {
	JWKS(ctx context.Context) (*keysDomain.JWKS, error)
}

// JWKSHandler serves the JSON Web Key Set for access token verification.
type JWKSHandler struct {
	provider KeySetProvider
	logger   *slog.Logger
}

// NewJWKSHandler creates a new JWKS handler with required dependencies.
func NewJWKSHandler(provider KeySetProvider, logger *slog.Logger) *JWKSHandler {
	return &JWKSHandler{
		provider: provider,
		logger:   logger,
	}
}

// GetHandler returns every non-expired public key as a JWKS document.
// GET /.well-known/jwks.json - Public, cacheable. Keys for the whole retention
// window stay listed so tokens signed by a rotated-out key still verify.
func (h *JWKSHandler) GetHandler(c *gin.Context) {
	jwks, err := h.provider.JWKS(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, jwks)
}
