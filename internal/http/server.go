// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/dr0pmead/rplus-server-sub000/internal/auth/http"
	"github.com/dr0pmead/rplus-server-sub000/internal/config"
	"github.com/dr0pmead/rplus-server-sub000/internal/metrics"
)

// Server represents the main API server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new API server. The router is assembled separately via
// SetupRouter so tests can exercise handlers without the full dependency set.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig holds the handlers and settings the router is built from.
type RouterConfig struct {
	Config          *config.Config
	TokenHandler    *authHTTP.TokenHandler
	JWKSHandler     *authHTTP.JWKSHandler
	MetricsProvider *metrics.Provider
}

// SetupRouter assembles the Gin router with middleware and all routes.
func (s *Server) SetupRouter(rc RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if rc.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(rc.MetricsProvider.MeterProvider(), "http"))
	}

	if corsMiddleware := createCORSMiddleware(
		rc.Config.CORSEnabled,
		rc.Config.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)
	router.GET("/.well-known/jwks.json", rc.JWKSHandler.GetHandler)

	tokens := router.Group("/v1/auth/tokens")
	if rc.Config.RateLimitTokenEnabled {
		tokens.Use(authHTTP.RateLimitMiddleware(
			rc.Config.RateLimitTokenRequestsPerSec,
			rc.Config.RateLimitTokenBurst,
			s.logger,
		))
	}
	tokens.POST("", rc.TokenHandler.IssueHandler)
	tokens.POST("/refresh", rc.TokenHandler.RefreshHandler)
	tokens.POST("/revoke", rc.TokenHandler.RevokeHandler)

	s.router = router
}

// Router returns the assembled gin engine. Exposed so integration tests can
// mount the server in an httptest.Server.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can take traffic. The database
// is the only hard dependency: signing keys are cached and Redis outages
// degrade to stale-but-valid key material.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	ready := true
	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
