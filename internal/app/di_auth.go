package app

import (
	"context"
	"fmt"

	authHTTP "github.com/dr0pmead/rplus-server-sub000/internal/auth/http"
	authRepository "github.com/dr0pmead/rplus-server-sub000/internal/auth/repository"
	authService "github.com/dr0pmead/rplus-server-sub000/internal/auth/service"
	authUseCase "github.com/dr0pmead/rplus-server-sub000/internal/auth/usecase"
	"github.com/dr0pmead/rplus-server-sub000/internal/http"
)

// userRepository selects the user repository for the configured driver.
func (c *Container) userRepository() (authUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// deviceRepository selects the device repository for the configured driver.
func (c *Container) deviceRepository() (authUseCase.DeviceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for device repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLDeviceRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLDeviceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// sessionRepository selects the session repository for the configured driver.
func (c *Container) sessionRepository() (authUseCase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLSessionRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// refreshTokenRepository selects the refresh token repository for the configured driver.
func (c *Container) refreshTokenRepository() (authUseCase.RefreshTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for refresh token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLRefreshTokenRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLRefreshTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// TokenUseCase returns the token lifecycle use case wrapped with metrics.
func (c *Container) TokenUseCase(ctx context.Context) (authUseCase.TokenUseCase, error) {
	c.tokenUseCaseInit.Do(func() {
		useCase, err := c.initTokenUseCase(ctx)
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		c.tokenUseCase = useCase
	})
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase(ctx context.Context) (authUseCase.TokenUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for token use case: %w", err)
	}

	userRepo, err := c.userRepository()
	if err != nil {
		return nil, err
	}

	deviceRepo, err := c.deviceRepository()
	if err != nil {
		return nil, err
	}

	sessionRepo, err := c.sessionRepository()
	if err != nil {
		return nil, err
	}

	refreshTokenRepo, err := c.refreshTokenRepository()
	if err != nil {
		return nil, err
	}

	keyProvider, err := c.KeyProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for token use case: %w", err)
	}

	accessService := authService.NewAccessTokenService(
		keyProvider,
		userRepo,
		c.Clock(),
		c.config.TokenIssuer,
		c.config.AccessTokenExpiration,
	)

	useCase := authUseCase.NewTokenUseCase(
		c.config,
		txManager,
		userRepo,
		deviceRepo,
		sessionRepo,
		refreshTokenRepo,
		authService.NewRefreshSecretService(),
		accessService,
		c.Clock(),
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
	}

	return authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	tokenUseCase, err := c.TokenUseCase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}

	keyProvider, err := c.KeyProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(http.RouterConfig{
		Config:          c.config,
		TokenHandler:    authHTTP.NewTokenHandler(tokenUseCase, logger),
		JWKSHandler:     authHTTP.NewJWKSHandler(keyProvider, logger),
		MetricsProvider: metricsProvider,
	})

	return server, nil
}
