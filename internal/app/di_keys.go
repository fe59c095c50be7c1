package app

import (
	"context"
	"fmt"

	keysRepository "github.com/dr0pmead/rplus-server-sub000/internal/keys/repository"
	keysService "github.com/dr0pmead/rplus-server-sub000/internal/keys/service"
	keysUseCase "github.com/dr0pmead/rplus-server-sub000/internal/keys/usecase"
)

// KeyStore returns the shared signing key store.
func (c *Container) KeyStore(ctx context.Context) (keysService.KeyStore, error) {
	c.keyStoreInit.Do(func() {
		client, err := c.Redis(ctx)
		if err != nil {
			c.initErrors["keyStore"] = fmt.Errorf("failed to get redis for key store: %w", err)
			return
		}

		keeper, err := c.Keeper(ctx)
		if err != nil {
			c.initErrors["keyStore"] = fmt.Errorf("failed to get keeper for key store: %w", err)
			return
		}

		c.keyStore = keysRepository.NewRedisKeyStore(client, keeper, c.Clock(), c.Logger())
	})
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// KeyGenerator returns the RSA signing key generator.
func (c *Container) KeyGenerator() (keysService.KeyGenerator, error) {
	c.keyGeneratorInit.Do(func() {
		generator, err := keysService.NewKeyGenerator(c.config.SigningKeySize, c.Clock())
		if err != nil {
			c.initErrors["keyGenerator"] = fmt.Errorf("failed to create key generator: %w", err)
			return
		}
		c.keyGenerator = generator
	})
	if storedErr, exists := c.initErrors["keyGenerator"]; exists {
		return nil, storedErr
	}
	return c.keyGenerator, nil
}

// KeyProvider returns the cached signing key provider used to sign and verify
// access tokens. In static key mode the provider never touches the key store.
func (c *Container) KeyProvider(ctx context.Context) (*keysService.Provider, error) {
	c.keyProviderInit.Do(func() {
		providerConfig := keysService.ProviderConfig{
			StaticPrivateKey: c.config.StaticPrivateKey,
			StaticPublicKey:  c.config.StaticPublicKey,
			CacheTTL:         c.config.SigningKeyCacheTTL,
		}

		if !c.config.RotationEnabled() {
			c.keyProvider = keysService.NewProvider(providerConfig, nil, c.Clock(), c.Logger())
			return
		}

		store, err := c.KeyStore(ctx)
		if err != nil {
			c.initErrors["keyProvider"] = fmt.Errorf("failed to get key store for key provider: %w", err)
			return
		}
		c.keyProvider = keysService.NewProvider(providerConfig, store, c.Clock(), c.Logger())
	})
	if storedErr, exists := c.initErrors["keyProvider"]; exists {
		return nil, storedErr
	}
	return c.keyProvider, nil
}

// Rotator returns the signing key rotation loop.
func (c *Container) Rotator(ctx context.Context) (*keysUseCase.Rotator, error) {
	c.rotatorInit.Do(func() {
		store, err := c.KeyStore(ctx)
		if err != nil {
			c.initErrors["rotator"] = fmt.Errorf("failed to get key store for rotator: %w", err)
			return
		}

		generator, err := c.KeyGenerator()
		if err != nil {
			c.initErrors["rotator"] = fmt.Errorf("failed to get key generator for rotator: %w", err)
			return
		}

		c.rotator = keysUseCase.NewRotator(store, generator, c.config, c.Clock(), c.Logger())
	})
	if storedErr, exists := c.initErrors["rotator"]; exists {
		return nil, storedErr
	}
	return c.rotator, nil
}
