package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register keeper drivers for the supported providers.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// OpenKeeper opens the secrets keeper that encrypts private key material at
// rest. Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, and
// base64key:// for local development.
func OpenKeeper(ctx context.Context, keeperURI string) (*secrets.Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keeperURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open secrets keeper: %w", err)
	}
	return keeper, nil
}
