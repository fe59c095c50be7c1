package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	keysService "github.com/dr0pmead/rplus-server-sub000/internal/keys/service"
)

// RunCleanupSigningKeys prunes signing key records that are past their
// validity window. The rotation loop does this on its own schedule, so this
// command only matters when rotation is disabled or as an operator tool.
//
// Requirements: Redis and the secrets keeper must be accessible.
func RunCleanupSigningKeys(
	ctx context.Context,
	store keysService.KeyStore,
	logger *slog.Logger,
	w io.Writer,
) error {
	logger.Info("cleaning up expired signing keys")

	if err := store.CleanupExpiredKeys(ctx); err != nil {
		return fmt.Errorf("failed to cleanup expired signing keys: %w", err)
	}

	fmt.Fprintln(w, "Successfully removed expired signing keys")

	logger.Info("signing key cleanup completed")
	return nil
}
