package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	authUseCase "github.com/dr0pmead/rplus-server-sub000/internal/auth/usecase"
)

// RunPurgeExpiredTokens deletes refresh tokens whose validity window has ended.
// Expired tokens are already unusable, this only reclaims storage. Intended to
// run from a scheduler.
//
// Requirements: Database must be migrated and accessible.
func RunPurgeExpiredTokens(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	logger.Info("purging expired refresh tokens")

	count, err := tokenUseCase.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge expired tokens: %w", err)
	}

	if format == "json" {
		outputPurgeExpiredTokensJSON(w, count)
	} else {
		outputPurgeExpiredTokensText(w, count)
	}

	logger.Info("purge completed", slog.Int64("count", count))
	return nil
}

// outputPurgeExpiredTokensText outputs the result in human-readable text format.
func outputPurgeExpiredTokensText(w io.Writer, count int64) {
	fmt.Fprintf(w, "Successfully deleted %d expired refresh token(s)\n", count)
}

// outputPurgeExpiredTokensJSON outputs the result in JSON format for machine consumption.
func outputPurgeExpiredTokensJSON(w io.Writer, count int64) {
	result := map[string]interface{}{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
