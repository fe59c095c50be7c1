package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// signingKeyRotator forces an immediate signing key rotation.
type signingKeyRotator interface {
	ForceRotate(ctx context.Context) (string, error)
}

// RunRotateSigningKey generates a fresh signing key and promotes it to active.
// Previously active keys stay verifiable until their retention window ends, so
// access tokens signed before the rotation keep validating.
//
// Requirements: Redis and the secrets keeper must be accessible.
func RunRotateSigningKey(
	ctx context.Context,
	rotator signingKeyRotator,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	logger.Info("forcing signing key rotation")

	keyID, err := rotator.ForceRotate(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate signing key: %w", err)
	}

	if format == "json" {
		outputRotateSigningKeyJSON(w, keyID)
	} else {
		outputRotateSigningKeyText(w, keyID)
	}

	logger.Info("signing key rotated", slog.String("key_id", keyID))
	return nil
}

// outputRotateSigningKeyText outputs the result in human-readable text format.
func outputRotateSigningKeyText(w io.Writer, keyID string) {
	fmt.Fprintf(w, "Successfully rotated signing key, new active key: %s\n", keyID)
}

// outputRotateSigningKeyJSON outputs the result in JSON format for machine consumption.
func outputRotateSigningKeyJSON(w io.Writer, keyID string) {
	result := map[string]interface{}{
		"key_id": keyID,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
