package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	keysService "github.com/dr0pmead/rplus-server-sub000/internal/keys/service"
)

// signingKeyEntry is the serializable view of a stored signing key.
type signingKeyEntry struct {
	KeyID     string    `json:"key_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// RunListSigningKeys prints every non-expired signing key known to the store,
// marking the currently active one. Private material is never printed.
//
// Requirements: Redis and the secrets keeper must be accessible.
func RunListSigningKeys(
	ctx context.Context,
	store keysService.KeyStore,
	clk clock.Clock,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	logger.Info("listing signing keys")

	active, err := store.GetActiveKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active signing key: %w", err)
	}

	keys, err := store.GetAllKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list signing keys: %w", err)
	}

	activeKeyID := ""
	if active != nil {
		activeKeyID = active.KeyID
	}

	entries := make([]signingKeyEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, signingKeyEntry{
			KeyID:     key.KeyID,
			CreatedAt: key.CreatedAt,
			ExpiresAt: key.ExpiresAt,
			Active:    key.KeyID == activeKeyID,
		})
	}

	if format == "json" {
		outputListSigningKeysJSON(w, entries)
	} else {
		outputListSigningKeysText(w, entries, clk.Now())
	}

	logger.Info("signing keys listed", slog.Int("count", len(entries)))
	return nil
}

// outputListSigningKeysText outputs the result in human-readable text format.
func outputListSigningKeysText(w io.Writer, entries []signingKeyEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No signing keys found")
		return
	}

	fmt.Fprintf(w, "Found %d signing key(s):\n", len(entries))
	for _, entry := range entries {
		marker := ""
		if entry.Active {
			marker = " (active)"
		}
		fmt.Fprintf(
			w,
			"  %s%s created=%s expires=%s remaining=%s\n",
			entry.KeyID,
			marker,
			entry.CreatedAt.Format(time.RFC3339),
			entry.ExpiresAt.Format(time.RFC3339),
			entry.ExpiresAt.Sub(now).Round(time.Second),
		)
	}
}

// outputListSigningKeysJSON outputs the result in JSON format for machine consumption.
func outputListSigningKeysJSON(w io.Writer, entries []signingKeyEntry) {
	result := map[string]interface{}{
		"count": len(entries),
		"keys":  entries,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
