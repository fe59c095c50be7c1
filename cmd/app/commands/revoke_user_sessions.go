package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	authUseCase "github.com/dr0pmead/rplus-server-sub000/internal/auth/usecase"
)

// RunRevokeUserSessions terminates every session and refresh token of a user
// and bumps the user's security version so outstanding access tokens stop
// verifying. This is the operator response to a compromised account.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeUserSessions(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	w io.Writer,
	userIDStr string,
	reason string,
	format string,
) error {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userIDStr, err)
	}

	logger.Info("revoking all sessions for user",
		slog.String("user_id", userID.String()),
		slog.String("reason", reason),
	)

	if err := tokenUseCase.RevokeAllForUser(ctx, userID, reason); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	if format == "json" {
		outputRevokeUserSessionsJSON(w, userID, reason)
	} else {
		outputRevokeUserSessionsText(w, userID)
	}

	logger.Info("user sessions revoked", slog.String("user_id", userID.String()))
	return nil
}

// outputRevokeUserSessionsText outputs the result in human-readable text format.
func outputRevokeUserSessionsText(w io.Writer, userID uuid.UUID) {
	fmt.Fprintf(w, "Successfully revoked all sessions and tokens for user %s\n", userID)
}

// outputRevokeUserSessionsJSON outputs the result in JSON format for machine consumption.
func outputRevokeUserSessionsJSON(w io.Writer, userID uuid.UUID, reason string) {
	result := map[string]interface{}{
		"user_id": userID.String(),
		"reason":  reason,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
