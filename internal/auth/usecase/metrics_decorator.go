package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	"github.com/dr0pmead/rplus-server-sub000/internal/metrics"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// IssueTokens records metrics for token issuance operations.
func (t *tokenUseCaseWithMetrics) IssueTokens(
	ctx context.Context,
	input *authDomain.IssueTokensInput,
) (*authDomain.TokenPairOutput, error) {
	start := time.Now()
	output, err := t.next.IssueTokens(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "token", "issue", status)
	t.metrics.RecordDuration(ctx, "token", "issue", time.Since(start), status)

	return output, err
}

// Refresh records metrics for refresh operations, distinguishing theft
// detection from ordinary failures so reuse events are visible on dashboards.
func (t *tokenUseCaseWithMetrics) Refresh(
	ctx context.Context,
	input *authDomain.RefreshInput,
) (*authDomain.TokenPairOutput, error) {
	start := time.Now()
	output, err := t.next.Refresh(ctx, input)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, authDomain.ErrRefreshTokenReused):
		status = "theft_detected"
	default:
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "token", "refresh", status)
	t.metrics.RecordDuration(ctx, "token", "refresh", time.Since(start), status)

	return output, err
}

// Revoke records metrics for revocation operations.
func (t *tokenUseCaseWithMetrics) Revoke(ctx context.Context, input *authDomain.RevokeInput) error {
	start := time.Now()
	err := t.next.Revoke(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "token", "revoke", status)
	t.metrics.RecordDuration(ctx, "token", "revoke", time.Since(start), status)

	return err
}

// RevokeAllForUser records metrics for bulk revocation operations.
func (t *tokenUseCaseWithMetrics) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error {
	start := time.Now()
	err := t.next.RevokeAllForUser(ctx, userID, reason)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "token", "revoke_all", status)
	t.metrics.RecordDuration(ctx, "token", "revoke_all", time.Since(start), status)

	return err
}

// PurgeExpired records metrics for purge operations.
func (t *tokenUseCaseWithMetrics) PurgeExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := t.next.PurgeExpired(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "token", "purge_expired", status)
	t.metrics.RecordDuration(ctx, "token", "purge_expired", time.Since(start), status)

	return deleted, err
}
