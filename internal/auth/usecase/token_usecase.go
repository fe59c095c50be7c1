package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	authService "github.com/dr0pmead/rplus-server-sub000/internal/auth/service"
	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	"github.com/dr0pmead/rplus-server-sub000/internal/config"
	"github.com/dr0pmead/rplus-server-sub000/internal/database"
)

// tokenUseCase implements TokenUseCase. It owns the refresh-token state
// machine: Issued -> Used (superseded by a successor) | Revoked | Expired.
type tokenUseCase struct {
	config           *config.Config
	txManager        database.TxManager
	userRepo         UserRepository
	deviceRepo       DeviceRepository
	sessionRepo      SessionRepository
	refreshTokenRepo RefreshTokenRepository
	secretService    authService.RefreshSecretService
	accessService    authService.AccessTokenService
	clock            clock.Clock
	logger           *slog.Logger
}

// NewTokenUseCase creates a TokenUseCase.
func NewTokenUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	userRepo UserRepository,
	deviceRepo DeviceRepository,
	sessionRepo SessionRepository,
	refreshTokenRepo RefreshTokenRepository,
	secretService authService.RefreshSecretService,
	accessService authService.AccessTokenService,
	clk clock.Clock,
	logger *slog.Logger,
) TokenUseCase {
	return &tokenUseCase{
		config:           cfg,
		txManager:        txManager,
		userRepo:         userRepo,
		deviceRepo:       deviceRepo,
		sessionRepo:      sessionRepo,
		refreshTokenRepo: refreshTokenRepo,
		secretService:    secretService,
		accessService:    accessService,
		clock:            clk,
		logger:           logger,
	}
}

// IssueTokens creates a session bound to user, device, and fingerprint, then
// mints the first pair of a brand-new token family.
func (t *tokenUseCase) IssueTokens(
	ctx context.Context,
	input *authDomain.IssueTokensInput,
) (*authDomain.TokenPairOutput, error) {
	user, err := t.userRepo.Get(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, authDomain.ErrUserBlocked
	}

	device, err := t.deviceRepo.Get(ctx, input.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.UserID != user.ID {
		return nil, authDomain.ErrDeviceMismatch
	}
	if device.IsBlocked {
		return nil, authDomain.ErrDeviceBlocked
	}

	now := t.clock.Now()
	session := &authDomain.Session{
		ID:                uuid.Must(uuid.NewV7()),
		UserID:            user.ID,
		DeviceID:          device.ID,
		DeviceFingerprint: input.DeviceFingerprint,
		IssuedAt:          now,
		ExpiresAt:         now.Add(t.config.RefreshTokenExpiration),
		LastActivityAt:    now,
	}

	var output *authDomain.TokenPairOutput
	err = t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := t.sessionRepo.Create(txCtx, session); err != nil {
			return err
		}

		output, err = t.mintPair(txCtx, &mintPairInput{
			user:           user,
			device:         device,
			session:        session,
			tokenID:        uuid.Must(uuid.NewV7()),
			tokenFamily:    uuid.Must(uuid.NewV7()),
			fingerprint:    input.DeviceFingerprint,
			dpopThumbprint: input.DpopThumbprint,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := t.deviceRepo.TouchLastSeen(ctx, device.ID, now); err != nil {
		t.logger.Warn("failed to touch device last seen",
			slog.String("device_id", device.ID.String()),
			slog.Any("error", err),
		)
	}

	return output, nil
}

// Refresh consumes a refresh token and mints its successor within the same
// family. Validation order matters: the reuse check runs before everything
// else so a replayed token always condemns its family, even when it is also
// expired or presented from the wrong device.
func (t *tokenUseCase) Refresh(
	ctx context.Context,
	input *authDomain.RefreshInput,
) (*authDomain.TokenPairOutput, error) {
	tokenID, plainSecret, err := t.secretService.ParseToken(input.RefreshToken)
	if err != nil {
		return nil, err
	}

	token, err := t.refreshTokenRepo.GetByTokenHash(ctx, t.secretService.HashSecret(plainSecret))
	if err != nil {
		return nil, err
	}
	if token.ID != tokenID {
		// The secret exists but under a different token id: the presented
		// value was stitched together, not issued by us.
		return nil, authDomain.ErrRefreshTokenNotFound
	}

	now := t.clock.Now()

	// Reuse check comes first: a consumed token presented again is replay.
	if token.IsConsumed() {
		return nil, t.handleTheft(ctx, token)
	}

	if token.IsExpired(now) {
		return nil, authDomain.ErrRefreshTokenExpired
	}

	if token.DeviceID != input.DeviceID {
		return nil, authDomain.ErrDeviceMismatch
	}

	// Thumbprint mismatches are logged but tolerated. Tightening this to a
	// rejection is a policy change that needs explicit sign-off.
	if token.DpopThumbprint != "" && input.DpopThumbprint != token.DpopThumbprint {
		t.logger.Warn("dpop thumbprint mismatch on refresh",
			slog.String("token_id", token.ID.String()),
			slog.String("user_id", token.UserID.String()),
		)
	}

	user, err := t.userRepo.Get(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, authDomain.ErrUserBlocked
	}

	device, err := t.deviceRepo.Get(ctx, token.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.IsBlocked {
		return nil, authDomain.ErrDeviceBlocked
	}

	session, err := t.sessionRepo.Get(ctx, token.SessionID)
	if err != nil {
		return nil, err
	}
	if session.IsRevoked() {
		return nil, authDomain.ErrRefreshTokenRevoked
	}

	successorID := uuid.Must(uuid.NewV7())

	var output *authDomain.TokenPairOutput
	err = t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		// The conditional update is the single-use gate: of two racing
		// refreshes, exactly one passes this line.
		if err := t.refreshTokenRepo.MarkUsed(txCtx, token.ID, now, successorID); err != nil {
			return err
		}

		output, err = t.mintPair(txCtx, &mintPairInput{
			user:           user,
			device:         device,
			session:        session,
			tokenID:        successorID,
			tokenFamily:    token.TokenFamily,
			fingerprint:    token.DeviceFingerprint,
			dpopThumbprint: input.DpopThumbprint,
		})
		if err != nil {
			return err
		}

		return t.sessionRepo.TouchActivity(txCtx, session.ID, now)
	})
	if err != nil {
		if errors.Is(err, authDomain.ErrRefreshTokenReused) {
			// Lost the race to a concurrent presentation of the same token.
			return nil, t.handleTheft(ctx, token)
		}
		return nil, err
	}

	return output, nil
}

// Revoke terminates the presented token's family and session. Explicit
// logout, so absent or already-revoked tokens are a successful no-op.
func (t *tokenUseCase) Revoke(ctx context.Context, input *authDomain.RevokeInput) error {
	tokenID, plainSecret, err := t.secretService.ParseToken(input.RefreshToken)
	if err != nil {
		return err
	}

	token, err := t.refreshTokenRepo.GetByTokenHash(ctx, t.secretService.HashSecret(plainSecret))
	if err != nil {
		if errors.Is(err, authDomain.ErrRefreshTokenNotFound) {
			return nil
		}
		return err
	}
	if token.ID != tokenID {
		return nil
	}

	if token.DeviceID != input.DeviceID {
		return authDomain.ErrDeviceMismatch
	}

	now := t.clock.Now()
	return t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := t.refreshTokenRepo.RevokeFamily(txCtx, token.TokenFamily); err != nil {
			return err
		}
		return t.sessionRepo.Revoke(txCtx, token.SessionID, now, authDomain.RevokeReasonLogout)
	})
}

// RevokeAllForUser terminates every session and refresh token of a user and
// bumps the security version so outstanding access tokens fail verification.
func (t *tokenUseCase) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error {
	if _, err := t.userRepo.Get(ctx, userID); err != nil {
		return err
	}

	now := t.clock.Now()
	err := t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := t.refreshTokenRepo.RevokeByUser(txCtx, userID); err != nil {
			return err
		}
		if err := t.sessionRepo.RevokeByUser(txCtx, userID, now, reason); err != nil {
			return err
		}
		return t.userRepo.BumpSecurityVersion(txCtx, userID)
	})
	if err != nil {
		return err
	}

	t.logger.Info("revoked all user sessions",
		slog.String("user_id", userID.String()),
		slog.String("reason", reason),
	)
	return nil
}

// PurgeExpired removes refresh tokens whose validity has ended.
func (t *tokenUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	return t.refreshTokenRepo.DeleteExpired(ctx, t.clock.Now())
}

// handleTheft revokes the replayed token's entire family and session, logs
// the security event, and returns the theft status. This is the one place
// the engine takes protective action beyond rejecting the current request.
func (t *tokenUseCase) handleTheft(ctx context.Context, token *authDomain.RefreshToken) error {
	t.logger.Error("refresh token reuse detected, revoking token family",
		slog.String("token_id", token.ID.String()),
		slog.String("token_family", token.TokenFamily.String()),
		slog.String("user_id", token.UserID.String()),
		slog.String("session_id", token.SessionID.String()),
		slog.String("device_id", token.DeviceID.String()),
	)

	err := t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := t.refreshTokenRepo.RevokeFamily(txCtx, token.TokenFamily); err != nil {
			return err
		}
		return t.sessionRepo.Revoke(
			txCtx,
			token.SessionID,
			t.clock.Now(),
			authDomain.RevokeReasonTheftDetected,
		)
	})
	if err != nil {
		t.logger.Error("failed to revoke token family after reuse detection",
			slog.String("token_family", token.TokenFamily.String()),
			slog.Any("error", err),
		)
		return err
	}

	return authDomain.ErrRefreshTokenReused
}

// mintPairInput carries everything the shared pair-creation routine needs.
type mintPairInput struct {
	user           *authDomain.User
	device         *authDomain.Device
	session        *authDomain.Session
	tokenID        uuid.UUID
	tokenFamily    uuid.UUID
	fingerprint    string
	dpopThumbprint string
}

// mintPair is the shared pair-creation routine behind both issue and refresh.
// It persists the refresh-token record (hash only, never the secret) and
// signs the access token with the current signing key.
func (t *tokenUseCase) mintPair(
	ctx context.Context,
	input *mintPairInput,
) (*authDomain.TokenPairOutput, error) {
	plainSecret, secretHash, err := t.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := t.clock.Now()
	refreshExpiresAt := now.Add(t.config.RefreshTokenExpiration)

	token := &authDomain.RefreshToken{
		ID:                input.tokenID,
		SessionID:         input.session.ID,
		UserID:            input.user.ID,
		DeviceID:          input.device.ID,
		TokenHash:         secretHash,
		TokenFamily:       input.tokenFamily,
		IssuedAt:          now,
		ExpiresAt:         refreshExpiresAt,
		DeviceFingerprint: input.fingerprint,
		DpopThumbprint:    input.dpopThumbprint,
	}
	if err := t.refreshTokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	accessToken, accessExpiresAt, err := t.accessService.Mint(ctx, &authService.MintAccessTokenInput{
		User:            input.user,
		SessionID:       input.session.ID,
		DeviceID:        input.device.ID,
		DpopThumbprint:  input.dpopThumbprint,
		DevicePublicJWK: input.device.PublicJWK,
	})
	if err != nil {
		return nil, err
	}

	return &authDomain.TokenPairOutput{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     t.secretService.ComposeToken(token.ID, plainSecret),
		RefreshExpiresAt: refreshExpiresAt,
		SessionID:        input.session.ID,
	}, nil
}
