package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
)

// accessTokenService implements AccessTokenService using RS256 JWTs signed
// with the key provider's current credential.
type accessTokenService struct {
	provider   KeyProvider
	users      UserSource
	clock      clock.Clock
	issuer     string
	expiration time.Duration
}

// NewAccessTokenService creates an AccessTokenService.
func NewAccessTokenService(
	provider KeyProvider,
	users UserSource,
	clk clock.Clock,
	issuer string,
	expiration time.Duration,
) AccessTokenService {
	return &accessTokenService{
		provider:   provider,
		users:      users,
		clock:      clk,
		issuer:     issuer,
		expiration: expiration,
	}
}

// Mint signs a new access token. The kid header points at the signing key so
// verifiers resolve exactly one public key from the JWKS document. When a
// DPoP thumbprint is available it is embedded as cnf.jkt; otherwise the raw
// device public key, if known, is embedded as cnf.jwk.
func (s *accessTokenService) Mint(
	ctx context.Context,
	input *MintAccessTokenInput,
) (string, time.Time, error) {
	signingKey, keyID, err := s.provider.GetSigningCredentials(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.expiration)

	claims := jwt.MapClaims{
		"iss":       s.issuer,
		"sub":       input.User.ID.String(),
		"sid":       input.SessionID.String(),
		"tenant_id": input.User.TenantID.String(),
		"device_id": input.DeviceID.String(),
		"jti":       uuid.Must(uuid.NewV7()).String(),
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"ver":       input.User.SecurityVersion,
	}

	switch {
	case input.DpopThumbprint != "":
		claims["cnf"] = map[string]any{"jkt": input.DpopThumbprint}
	case input.DevicePublicJWK != "":
		var deviceJWK map[string]any
		if err := json.Unmarshal([]byte(input.DevicePublicJWK), &deviceJWK); err == nil {
			claims["cnf"] = map[string]any{"jwk": deviceJWK}
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "failed to sign access token")
	}

	return signed, expiresAt, nil
}

// Verify checks the token signature against the known key set and extracts
// its claims. Only RS256 is accepted and the kid header must resolve to a
// known, non-expired key. The ver claim must match the subject's current
// security version: tokens minted before a version bump are rejected.
func (s *accessTokenService) Verify(ctx context.Context, tokenString string) (*AccessTokenClaims, error) {
	publicKeys, err := s.provider.GetPublicKeys(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) {
			keyID, _ := token.Header["kid"].(string)
			publicKey, ok := publicKeys[keyID]
			if !ok {
				return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "unknown signing key")
			}
			return publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, err.Error())
	}

	rawClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "unexpected claims type")
	}

	claims, err := parseAccessTokenClaims(rawClaims)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "unknown token subject")
		}
		return nil, err
	}
	if claims.SecurityVersion < user.SecurityVersion {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "stale security version")
	}

	return claims, nil
}

func parseAccessTokenClaims(claims jwt.MapClaims) (*AccessTokenClaims, error) {
	userID, err := parseUUIDClaim(claims, "sub")
	if err != nil {
		return nil, err
	}
	sessionID, err := parseUUIDClaim(claims, "sid")
	if err != nil {
		return nil, err
	}
	tenantID, err := parseUUIDClaim(claims, "tenant_id")
	if err != nil {
		return nil, err
	}
	deviceID, err := parseUUIDClaim(claims, "device_id")
	if err != nil {
		return nil, err
	}
	tokenID, err := parseUUIDClaim(claims, "jti")
	if err != nil {
		return nil, err
	}

	version, ok := claims["ver"].(float64)
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "missing ver claim")
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "missing iat claim")
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "missing exp claim")
	}

	return &AccessTokenClaims{
		UserID:          userID,
		SessionID:       sessionID,
		TenantID:        tenantID,
		DeviceID:        deviceID,
		TokenID:         tokenID,
		SecurityVersion: int64(version),
		IssuedAt:        issuedAt.Time,
		ExpiresAt:       expiresAt.Time,
	}, nil
}

func parseUUIDClaim(claims jwt.MapClaims, name string) (uuid.UUID, error) {
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrUnauthorized, "missing "+name+" claim")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid "+name+" claim")
	}
	return parsed, nil
}
