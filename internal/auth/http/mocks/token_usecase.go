// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
)

// MockTokenUseCase is a mock implementation of TokenUseCase for testing.
type MockTokenUseCase struct {
	mock.Mock
}

// IssueTokens mocks the IssueTokens method of TokenUseCase.
func (m *MockTokenUseCase) IssueTokens(
	ctx context.Context,
	input *authDomain.IssueTokensInput,
) (*authDomain.TokenPairOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPairOutput), args.Error(1)
}

// Refresh mocks the Refresh method of TokenUseCase.
func (m *MockTokenUseCase) Refresh(
	ctx context.Context,
	input *authDomain.RefreshInput,
) (*authDomain.TokenPairOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPairOutput), args.Error(1)
}

// Revoke mocks the Revoke method of TokenUseCase.
func (m *MockTokenUseCase) Revoke(ctx context.Context, input *authDomain.RevokeInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// RevokeAllForUser mocks the RevokeAllForUser method of TokenUseCase.
func (m *MockTokenUseCase) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error {
	args := m.Called(ctx, userID, reason)
	return args.Error(0)
}

// PurgeExpired mocks the PurgeExpired method of TokenUseCase.
func (m *MockTokenUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
