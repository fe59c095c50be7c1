package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is created on successful login and shared by every refresh token in
// the resulting family. It is terminal once RevokedAt is set.
type Session struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	DeviceID          uuid.UUID
	DeviceFingerprint string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	LastActivityAt    time.Time
	RevokedAt         *time.Time
	RevokeReason      string
}

// IsRevoked reports whether the session has been terminated.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// Revocation reasons recorded on sessions and token families.
const (
	RevokeReasonLogout        = "logout"
	RevokeReasonTheftDetected = "theft_detected"
	RevokeReasonAdmin         = "admin"
)
