// Package domain defines the core models for the signing-key lifecycle.
//
// Signing keys are RSA key pairs shared by every service instance through a
// replicated store. A key's id is derived deterministically from its public
// key, so the same key always maps to the same JWKS entry and tokens carrying
// a kid header resolve to exactly one verification key.
package domain

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
	"time"
)

// KeyMaterial is one signing key record as held in the shared store.
// The private key is encrypted before it ever leaves the process.
type KeyMaterial struct {
	KeyID         string    `json:"key_id"`
	PrivateKeyPEM string    `json:"private_key_pem"`
	PublicKeyPEM  string    `json:"public_key_pem"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired reports whether the key is past its validity window.
func (k *KeyMaterial) IsExpired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}

// RemainingValidity returns how long the key remains valid from now.
// Returns zero for expired keys.
func (k *KeyMaterial) RemainingValidity(now time.Time) time.Duration {
	if k.IsExpired(now) {
		return 0
	}
	return k.ExpiresAt.Sub(now)
}

// PrivateKey parses the record's private key PEM.
func (k *KeyMaterial) PrivateKey() (*rsa.PrivateKey, error) {
	return ParsePrivateKey(k.PrivateKeyPEM)
}

// PublicKey parses the record's public key PEM.
func (k *KeyMaterial) PublicKey() (*rsa.PublicKey, error) {
	return ParsePublicKey(k.PublicKeyPEM)
}

// ComputeKeyID derives the key id from a public key: SHA-256 over the RSA
// modulus bytes followed by the big-endian exponent, truncated to 16 bytes and
// hex-encoded. Identical keys always produce identical ids.
func ComputeKeyID(pub *rsa.PublicKey) string {
	h := sha256.New()
	h.Write(pub.N.Bytes())

	var exp [8]byte
	binary.BigEndian.PutUint64(exp[:], uint64(pub.E))
	h.Write(exp[:])

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// ParsePrivateKey parses an RSA private key from standard PEM or a bare
// base64 body, trying PKCS#1 and then PKCS#8 encodings.
func ParsePrivateKey(material string) (*rsa.PrivateKey, error) {
	der, err := decodeKeyBody(material)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("private key is neither PKCS#1 nor PKCS#8: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}
	return key, nil
}

// ParsePublicKey parses an RSA public key from standard PEM or a bare
// base64 body, trying PKIX and then PKCS#1 encodings.
func ParsePublicKey(material string) (*rsa.PublicKey, error) {
	der, err := decodeKeyBody(material)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	if parsed, err := x509.ParsePKIXPublicKey(der); err == nil {
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, ErrUnsupportedKeyType
		}
		return pub, nil
	}

	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("public key is neither PKIX nor PKCS#1: %w", err)
	}
	return pub, nil
}

// EncodePrivateKeyPEM encodes a private key as PKCS#1 PEM.
func EncodePrivateKeyPEM(key *rsa.PrivateKey) string {
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

// EncodePublicKeyPEM encodes a public key as PKIX PEM.
func EncodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	block := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}
	return string(pem.EncodeToMemory(block)), nil
}

// decodeKeyBody accepts a standard PEM document or a bare base64 body and
// returns the DER bytes.
func decodeKeyBody(material string) ([]byte, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, ErrEmptyKeyMaterial
	}

	if strings.Contains(material, "-----BEGIN") {
		block, _ := pem.Decode([]byte(material))
		if block == nil {
			return nil, ErrMalformedPEM
		}
		return block.Bytes, nil
	}

	// Bare base64 body, possibly with whitespace/newlines from env vars.
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, material)

	der, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("not a PEM document or base64 body: %w", err)
	}
	return der, nil
}
