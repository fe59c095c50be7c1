package domain

import "errors"

// Sentinel errors for the signing-key lifecycle.
var (
	// ErrNoActiveKey indicates rotation mode is selected but the store holds no
	// active key. This is fatal: the rotation loop has not completed initialization.
	ErrNoActiveKey = errors.New("no active signing key")

	// ErrKeyNotFound indicates a key id is not present in the store.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrEmptyKeyMaterial indicates an empty key string was supplied.
	ErrEmptyKeyMaterial = errors.New("empty key material")

	// ErrMalformedPEM indicates the key material is not a parseable PEM document.
	ErrMalformedPEM = errors.New("malformed PEM block")

	// ErrUnsupportedKeyType indicates the key is not an RSA key.
	ErrUnsupportedKeyType = errors.New("unsupported key type, expected RSA")

	// ErrKeyDecryption indicates a stored key could not be decrypted. The key is
	// treated as unusable and excluded, never fatal to a whole read.
	ErrKeyDecryption = errors.New("failed to decrypt signing key")
)
