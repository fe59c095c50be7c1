package domain

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK is a single RSA public key in JSON Web Key form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the published set of verification keys: every non-expired known
// key, not just the active one, so tokens signed shortly before a rotation
// keep verifying during the overlap window.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewJWK builds the JWK document entry for a public key.
func NewJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
