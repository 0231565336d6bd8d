// Package token generates opaque secrets and derives the keyed
// fingerprints under which they are persisted. Plaintext secrets leave
// the process exactly once, in the response or email that carries them;
// the store only ever sees fingerprints.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// DefaultLength is the secret size in bytes for refresh and one-time
// tokens. CSRF companion values use a shorter secret.
const (
	DefaultLength = 32
	CSRFLength    = 16
)

// Codec generates opaque tokens and fingerprints them with a
// server-wide key. Safe for concurrent use.
type Codec struct {
	key []byte
}

// NewCodec returns a Codec keyed with the server secret.
func NewCodec(key []byte) *Codec {
	return &Codec{key: append([]byte(nil), key...)}
}

// Generate returns n cryptographically random bytes encoded as a
// URL-safe string (base64url, no padding).
func (c *Codec) Generate(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Fingerprint returns the hex HMAC-SHA256 of the token under the server
// key. Deterministic for a fixed token+key; without the key the mapping
// is not reversible, so a leaked store does not leak usable tokens.
func (c *Codec) Fingerprint(token string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
