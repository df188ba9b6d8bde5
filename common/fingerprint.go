package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenFingerprint returns the hex sha256 of a token. Raw tokens are never
// logged or used as cache keys; the fingerprint is.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint is the first 12 hex characters of TokenFingerprint, enough
// to correlate log lines.
func ShortFingerprint(token string) string {
	return TokenFingerprint(token)[:12]
}
