package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSessionKey returns a stable, non-reversible identifier for a session
// token. Audit rows store this instead of the raw token.
func HashSessionKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
