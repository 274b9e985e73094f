package documents

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewSessionToken returns a fresh 256-bit anonymous session token.
func NewSessionToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
