package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashAPIKey returns the hex-encoded SHA-256 digest of an API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
