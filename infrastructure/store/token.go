// Package store holds what the confirmation store backends share.
package store

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// TokenBytes is the amount of randomness in a confirmation token (256 bits).
const TokenBytes = 32

// DefaultRetention is how long consumed or expired records are kept so late
// attempts report "consumed"/"expired" rather than "not found".
const DefaultRetention = 10 * time.Minute

// GenerateToken returns a URL-safe token backed by crypto/rand
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken derives the storage key of a token so plaintext tokens never
// reach shared storage.
func HashToken(token, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + token))
	return hex.EncodeToString(sum[:])
}
