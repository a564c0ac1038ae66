// Package invite generates and verifies share invitation tokens.
//
// The raw token is sent once in the invitation email. Only its SHA-256 hash
// is stored, so a leaked database row cannot be replayed as a link.
package invite

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenBytes is the number of random bytes in a token.
// Hex-encoded this gives a 64 character token.
const TokenBytes = 32

// Generate returns a new raw token and its storage hash.
func Generate() (token, hash string, err error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate invitation token: %w", err)
	}
	token = hex.EncodeToString(b)
	return token, Hash(token), nil
}

// Hash returns the hex-encoded SHA-256 hash of a raw token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidFormat reports whether s looks like a token produced by Generate.
// Lookups skip the database for anything else.
func ValidFormat(s string) bool {
	if len(s) != TokenBytes*2 {
		return false
	}
	if strings.ToLower(s) != s {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
