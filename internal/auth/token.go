package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenPrefix marks admin tokens so they are recognisable in secret scanners
// and shell history.
const TokenPrefix = "lqa_"

// GenerateToken returns TokenPrefix followed by 32 random bytes in unpadded
// base64url. Used by "api-server -gen-token".
func GenerateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(b[:]), nil
}
