package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateLoginToken creates the random credential embedded in magic links.
// 32 bytes = 256 bits of entropy, hex encoded.
func GenerateLoginToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate login token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
