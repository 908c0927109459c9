// Package auth generates the API keys groups authenticate with.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// keyBytes is the entropy of a generated key. 24 bytes = 192 bits, long
// enough that key lookup by equality leaks nothing useful through timing.
const keyBytes = 24

// NewKey returns a URL-safe random API key. Keys appear in URL paths, so the
// alphabet avoids characters that need escaping.
func NewKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}
