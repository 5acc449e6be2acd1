package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const apiKeyBytes = 32

// GenerateAPIKey returns a new random API key. Only its hash is persisted;
// the plaintext is shown to the user exactly once.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return "sp_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
