package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns a random token of the requested byte length,
// rendered as lowercase hex. Tokens act as bearer credentials, so the
// bytes always come from crypto/rand.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}
