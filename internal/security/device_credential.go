package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const deviceCredentialBytes = 32

// NewDeviceCredential returns a random URL-safe token and the digest to store for it.
func NewDeviceCredential() (token, hash string, err error) {
	buf := make([]byte, deviceCredentialBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("security.NewDeviceCredential: %w", err)
	}

	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, HashDeviceCredential(token), nil
}

// HashDeviceCredential : hex SHA-256 of the token. The token carries 256 bits of randomness,
// so an unsalted fast digest is enough to make a leaked table useless.
func HashDeviceCredential(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
