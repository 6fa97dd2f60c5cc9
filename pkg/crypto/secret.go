package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	// DefaultSecretLength is the byte length of generated reset secrets.
	DefaultSecretLength = 32 // 256 bits
)

// GenerateSecret returns a fresh URL-safe random secret. These values are
// high-entropy, so storage-side comparison uses the fast HashSecret digest
// rather than a slow password hash.
func GenerateSecret() (string, error) {
	bytes := make([]byte, DefaultSecretLength)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashSecret returns the hex-encoded sha256 digest of a one-time secret.
// Deterministic: the stored digest is matched against the digest of a
// candidate at consumption time.
func HashSecret(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}

// VerifySecret compares a candidate against a stored digest in constant time.
func VerifySecret(candidate, storedHash string) (bool, error) {
	if candidate == "" || storedHash == "" {
		return false, errors.New("secret and hash cannot be empty")
	}

	candidateHash := HashSecret(candidate)

	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(storedHash)) == 1, nil
}
