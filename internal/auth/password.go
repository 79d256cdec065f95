// Package auth holds the password hashing and session token primitives.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 120_000
	pbkdf2KeyLength  = sha256.Size
	saltBytes        = 16
)

// HashPassword derives a PBKDF2-HMAC-SHA256 digest of password. An empty
// salt is replaced by a fresh random one. Both values are hex encoded.
func HashPassword(password, salt string) (digest string, usedSalt string, err error) {
	if salt == "" {
		salt, err = NewSalt()
		if err != nil {
			return "", "", err
		}
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return hex.EncodeToString(key), salt, nil
}

// VerifyPassword reports whether password hashes to digest under salt.
func VerifyPassword(password, digest, salt string) bool {
	if salt == "" {
		return false
	}
	expected, _, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(digest)) == 1
}

// NewSalt returns 16 random bytes, hex encoded.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
