package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// bcryptCost is the work factor for Hash. Matches what the rest of the
// platform stores, so digests stay comparable across password changes.
const bcryptCost = 12

// saltBytes gives a 32-character base64 salt from GenerateSalt
const saltBytes = 24

// pbkdf2Iterations and pbkdf2KeyLen parameterize HashWithSalt
const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLen     = 32
)

// Hash returns a salted one-way digest of the password. The salt is random
// and embedded in the digest, so two calls on the same password yield
// different digests.
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}

	return string(digest), nil
}

// Compare reports whether the password matches the digest produced by Hash.
// A mismatch is not an error; empty arguments are.
func Compare(password, digest string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	if digest == "" {
		return false, ErrEmptyDigest
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, fmt.Errorf("failed to compare password: %v", err)
	}

	return true, nil
}

// GenerateSalt returns a fresh random salt string. Each call consumes new
// entropy, so no two calls return the same value.
func GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random source: %v", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashWithSalt derives a deterministic digest from the password and an
// explicit salt via PBKDF2-SHA256. The same password and salt always yield
// the same digest, enabling verification paths that store salts separately.
func HashWithSalt(password, salt string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if salt == "" {
		return "", ErrEmptySalt
	}

	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return base64.URLEncoding.EncodeToString(key), nil
}
