// Package cryptox hashes account passwords with Argon2id and generates
// random passwords for remote accounts.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	hashScheme = "argon2id"
	saltSize   = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	// GeneratedPasswordLength is the length of passwords produced by GeneratePassword.
	GeneratedPasswordLength = 12

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// ErrMalformedHash is returned when a stored hash cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashPassword returns an encoded "argon2id$<salt>$<key>" string.
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := deriveKey([]byte(password), salt)
	return hashScheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
}

// CheckPassword reports whether password matches the encoded hash.
// The comparison is constant time.
func CheckPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}

	got := deriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// GeneratePassword returns a random password of GeneratedPasswordLength
// characters drawn from letters, digits and punctuation.
func GeneratePassword() (string, error) {
	var b strings.Builder
	b.Grow(GeneratedPasswordLength)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < GeneratedPasswordLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
