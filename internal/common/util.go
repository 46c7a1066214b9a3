package common

import (
	"crypto/rand"
	"strings"
)

// GenerateRandByteArray returns n bytes from crypto/rand.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray zeroes b in place. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SplitFullName splits a display name at the first space into first and last
// name. The last name is empty when there is no space.
//
//	SplitFullName("Ana María López") // "Ana", "María López"
func SplitFullName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}

// JoinFullName is the inverse of SplitFullName.
func JoinFullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
