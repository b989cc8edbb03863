package common

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandByteArray returns a slice of n cryptographically random bytes.
// It panics if the system random source is unavailable, which is treated as
// an unrecoverable environment failure.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// GenerateOpaqueToken returns a fresh high-entropy opaque session token:
// OpaqueByteLength random bytes, base64-encoded to exactly 32 characters.
func GenerateOpaqueToken() string {
	return base64.StdEncoding.EncodeToString(GenerateRandByteArray(OpaqueByteLength))
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Useful for removing passwords from memory after use.
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
