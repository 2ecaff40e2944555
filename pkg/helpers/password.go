package helpers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256Hex returns the lower-case hex SHA-256 digest of text. It is the only
// password hashing primitive; seeds, registration and login all go through it.
func SHA256Hex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ComparePasswordHash reports whether plain hashes to hash.
func ComparePasswordHash(hash string, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(SHA256Hex(plain))) == 1
}
