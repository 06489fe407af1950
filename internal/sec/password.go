package sec

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// ComparePassword returns an error if the provided password does not resolve to
// the given hash.
func ComparePassword[T ~string | ~[]byte](password T, hash []byte) error {
	return bcrypt.CompareHashAndPassword(hash, digest(password))
}

// VerifyPassword reports whether password resolves to the given hash. A
// malformed hash never matches.
func VerifyPassword[T ~string | ~[]byte](password T, hash []byte) bool {
	return ComparePassword(password, hash) == nil
}

// HashPassword generates the hash for a given password of any length. It only
// fails if the system's random source does.
func HashPassword[T ~string | ~[]byte](password T) ([]byte, error) {
	return bcrypt.GenerateFromPassword(digest(password), bcrypt.DefaultCost)
}

// digest reduces password to 44 bytes, under bcrypt's 72 byte input limit, so
// that every byte of a long password is significant.
func digest[T ~string | ~[]byte](password T) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
