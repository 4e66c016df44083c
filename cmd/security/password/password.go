package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
)

const (
	// SaltBytes is the per-user salt size.
	SaltBytes = 16

	// HashBytes is the SHA-256 digest size.
	HashBytes = 32
)

// NewSalt returns SaltBytes bytes from the system CSPRNG.
func NewSalt() ([]byte, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Hash computes SHA-256(password ‖ salt).
func Hash(password string, salt []byte) []byte {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write(salt)
	return h.Sum(nil)
}

// Verify reports whether password hashes to want under salt.
// The comparison is constant-time.
func Verify(password string, salt, want []byte) bool {
	got := Hash(password, salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}
