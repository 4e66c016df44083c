package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/google/uuid"
)

const (
	// SessionTokenBytes is the size of access and refresh tokens.
	SessionTokenBytes = 32

	// sessionIDBytes is the raw (non-hyphenated) size of a session UUID.
	sessionIDBytes = 16
)

// NewSessionToken returns SessionTokenBytes bytes from the system CSPRNG.
func NewSessionToken() ([]byte, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Pack encodes a (session id, token) pair for transport:
// base64_standard(uuid_raw_16 ‖ token).
func Pack(sessionID uuid.UUID, tok []byte) string {
	packed := make([]byte, 0, sessionIDBytes+len(tok))
	packed = append(packed, sessionID[:]...)
	packed = append(packed, tok...)
	return base64.StdEncoding.EncodeToString(packed)
}

// Unpack reverses Pack. It fails with ErrBadToken when the input is not
// valid base64 or decodes to fewer than 16 bytes. The token half is the
// remainder after the session id; there is no trailing metadata.
func Unpack(packed string) (uuid.UUID, []byte, error) {
	raw, err := base64.StdEncoding.DecodeString(packed)
	if err != nil {
		return uuid.UUID{}, nil, ErrBadToken
	}
	if len(raw) < sessionIDBytes {
		return uuid.UUID{}, nil, ErrBadToken
	}
	sessionID, err := uuid.FromBytes(raw[:sessionIDBytes])
	if err != nil {
		return uuid.UUID{}, nil, ErrBadToken
	}
	return sessionID, raw[sessionIDBytes:], nil
}

// Equal compares two token byte strings in constant time.
// Length mismatch returns false without leaking content.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
