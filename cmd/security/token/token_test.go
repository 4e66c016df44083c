package token

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestPackUnpack_RoundTrip(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	tok, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if len(tok) != SessionTokenBytes {
		t.Fatalf("token length = %d, want %d", len(tok), SessionTokenBytes)
	}

	packed := Pack(sessionID, tok)

	gotID, gotTok, err := Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if gotID != sessionID {
		t.Fatalf("session id = %s, want %s", gotID, sessionID)
	}
	if !bytes.Equal(gotTok, tok) {
		t.Fatalf("token bytes do not round-trip")
	}
}

func TestUnpack_RejectsBadBase64(t *testing.T) {
	t.Parallel()

	if _, _, err := Unpack("####"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("err = %v, want ErrBadToken", err)
	}
	if _, _, err := Unpack("!!!"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("err = %v, want ErrBadToken", err)
	}
}

func TestUnpack_RejectsShortBuffer(t *testing.T) {
	t.Parallel()

	short := base64.StdEncoding.EncodeToString(make([]byte, 15))
	if _, _, err := Unpack(short); !errors.Is(err, ErrBadToken) {
		t.Fatalf("err = %v, want ErrBadToken", err)
	}
}

func TestUnpack_EmptyTokenHalf(t *testing.T) {
	t.Parallel()

	// Exactly 16 bytes unpacks to an empty token, not an error.
	sessionID := uuid.New()
	packed := base64.StdEncoding.EncodeToString(sessionID[:])

	gotID, gotTok, err := Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if gotID != sessionID {
		t.Fatalf("session id = %s, want %s", gotID, sessionID)
	}
	if len(gotTok) != 0 {
		t.Fatalf("token half = %d bytes, want 0", len(gotTok))
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := []byte("0123456789abcdef0123456789abcdef")
	b := []byte("0123456789abcdef0123456789abcdef")
	c := []byte("0123456789abcdef0123456789abcdeX")

	if !Equal(a, b) {
		t.Fatalf("Equal(a, b) = false, want true")
	}
	if Equal(a, c) {
		t.Fatalf("Equal(a, c) = true, want false")
	}
	if Equal(a, a[:16]) {
		t.Fatalf("Equal with different lengths = true, want false")
	}
}
