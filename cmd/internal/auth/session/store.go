package session

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"walrus/cmd/identity"
)

// CreateInput describes a new session row. Token material arrives already
// generated; the store only persists it.
type CreateInput struct {
	UserID identity.UserID

	IP     netip.Addr
	Device string
	OS     string
	App    string

	RefreshToken     []byte
	RefreshExpiresAt time.Time
	AccessToken      []byte
	AccessExpiresAt  time.Time

	Now time.Time

	// MaxSessions caps the user's live sessions. When the insert would
	// exceed it, rows with the smallest access expiration are dropped in
	// the same transaction.
	MaxSessions int
}

// AccessRecord is what access-token resolution needs.
type AccessRecord struct {
	UserID      identity.UserID
	AccessToken []byte
	ExpiresAt   time.Time
}

// RefreshRecord is what a refresh attempt needs.
type RefreshRecord struct {
	UserID       identity.UserID
	RefreshToken []byte
	ExpiresAt    time.Time
	Counter      int32
}

// UpdateInput rotates both tokens of a session, conditioned on the
// refresh counter the caller observed.
type UpdateInput struct {
	SessionID uuid.UUID

	RefreshToken     []byte
	RefreshExpiresAt time.Time
	AccessToken      []byte
	AccessExpiresAt  time.Time

	ExpectedCounter int32
	Now             time.Time
}

// Store is the session persistence boundary.
type Store interface {
	// Create inserts the session and enforces the per-user cap in the same
	// transaction.
	Create(ctx context.Context, in CreateInput) (uuid.UUID, error)

	// AccessRecord loads access-token material. Missing id yields ok=false.
	AccessRecord(ctx context.Context, id uuid.UUID) (AccessRecord, bool, error)

	// RefreshRecord loads refresh-token material. Missing id yields ok=false.
	RefreshRecord(ctx context.Context, id uuid.UUID) (RefreshRecord, bool, error)

	// UpdateTokens replaces both tokens and bumps the refresh counter, but
	// only if the stored counter still equals ExpectedCounter. Exactly one
	// of several racing callers observes won=true; the rest see won=false
	// with a nil error.
	UpdateTokens(ctx context.Context, in UpdateInput) (won bool, err error)

	// Remove deletes the session. Deleting an absent id is not an error.
	Remove(ctx context.Context, id uuid.UUID) error

	// TrimForUser drops the user's sessions closest to access expiry until
	// at most max remain.
	TrimForUser(ctx context.Context, userID identity.UserID, max int) error
}
