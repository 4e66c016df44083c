package identity

import (
	"context"
	"time"
)

// CreateUserInput describes a fully validated, pre-hashed user row.
// The caller (auth service) owns validation and hashing.
type CreateUserInput struct {
	Alias       string
	DisplayName string
	Role        Role
	Salt        []byte
	Hash        []byte
	InvitedBy   *UserID
	Now         time.Time
}

// Credentials is the password-check material for one user.
type Credentials struct {
	UserID UserID
	Salt   []byte
	Hash   []byte
}

// Store is the credential persistence boundary.
type Store interface {
	// CreateUserWithSelfChat inserts the user row and the user's personal
	// with_self chat (with an owner membership) in one transaction. A user
	// row is never observable without its self chat.
	//
	// An alias collision surfaces as a validation error.
	CreateUserWithSelfChat(ctx context.Context, in CreateUserInput) (UserID, error)

	// UserRole returns the role of an existing user.
	// A missing user fails with validate.ErrNotFound.
	UserRole(ctx context.Context, id UserID) (Role, error)

	// CredentialsByAlias looks up password-check material. A missing alias
	// yields ok=false, not an error: the caller collapses "no such user"
	// and "wrong password" into one failure to deny an enumeration oracle.
	CredentialsByAlias(ctx context.Context, alias string) (Credentials, bool, error)

	// UserIDByAlias resolves an alias. Missing alias yields ok=false.
	UserIDByAlias(ctx context.Context, alias string) (UserID, bool, error)
}
