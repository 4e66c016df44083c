package identity

import (
	"context"
	"sync"

	"walrus/cmd/internal/chat"
	"walrus/cmd/internal/validate"
)

// MemoryStore is the db-less Store used when no database is configured,
// and by service-level tests. It shares a chat.MemoryStore so that user
// creation produces the self chat the same way the Postgres store does.
type MemoryStore struct {
	mu     sync.Mutex
	nextID UserID
	users  map[UserID]*memUser
	byName map[string]UserID

	chats *chat.MemoryStore
}

type memUser struct {
	id        UserID
	alias     string
	role      Role
	salt      []byte
	hash      []byte
	invitedBy *UserID
}

// NewMemoryStore constructs an empty in-memory credential store writing self
// chats into chats.
func NewMemoryStore(chats *chat.MemoryStore) *MemoryStore {
	return &MemoryStore{
		users:  make(map[UserID]*memUser),
		byName: make(map[string]UserID),
		chats:  chats,
	}
}

// CreateUserWithSelfChat inserts the user and its with_self chat.
func (s *MemoryStore) CreateUserWithSelfChat(ctx context.Context, in CreateUserInput) (UserID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	if _, taken := s.byName[in.Alias]; taken {
		s.mu.Unlock()
		return 0, validate.InvalidInputError{Value: in.Alias, Reason: "alias is already taken"}
	}
	s.nextID++
	u := &memUser{
		id:        s.nextID,
		alias:     in.Alias,
		role:      in.Role,
		salt:      append([]byte(nil), in.Salt...),
		hash:      append([]byte(nil), in.Hash...),
		invitedBy: in.InvitedBy,
	}
	s.users[u.id] = u
	s.byName[u.alias] = u.id
	s.mu.Unlock()

	if _, err := s.chats.CreateWithSelfChat(ctx, u.id, in.Now); err != nil {
		return 0, err
	}
	return u.id, nil
}

// UserRole fetches the role of an existing user.
func (s *MemoryStore) UserRole(ctx context.Context, id UserID) (Role, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	if u == nil {
		return "", validate.ErrNotFound
	}
	return u.role, nil
}

// CredentialsByAlias fetches password-check material for an alias.
func (s *MemoryStore) CredentialsByAlias(ctx context.Context, alias string) (Credentials, bool, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[alias]
	if !ok {
		return Credentials{}, false, nil
	}
	u := s.users[id]
	return Credentials{
		UserID: u.id,
		Salt:   append([]byte(nil), u.salt...),
		Hash:   append([]byte(nil), u.hash...),
	}, true, nil
}

// UserIDByAlias resolves an alias to a user id.
func (s *MemoryStore) UserIDByAlias(ctx context.Context, alias string) (UserID, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[alias]
	return id, ok, nil
}
