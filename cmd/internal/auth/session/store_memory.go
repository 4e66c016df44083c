package session

import (
	"context"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"walrus/cmd/identity"
)

// MemoryStore is the db-less Store used when no database is configured,
// and by service-level tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*memSession
}

type memSession struct {
	id     uuid.UUID
	userID identity.UserID

	ip     netip.Addr
	device string
	os     string
	app    string

	refreshToken     []byte
	refreshExpiresAt time.Time
	refreshCounter   int32
	accessToken      []byte
	accessExpiresAt  time.Time

	createdAt  time.Time
	lastSeenAt time.Time
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*memSession)}
}

// Create inserts the session and applies the per-user cap atomically
// under the store lock.
func (s *MemoryStore) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := &memSession{
		id:     uuid.New(),
		userID: in.UserID,
		ip:     in.IP,
		device: in.Device,
		os:     in.OS,
		app:    in.App,

		refreshToken:     append([]byte(nil), in.RefreshToken...),
		refreshExpiresAt: in.RefreshExpiresAt,
		refreshCounter:   1,
		accessToken:      append([]byte(nil), in.AccessToken...),
		accessExpiresAt:  in.AccessExpiresAt,

		createdAt:  in.Now,
		lastSeenAt: in.Now,
	}
	s.rows[row.id] = row

	s.trimLocked(in.UserID, in.MaxSessions)
	return row.id, nil
}

// AccessRecord loads access-token material for one session.
func (s *MemoryStore) AccessRecord(ctx context.Context, id uuid.UUID) (AccessRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return AccessRecord{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rows[id]
	if row == nil {
		return AccessRecord{}, false, nil
	}
	return AccessRecord{
		UserID:      row.userID,
		AccessToken: append([]byte(nil), row.accessToken...),
		ExpiresAt:   row.accessExpiresAt,
	}, true, nil
}

// RefreshRecord loads refresh-token material for one session.
func (s *MemoryStore) RefreshRecord(ctx context.Context, id uuid.UUID) (RefreshRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return RefreshRecord{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rows[id]
	if row == nil {
		return RefreshRecord{}, false, nil
	}
	return RefreshRecord{
		UserID:       row.userID,
		RefreshToken: append([]byte(nil), row.refreshToken...),
		ExpiresAt:    row.refreshExpiresAt,
		Counter:      row.refreshCounter,
	}, true, nil
}

// UpdateTokens rotates both tokens if the counter is untouched.
func (s *MemoryStore) UpdateTokens(ctx context.Context, in UpdateInput) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rows[in.SessionID]
	if row == nil || row.refreshCounter != in.ExpectedCounter {
		return false, nil
	}
	row.refreshToken = append([]byte(nil), in.RefreshToken...)
	row.refreshExpiresAt = in.RefreshExpiresAt
	row.refreshCounter++
	row.accessToken = append([]byte(nil), in.AccessToken...)
	row.accessExpiresAt = in.AccessExpiresAt
	row.lastSeenAt = in.Now
	return true, nil
}

// Remove deletes one session. Absent ids are a no-op.
func (s *MemoryStore) Remove(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, id)
	return nil
}

// TrimForUser drops sessions past the per-user cap.
func (s *MemoryStore) TrimForUser(ctx context.Context, userID identity.UserID, max int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trimLocked(userID, max)
	return nil
}

// CountForUser reports the user's live session count. Test helper.
func (s *MemoryStore) CountForUser(userID identity.UserID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.rows {
		if row.userID == userID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) trimLocked(userID identity.UserID, max int) {
	var owned []*memSession
	for _, row := range s.rows {
		if row.userID == userID {
			owned = append(owned, row)
		}
	}
	if len(owned) <= max {
		return
	}
	// Keep the sessions with the latest access expiration.
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].accessExpiresAt.Equal(owned[j].accessExpiresAt) {
			return owned[i].accessExpiresAt.After(owned[j].accessExpiresAt)
		}
		return owned[i].id.String() > owned[j].id.String()
	})
	for _, row := range owned[max:] {
		delete(s.rows, row.id)
	}
}
