package chat

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the db-less Store used when no database is configured,
// and by service-level tests.
type MemoryStore struct {
	mu         sync.Mutex
	nextChatID ChatID
	nextMsgID  MessageID
	chats      map[ChatID]*memChat
}

type memChat struct {
	id      ChatID
	kind    Kind
	members map[int32]Role
	msgs    []Message
}

// NewMemoryStore constructs an empty in-memory chat store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[ChatID]*memChat)}
}

func (s *MemoryStore) createChatLocked(kind Kind) *memChat {
	s.nextChatID++
	c := &memChat{
		id:      s.nextChatID,
		kind:    kind,
		members: make(map[int32]Role),
	}
	s.chats[c.id] = c
	return c
}

// CreateWithSelfChat inserts a with_self chat owned by userID.
func (s *MemoryStore) CreateWithSelfChat(ctx context.Context, userID int32, _ time.Time) (ChatID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.createChatLocked(KindWithSelf)
	c.members[userID] = RoleOwner
	return c.id, nil
}

// CreatePrivateChat inserts a private chat with both users as members.
func (s *MemoryStore) CreatePrivateChat(ctx context.Context, _ time.Time, caller, recipient int32) (ChatID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.createChatLocked(KindPrivate)
	c.members[caller] = RoleMember
	c.members[recipient] = RoleMember
	return c.id, nil
}

// PrivateChatExists checks for a chat shared by two distinct users.
func (s *MemoryStore) PrivateChatExists(ctx context.Context, userA, userB int32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if userA == userB {
		return false, nil
	}
	for _, c := range s.chats {
		if _, okA := c.members[userA]; !okA {
			continue
		}
		if _, okB := c.members[userB]; okB {
			return true, nil
		}
	}
	return false, nil
}

// IsMember checks membership.
func (s *MemoryStore) IsMember(ctx context.Context, chatID ChatID, userID int32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chats[chatID]
	if c == nil {
		return false, nil
	}
	_, ok := c.members[userID]
	return ok, nil
}

// CreateMessage appends a message to a chat.
func (s *MemoryStore) CreateMessage(ctx context.Context, in CreateMessageInput) (MessageID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chats[in.ChatID]
	if c == nil {
		return 0, ErrChatGone
	}

	s.nextMsgID++
	text := in.Text
	userID := in.UserID
	c.msgs = append(c.msgs, Message{
		ID:        s.nextMsgID,
		Text:      &text,
		CreatedAt: in.Now,
		UserID:    &userID,
	})
	return s.nextMsgID, nil
}

// ListChats lists the chats a user is a member of, ordered by chat id.
func (s *MemoryStore) ListChats(ctx context.Context, in ListChatsInput) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var all []Summary
	for id := ChatID(1); id <= s.nextChatID; id++ {
		c := s.chats[id]
		if c == nil {
			continue
		}
		if _, ok := c.members[in.UserID]; !ok {
			continue
		}
		all = append(all, Summary{ID: c.id, Kind: c.kind})
	}
	return pageSlice(all, in.PageSize, in.Page), nil
}

// ListMessages lists a chat's messages ordered by message id.
func (s *MemoryStore) ListMessages(ctx context.Context, in ListMessagesInput) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chats[in.ChatID]
	if c == nil {
		return nil, nil
	}
	return pageSlice(c.msgs, in.PageSize, in.Page), nil
}

func pageSlice[T any](all []T, pageSize, page int32) []T {
	if pageSize <= 0 || page <= 0 {
		return nil
	}
	start := int(page-1) * int(pageSize)
	if start >= len(all) {
		return nil
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	out := make([]T, end-start)
	copy(out, all[start:end])
	return out
}
