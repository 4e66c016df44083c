// Package chat implements walrus's chat and membership operations.
//
// Authorization here is purely membership-based: a caller who is not a
// member of a chat cannot distinguish it from a chat that does not exist.
package chat

import (
	"context"
	"log/slog"
	"time"

	"walrus/cmd/internal/validate"
)

// AliasResolver resolves a user alias to a user id. A missing alias yields
// ok=false, not an error.
type AliasResolver interface {
	UserIDByAlias(ctx context.Context, alias string) (int32, bool, error)
}

// Service implements the high-level chat operations.
type Service struct {
	log   *slog.Logger
	store Store
	users AliasResolver
}

// NewService constructs a chat Service.
func NewService(log *slog.Logger, store Store, users AliasResolver) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log, store: store, users: users}
}

// CreatePrivateChat creates a private chat between the caller and the user
// behind recipientAlias.
//
// Uniqueness is symmetric: if any chat already has both (distinct) users as
// members, the call fails with validate.ErrAlreadyExists regardless of which
// side created it first.
func (s *Service) CreatePrivateChat(ctx context.Context, now time.Time, caller int32, recipientAlias string) (ChatID, error) {
	recipient, ok, err := s.users.UserIDByAlias(ctx, recipientAlias)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, validate.ErrNotFound
	}
	if recipient == caller {
		return 0, validate.InvalidInputError{
			Value:  recipientAlias,
			Reason: "cannot create a private chat with yourself",
		}
	}

	exists, err := s.store.PrivateChatExists(ctx, caller, recipient)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, validate.ErrAlreadyExists
	}

	chatID, err := s.store.CreatePrivateChat(ctx, now, caller, recipient)
	if err != nil {
		return 0, err
	}
	s.log.Info("chat.private.created", "chat_id", chatID)
	return chatID, nil
}

// IsMember reports whether userID is a member of chatID.
func (s *Service) IsMember(ctx context.Context, chatID ChatID, userID int32) (bool, error) {
	return s.store.IsMember(ctx, chatID, userID)
}

// SendMessage posts a message to a chat on behalf of caller.
//
// A non-member gets validate.ErrNotFound without learning whether the chat
// exists.
func (s *Service) SendMessage(ctx context.Context, now time.Time, caller int32, chatID ChatID, text string) (MessageID, error) {
	if err := validate.MessageText(text); err != nil {
		return 0, err
	}

	member, err := s.store.IsMember(ctx, chatID, caller)
	if err != nil {
		return 0, err
	}
	if !member {
		s.log.Info("chat.message.denied", "chat_id", chatID)
		return 0, validate.ErrNotFound
	}

	return s.store.CreateMessage(ctx, CreateMessageInput{
		ChatID: chatID,
		UserID: caller,
		Text:   text,
		Now:    now,
	})
}

// ListChats pages over the caller's chats.
func (s *Service) ListChats(ctx context.Context, caller int32, pageSize, page int32) ([]Summary, error) {
	size, err := listingPageSize(pageSize)
	if err != nil {
		return nil, err
	}
	return s.store.ListChats(ctx, ListChatsInput{
		UserID:   caller,
		PageSize: size,
		Page:     clampPage(page),
	})
}

// ListMessages pages over a chat's messages, membership-gated like
// SendMessage.
func (s *Service) ListMessages(ctx context.Context, caller int32, chatID ChatID, pageSize, page int32) ([]Message, error) {
	member, err := s.store.IsMember(ctx, chatID, caller)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, validate.ErrNotFound
	}

	size, err := listingPageSize(pageSize)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, ListMessagesInput{
		ChatID:   chatID,
		PageSize: size,
		Page:     clampPage(page),
	})
}

// listingPageSize validates the requested page size. Zero or negative
// means the default; past the cap the request fails.
func listingPageSize(n int32) (int32, error) {
	if n <= 0 {
		return DefaultListingElements, nil
	}
	if n > MaxListingElements {
		return 0, validate.LimitExceededError{
			Subject:   "page_size",
			Unit:      "element",
			Attempted: int(n),
			Limit:     MaxListingElements,
		}
	}
	return n, nil
}

func clampPage(n int32) int32 {
	if n <= 0 {
		return 1
	}
	return n
}
