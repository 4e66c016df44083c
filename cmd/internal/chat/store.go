package chat

import (
	"context"
	"time"
)

const (
	// MaxListingElements is the hard upper bound for any listing page
	// size; requests past it are rejected, not clamped.
	MaxListingElements = 200

	// DefaultListingElements is the page size used when the caller does
	// not ask for one.
	DefaultListingElements = 100
)

// Summary is one row of a user's chat listing.
type Summary struct {
	ID          ChatID
	DisplayName *string
	Kind        Kind
}

// Message is one row of a chat's message listing.
type Message struct {
	ID              MessageID
	Text            *string
	CreatedAt       time.Time
	EditedAt        *time.Time
	UserID          *int32
	UserDisplayName *string
}

// CreateMessageInput describes a message insert. CreatedAt is server-assigned
// from Now.
type CreateMessageInput struct {
	ChatID ChatID
	UserID int32
	Text   string
	Now    time.Time
}

// ListChatsInput pages over the chats a user is a member of, ordered by
// chat id. Page is 1-based.
type ListChatsInput struct {
	UserID   int32
	PageSize int32
	Page     int32
}

// ListMessagesInput pages over a chat's messages, ordered by message id.
// Page is 1-based.
type ListMessagesInput struct {
	ChatID   ChatID
	PageSize int32
	Page     int32
}

// Store abstracts persistence for chats, memberships and messages.
//
// Multi-row creation ops (self chat, private chat) are transactional in
// implementations: a chat row is never observable without its memberships.
type Store interface {
	// CreateWithSelfChat inserts a with_self chat and an owner membership
	// for userID in one transaction.
	CreateWithSelfChat(ctx context.Context, userID int32, now time.Time) (ChatID, error)

	// CreatePrivateChat inserts a private chat and member rows for both
	// users in one transaction. It does not check for prior existence.
	CreatePrivateChat(ctx context.Context, now time.Time, caller, recipient int32) (ChatID, error)

	// PrivateChatExists reports whether a chat exists where both distinct
	// users are members. The check is symmetric in its arguments.
	PrivateChatExists(ctx context.Context, userA, userB int32) (bool, error)

	// IsMember reports whether userID is a member of chatID.
	IsMember(ctx context.Context, chatID ChatID, userID int32) (bool, error)

	// CreateMessage inserts a message row.
	CreateMessage(ctx context.Context, in CreateMessageInput) (MessageID, error)

	ListChats(ctx context.Context, in ListChatsInput) ([]Summary, error)
	ListMessages(ctx context.Context, in ListMessagesInput) ([]Message, error)
}
