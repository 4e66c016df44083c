package chat

// ChatID is a database-assigned chat identifier.
type ChatID = int64

// MessageID is a database-assigned message identifier.
type MessageID = int64

// Kind is the chat kind enum (chat_kind on the relational side).
type Kind string

const (
	KindWithSelf Kind = "with_self"
	KindPrivate  Kind = "private"
	KindGroup    Kind = "group"
	KindChannel  Kind = "channel"
)

// Role is the per-chat membership role enum (chat_role on the relational side).
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)
