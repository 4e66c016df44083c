package chat

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over the chats, chats_members and messages
// tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed chat store.
// The pool is owned by the caller.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateWithSelfChat inserts a with_self chat owned by userID.
func (s *PostgresStore) CreateWithSelfChat(ctx context.Context, userID int32, now time.Time) (ChatID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	chatID, err := CreateWithSelfChatTx(ctx, tx, userID, now)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return chatID, nil
}

// CreatePrivateChat inserts a private chat with both users as members.
func (s *PostgresStore) CreatePrivateChat(ctx context.Context, now time.Time, caller, recipient int32) (ChatID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	chatID, err := createChatTx(ctx, tx, KindPrivate, now)
	if err != nil {
		return 0, err
	}
	if err := addMemberTx(ctx, tx, chatID, caller, RoleMember); err != nil {
		return 0, err
	}
	if err := addMemberTx(ctx, tx, chatID, recipient, RoleMember); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return chatID, nil
}

// PrivateChatExists checks for a chat shared by two distinct users.
func (s *PostgresStore) PrivateChatExists(ctx context.Context, userA, userB int32) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM chats_members a
			JOIN chats_members b ON a.chat_id = b.chat_id AND a.user_id != b.user_id
			WHERE a.user_id = $1 AND b.user_id = $2
		)
	`, userA, userB).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// IsMember checks membership with a single existence query.
func (s *PostgresStore) IsMember(ctx context.Context, chatID ChatID, userID int32) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM chats_members WHERE chat_id = $1 AND user_id = $2)
	`, chatID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CreateMessage inserts a message row with a server-assigned created_at.
func (s *PostgresStore) CreateMessage(ctx context.Context, in CreateMessageInput) (MessageID, error) {
	var id MessageID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (chat_id, user_id, text, reply_to, resource_id, created_at)
		VALUES ($1, $2, $3, NULL, NULL, $4)
		RETURNING id
	`, in.ChatID, in.UserID, in.Text, in.Now).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListChats lists the chats a user is a member of, ordered by chat id.
func (s *PostgresStore) ListChats(ctx context.Context, in ListChatsInput) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chats.id, chats.display_name, chats.kind
		FROM chats_members
		JOIN chats ON chats_members.chat_id = chats.id
		WHERE chats_members.user_id = $1
		ORDER BY chats.id
		LIMIT $2 OFFSET ($3 - 1) * $2
	`, in.UserID, in.PageSize, in.Page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var c Summary
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Kind); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListMessages lists a chat's messages ordered by message id, joining the
// sender's display name when the sender still exists.
func (s *PostgresStore) ListMessages(ctx context.Context, in ListMessagesInput) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			messages.id, messages.text, messages.created_at, messages.edited_at,
			messages.user_id, users.display_name
		FROM messages
		LEFT JOIN users ON messages.user_id = users.id
		WHERE messages.chat_id = $1
		ORDER BY messages.id
		LIMIT $2 OFFSET ($3 - 1) * $2
	`, in.ChatID, in.PageSize, in.Page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Text, &m.CreatedAt, &m.EditedAt, &m.UserID, &m.UserDisplayName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---- transaction helpers ----
//
// The identity store runs user creation and self-chat creation in one
// transaction, so chat row insertion must compose with a caller-owned tx.

// CreateWithSelfChatTx inserts a with_self chat and its owner membership
// inside the caller's transaction.
func CreateWithSelfChatTx(ctx context.Context, tx pgx.Tx, userID int32, now time.Time) (ChatID, error) {
	chatID, err := createChatTx(ctx, tx, KindWithSelf, now)
	if err != nil {
		return 0, err
	}
	if err := addMemberTx(ctx, tx, chatID, userID, RoleOwner); err != nil {
		return 0, err
	}
	return chatID, nil
}

func createChatTx(ctx context.Context, tx pgx.Tx, kind Kind, now time.Time) (ChatID, error) {
	var id ChatID
	err := tx.QueryRow(ctx, `
		INSERT INTO chats (display_name, description, kind, created_at)
		VALUES (NULL, NULL, $1, $2)
		RETURNING id
	`, string(kind), now).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func addMemberTx(ctx context.Context, tx pgx.Tx, chatID ChatID, userID int32, role Role) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO chats_members (user_id, chat_id, role)
		VALUES ($1, $2, $3)
	`, userID, chatID, string(role))
	return err
}
