package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"walrus/cmd/internal/chat"
	"walrus/cmd/internal/validate"
)

// PostgresStore implements Store over the users table.
//
// The pgx pool is owned by the caller; this store must not close it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateUserWithSelfChat inserts the user and its with_self chat
// transactionally.
func (s *PostgresStore) CreateUserWithSelfChat(ctx context.Context, in CreateUserInput) (UserID, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID UserID
	err = tx.QueryRow(ctx, `
		INSERT INTO users (alias, display_name, password_salt, password_hash, role, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, in.Alias, in.DisplayName, in.Salt, in.Hash, string(in.Role), in.InvitedBy, in.Now).Scan(&userID)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return 0, validate.InvalidInputError{Value: in.Alias, Reason: "alias is already taken"}
		}
		return 0, err
	}

	if _, err := chat.CreateWithSelfChatTx(ctx, tx, userID, in.Now); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return userID, nil
}

// UserRole fetches the role of an existing user.
func (s *PostgresStore) UserRole(ctx context.Context, id UserID) (Role, error) {
	var role Role
	err := s.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", validate.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// CredentialsByAlias fetches password-check material for an alias.
func (s *PostgresStore) CredentialsByAlias(ctx context.Context, alias string) (Credentials, bool, error) {
	var c Credentials
	err := s.pool.QueryRow(ctx, `
		SELECT id, password_salt, password_hash FROM users WHERE alias = $1
	`, alias).Scan(&c.UserID, &c.Salt, &c.Hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, err
	}
	return c, true, nil
}

// UserIDByAlias resolves an alias to a user id.
func (s *PostgresStore) UserIDByAlias(ctx context.Context, alias string) (UserID, bool, error) {
	var id UserID
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE alias = $1`, alias).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
