package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"walrus/cmd/identity"
)

// PostgresStore implements Store over the sessions table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts the session row and trims the user's oldest sessions in
// the same transaction.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return uuid.Nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (
			id, user_id, ip, device_name, os_version, app_version,
			refresh_token, refresh_token_expires_at, refresh_counter,
			access_token, access_token_expires_at,
			first_seen_at, last_seen_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10, $11, $11)
	`, id, in.UserID, in.IP, in.Device, in.OS, in.App,
		in.RefreshToken, in.RefreshExpiresAt,
		in.AccessToken, in.AccessExpiresAt, in.Now)
	if err != nil {
		return uuid.Nil, err
	}

	if err := trimForUserTx(ctx, tx, in.UserID, in.MaxSessions); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// AccessRecord loads access-token material for one session.
func (s *PostgresStore) AccessRecord(ctx context.Context, id uuid.UUID) (AccessRecord, bool, error) {
	var r AccessRecord
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, access_token, access_token_expires_at
		FROM sessions WHERE id = $1
	`, id).Scan(&r.UserID, &r.AccessToken, &r.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AccessRecord{}, false, nil
	}
	if err != nil {
		return AccessRecord{}, false, err
	}
	return r, true, nil
}

// RefreshRecord loads refresh-token material for one session.
func (s *PostgresStore) RefreshRecord(ctx context.Context, id uuid.UUID) (RefreshRecord, bool, error) {
	var r RefreshRecord
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, refresh_token, refresh_token_expires_at, refresh_counter
		FROM sessions WHERE id = $1
	`, id).Scan(&r.UserID, &r.RefreshToken, &r.ExpiresAt, &r.Counter)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshRecord{}, false, nil
	}
	if err != nil {
		return RefreshRecord{}, false, err
	}
	return r, true, nil
}

// UpdateTokens rotates both tokens if the refresh counter is untouched.
// The conditional UPDATE is the whole race arbiter: the row version the
// loser read no longer exists, so its write matches zero rows.
func (s *PostgresStore) UpdateTokens(ctx context.Context, in UpdateInput) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET
			refresh_token = $3,
			refresh_token_expires_at = $4,
			refresh_counter = refresh_counter + 1,
			access_token = $5,
			access_token_expires_at = $6,
			last_seen_at = $7
		WHERE id = $1 AND refresh_counter = $2
	`, in.SessionID, in.ExpectedCounter,
		in.RefreshToken, in.RefreshExpiresAt,
		in.AccessToken, in.AccessExpiresAt, in.Now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes one session. Absent ids are a no-op.
func (s *PostgresStore) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// TrimForUser drops sessions past the per-user cap outside a login.
func (s *PostgresStore) TrimForUser(ctx context.Context, userID identity.UserID, max int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := trimForUserTx(ctx, tx, userID, max); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// trimForUserTx keeps the max sessions with the latest access expiration,
// breaking ties by id so the survivor set is deterministic.
func trimForUserTx(ctx context.Context, tx pgx.Tx, userID identity.UserID, max int) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM sessions
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM sessions
			WHERE user_id = $1
			ORDER BY access_token_expires_at DESC, id DESC
			LIMIT $2
		)
	`, userID, max)
	return err
}
