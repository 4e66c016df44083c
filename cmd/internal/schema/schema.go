// Package schema installs and removes the relational schema. Production
// deployments run Init once against a fresh database; integration tests
// use Init and Drop around each suite.
package schema

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"walrus/cmd/security/password"
)

var createTypes = []string{
	`CREATE TYPE user_role AS ENUM ('admin', 'regular');`,
	`CREATE TYPE chat_kind AS ENUM ('with_self', 'private', 'group', 'channel');`,
	`CREATE TYPE chat_role AS ENUM ('owner', 'moderator', 'member');`,
}

var dropTypes = []string{
	`DROP TYPE IF EXISTS chat_role;`,
	`DROP TYPE IF EXISTS chat_kind;`,
	`DROP TYPE IF EXISTS user_role;`,
}

var createTables = []string{
	`CREATE TABLE users (
		id               int PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		alias            VARCHAR(30) NOT NULL UNIQUE,
		display_name     VARCHAR(30) NOT NULL,
		password_salt    BYTEA NOT NULL,
		password_hash    BYTEA NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		role             user_role NOT NULL,
		bio              VARCHAR(255),
		invited_by       int REFERENCES users(id) ON UPDATE CASCADE ON DELETE SET NULL
	);`,
	`CREATE TABLE chats (
		id              bigint PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		display_name    VARCHAR(50),
		description     VARCHAR(255),
		kind            chat_kind NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE sessions (
		id              uuid PRIMARY KEY,
		user_id         int NOT NULL REFERENCES users(id) ON UPDATE CASCADE ON DELETE CASCADE,
		ip              inet NOT NULL,
		first_seen_at   TIMESTAMPTZ NOT NULL,
		last_seen_at    TIMESTAMPTZ NOT NULL,
		device_name     VARCHAR(100),
		os_version      VARCHAR(100),
		app_version     VARCHAR(100),
		refresh_token             BYTEA NOT NULL,
		refresh_token_expires_at  TIMESTAMPTZ NOT NULL,
		access_token              BYTEA NOT NULL,
		access_token_expires_at   TIMESTAMPTZ NOT NULL,
		refresh_counter           int NOT NULL
	);`,
	`CREATE TABLE chats_members (
		chat_id   bigint NOT NULL REFERENCES chats(id) ON UPDATE CASCADE ON DELETE CASCADE,
		user_id   int NOT NULL REFERENCES users(id) ON UPDATE CASCADE ON DELETE CASCADE,
		role      chat_role NOT NULL,
		CONSTRAINT chat_user_pkey PRIMARY KEY (user_id, chat_id)
	);`,
	`CREATE TABLE resources (
		id                      bigint PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		uploaded_by_user_id     INTEGER NOT NULL REFERENCES users(id) ON UPDATE CASCADE ON DELETE SET NULL,
		url                     VARCHAR(255) NOT NULL
	);`,
	`CREATE TABLE messages (
		id           bigint PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		chat_id      bigint NOT NULL REFERENCES chats(id) ON UPDATE CASCADE ON DELETE CASCADE,
		user_id      int REFERENCES users(id) ON UPDATE CASCADE ON DELETE SET NULL,
		text         VARCHAR(4096),
		reply_to     bigint REFERENCES messages(id) ON UPDATE CASCADE ON DELETE SET NULL,
		resource_id  bigint REFERENCES resources(id) ON UPDATE CASCADE ON DELETE NO ACTION,
		created_at   TIMESTAMPTZ NOT NULL,
		edited_at    TIMESTAMPTZ
	);`,
}

var dropTables = []string{
	`DROP TABLE IF EXISTS messages;`,
	`DROP TABLE IF EXISTS resources;`,
	`DROP TABLE IF EXISTS chats_members;`,
	`DROP TABLE IF EXISTS sessions;`,
	`DROP TABLE IF EXISTS chats;`,
	`DROP TABLE IF EXISTS users;`,
}

// Origin account seeded at installation. The password must be changed
// right after the first login.
const (
	OriginAlias       = "origin"
	OriginDisplayName = "Origin User"
	OriginPassword    = "changepassword"
)

// Init creates the enum types, the tables and the origin admin in one
// transaction.
func Init(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range createTypes {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	for _, stmt := range createTables {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	salt, err := password.NewSalt()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (alias, display_name, password_salt, password_hash, role, invited_by, created_at)
		VALUES ($1, $2, $3, $4, 'admin', NULL, now())
	`, OriginAlias, OriginDisplayName, salt, password.Hash(OriginPassword, salt))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Drop removes the tables and enum types.
func Drop(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range dropTables {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	for _, stmt := range dropTypes {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
