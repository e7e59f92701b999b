package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables this service needs if they are missing.
// The unique constraint on users.email is what turns the concurrent
// register race into a clean duplicate-email failure at insert time.
// post_likes keys on (post_id, user_id) so liking is add-if-absent and
// unliking is remove-if-present without any application-level locking.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS post_likes (
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (post_id, user_id)
		)`,
	}

	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)

		if err != nil {
			return err
		}
	}

	return nil
}
