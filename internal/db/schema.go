package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// seq conserva el orden de insercion, que es el orden de FindByPhone.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		seq BIGSERIAL UNIQUE,
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		messages JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT conversations_phone_digits CHECK (phone ~ '^[0-9]*$')
	)`,
	`CREATE INDEX IF NOT EXISTS conversations_phone_idx ON conversations (phone)`,
	`CREATE INDEX IF NOT EXISTS conversations_session_idx ON conversations (session_id)`,
	`CREATE TABLE IF NOT EXISTS info_users (
		id TEXT PRIMARY KEY,
		name TEXT,
		phone TEXT NOT NULL DEFAULT '',
		data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema crea las tablas si no existen. Es idempotente.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
