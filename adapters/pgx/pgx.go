// Package pgx persists users and pending one-time secrets in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
//	    full_name      TEXT NOT NULL,
//	    email          TEXT NOT NULL UNIQUE,
//	    password_hash  TEXT NOT NULL,
//	    photo          TEXT,
//	    role           TEXT NOT NULL DEFAULT 'member',
//	    email_verified BOOLEAN NOT NULL DEFAULT false,
//	    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE auth_artifacts (
//	    user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
//	    purpose     TEXT NOT NULL,
//	    secret_hash TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    expires_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (user_id, purpose)
//	);
//	CREATE INDEX auth_artifacts_secret_hash_idx ON auth_artifacts (secret_hash);
//
// The unique email index and the (user_id, purpose) primary key carry the
// concurrency guarantees: duplicate registrations and concurrent re-issues
// are resolved by the database, not by check-then-act in the service.
package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/vouch"
)

type Adapter struct {
	pool *pgxpool.Pool
}

var _ vouch.AuthStorage = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}
