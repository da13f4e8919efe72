// Package database owns the service's schema bootstrap.
package database

import (
	"context"

	"github.com/Adam044/ProFormance/internal/gateway"
)

// bootstrapStatements create the tables the service needs. They are
// idempotent; running them against an existing database is a no-op.
var bootstrapStatements = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		phone TEXT,
		gender TEXT,
		dob DATE,
		access_code TEXT,
		primary_issue TEXT,
		status TEXT,
		active BOOLEAN DEFAULT TRUE,
		visit_mode TEXT,
		athletic BOOLEAN,
		athletic_type TEXT,
		athletic_position TEXT,
		occupation TEXT,
		medication TEXT,
		medication_note TEXT,
		prev_injury_location TEXT,
		prev_injury_year INT,
		prev_injury_note TEXT,
		training_load_days INT,
		sudden_load_changes TEXT,
		sleep_hours INT,
		last_updated TIMESTAMPTZ,
		next_session TIMESTAMPTZ,
		body_map JSONB DEFAULT '{}'::jsonb
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		client_id UUID REFERENCES clients(id) ON DELETE CASCADE,
		date TIMESTAMPTZ,
		title TEXT,
		note TEXT,
		type TEXT,
		progress INT,
		payment_status TEXT,
		currency TEXT,
		payment_type TEXT,
		amount NUMERIC,
		body_map JSONB DEFAULT '{}'::jsonb
	)`,

	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id UUID PRIMARY KEY,
		user_id UUID REFERENCES clients(id) ON DELETE CASCADE,
		role TEXT,
		token_hash TEXT UNIQUE NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
		session_id UUID REFERENCES sessions(id) ON DELETE SET NULL,
		date TIMESTAMPTZ DEFAULT NOW(),
		amount NUMERIC NOT NULL,
		currency TEXT,
		status TEXT,
		method TEXT,
		reference TEXT,
		note TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	)`,
}

// Init creates the schema through the gateway. It is called best-effort
// at boot: when the database is down the service still starts and the
// gateway reconnects lazily on the first query.
func Init(ctx context.Context, g *gateway.Gateway) error {
	for _, stmt := range bootstrapStatements {
		if _, err := g.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
