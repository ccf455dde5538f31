package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the content tables if they do not exist yet. The
// service owns its schema the same way the original deployment did, so a
// fresh database needs no separate migration step.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ai_content_profiles (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			tone TEXT,
			voice TEXT,
			target_platform TEXT,
			guidelines TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ai_content_jobs (
			id SERIAL PRIMARY KEY,
			profile_id INTEGER REFERENCES ai_content_profiles(id),
			title TEXT,
			keywords TEXT,
			content_type TEXT,
			brief TEXT,
			extra TEXT,
			generated_content TEXT,
			status TEXT DEFAULT 'draft',
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ai_content_schedules (
			id SERIAL PRIMARY KEY,
			job_id INTEGER REFERENCES ai_content_jobs(id),
			platform TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			publish_at TIMESTAMPTZ NOT NULL,
			metadata JSONB DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		)`,
		// the dispatcher polls on (status, publish_at)
		`CREATE INDEX IF NOT EXISTS idx_ai_content_schedules_due
			ON ai_content_schedules (status, publish_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
