package repository

import (
	"database/sql"
	"fmt"
)

// RunMigrations applies the schema at boot. Statements are idempotent so a
// restart against an existing database is a no-op.
func RunMigrations(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			owner_id BIGINT NOT NULL REFERENCES users(id),
			settings JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS project_members (
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role TEXT NOT NULL DEFAULT 'member',
			PRIMARY KEY (project_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS social_networks (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			logo_url TEXT,
			publishing_webhook_url TEXT,
			generation_webhook_url TEXT,
			default_publish_time TEXT,
			default_prompt TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS content_plans (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name TEXT,
			prompt TEXT,
			dates JSONB NOT NULL DEFAULT '[]'::jsonb,
			platforms JSONB NOT NULL DEFAULT '[]'::jsonb,
			color TEXT,
			generated BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			social_network_id BIGINT NOT NULL REFERENCES social_networks(id) ON DELETE CASCADE,
			content_plan_id BIGINT REFERENCES content_plans(id) ON DELETE SET NULL,
			publish_at TIMESTAMPTZ NOT NULL,
			text_content TEXT,
			media_files JSONB,
			tags JSONB,
			status TEXT NOT NULL DEFAULT 'draft',
			publish_attempts INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_status_publish_at ON posts (status, publish_at)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_plan_network ON posts (content_plan_id, social_network_id)`,
		`CREATE TABLE IF NOT EXISTS uploads (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT REFERENCES projects(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			filepath TEXT NOT NULL,
			file_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
