// internal/store/migrate.go
package store

import (
	"context"
	"fmt"

	"bizpilot/internal/common/database"
)

func (s *Store) migrations() []string {
	doc := "TEXT"
	if s.driver == database.DriverPostgres {
		doc = "JSONB"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			doc           %s NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`, doc),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ideas (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category   TEXT NOT NULL,
			budget     TEXT NOT NULL,
			status     TEXT NOT NULL,
			doc        %s NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, doc),
		`CREATE INDEX IF NOT EXISTS idx_ideas_user_created ON ideas (user_id, created_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plans (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			type       TEXT NOT NULL,
			status     TEXT NOT NULL,
			doc        %s NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, doc),
		`CREATE INDEX IF NOT EXISTS idx_plans_user_created ON plans (user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_idea ON plans (idea_id)`,
	}
}

// Migrate creates the schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range s.migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
