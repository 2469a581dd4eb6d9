package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS research_cache (
		key TEXT PRIMARY KEY,
		doctor TEXT NOT NULL,
		specialty TEXT,
		location TEXT,
		depth TEXT,
		result_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_research_cache_expires ON research_cache(expires_at);`,
	`CREATE TABLE IF NOT EXISTS research_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		research_id TEXT NOT NULL,
		doctor TEXT NOT NULL,
		specialty TEXT,
		location TEXT,
		status INTEGER NOT NULL,
		confidence INTEGER,
		provider TEXT,
		model TEXT,
		from_cache INTEGER NOT NULL DEFAULT 0,
		requested_at INTEGER NOT NULL,
		resolved_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_research_history_doctor ON research_history(doctor);`,
	`CREATE INDEX IF NOT EXISTS idx_research_history_resolved ON research_history(resolved_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}
	return nil
}
