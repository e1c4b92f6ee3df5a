package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix nanoseconds so both dialects round-trip them exactly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		review_tiers INTEGER NOT NULL,
		state TEXT NOT NULL,
		rejection_reason TEXT,
		rejecting_tier TEXT NOT NULL DEFAULT '',
		tier1_reviewer_id TEXT NOT NULL DEFAULT '',
		tier2_reviewer_id TEXT NOT NULL DEFAULT '',
		latest_outcome_id TEXT NOT NULL DEFAULT '',
		submitted_at BIGINT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		version BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS artifacts_state_idx ON artifacts (state)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		id TEXT PRIMARY KEY,
		artifact_id TEXT NOT NULL,
		lifecycle TEXT NOT NULL,
		confidence DOUBLE PRECISION,
		narrative TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		completed_at BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS outcomes_artifact_idx ON outcomes (artifact_id)`,
	`CREATE TABLE IF NOT EXISTS details (
		id TEXT PRIMARY KEY,
		artifact_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS details_artifact_idx ON details (artifact_id, position)`,
}

// Migrate creates the tables when they do not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, statement := range schema {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
