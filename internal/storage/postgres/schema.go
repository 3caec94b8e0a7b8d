package postgres

import (
	"context"
	"fmt"
)

// Schema DDL. Idempotent so EnsureSchema can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS policies (
	id                   BIGSERIAL PRIMARY KEY,
	owner_id             BIGINT,
	name                 TEXT NOT NULL,
	company              TEXT NOT NULL,
	url                  TEXT NOT NULL,
	policy_type          TEXT NOT NULL DEFAULT 'privacy_policy',
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	check_interval_hours INTEGER NOT NULL DEFAULT 24,
	next_check_at        TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT uq_policy_url_owner UNIQUE (url, owner_id)
)`,
	`CREATE INDEX IF NOT EXISTS ix_policies_active ON policies (is_active)`,

	`CREATE TABLE IF NOT EXISTS snapshots (
	id               BIGSERIAL PRIMARY KEY,
	policy_id        BIGINT NOT NULL REFERENCES policies (id),
	content_text     TEXT NOT NULL,
	content_hash     VARCHAR(64) NOT NULL,
	content_length   INTEGER NOT NULL DEFAULT 0,
	discovered_links JSONB,
	captured_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_seed          BOOLEAN NOT NULL DEFAULT FALSE,
	CONSTRAINT uq_snapshot_policy_hash UNIQUE (policy_id, content_hash)
)`,
	`CREATE INDEX IF NOT EXISTS ix_snapshots_policy_captured ON snapshots (policy_id, captured_at)`,

	`CREATE TABLE IF NOT EXISTS diffs (
	id                BIGSERIAL PRIMARY KEY,
	policy_id         BIGINT NOT NULL REFERENCES policies (id),
	old_snapshot_id   BIGINT NOT NULL REFERENCES snapshots (id),
	new_snapshot_id   BIGINT NOT NULL REFERENCES snapshots (id),
	diff_text         TEXT,
	diff_html         TEXT,
	clauses_added     JSONB,
	clauses_removed   JSONB,
	clauses_modified  JSONB,
	summary           TEXT,
	severity          VARCHAR(20) NOT NULL DEFAULT 'informational',
	severity_score    DOUBLE PRECISION NOT NULL DEFAULT 0.0,
	key_changes       JSONB,
	recommendation    TEXT,
	notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
	notified_at       TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT uq_diff_snapshots UNIQUE (old_snapshot_id, new_snapshot_id)
)`,
	`CREATE INDEX IF NOT EXISTS ix_diffs_policy_created ON diffs (policy_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS ix_diffs_severity ON diffs (severity)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
