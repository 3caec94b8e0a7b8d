package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

const diffColumns = `id, policy_id, old_snapshot_id, new_snapshot_id, diff_text, diff_html,
	clauses_added, clauses_removed, clauses_modified,
	summary, severity, severity_score, key_changes, recommendation,
	notification_sent, notified_at, created_at`

// InsertDiff persists one snapshot comparison and returns its id.
// Inserting the same (old, new) snapshot pair twice returns
// ErrDuplicateDiff.
func (s *Store) InsertDiff(ctx context.Context, d monitor.Diff) (int64, error) {
	added, err := marshalClauses(d.ClausesAdded)
	if err != nil {
		return 0, err
	}
	removed, err := marshalClauses(d.ClausesRemoved)
	if err != nil {
		return 0, err
	}
	modified, err := marshalClauses(d.ClausesModified)
	if err != nil {
		return 0, err
	}
	keyChanges, err := json.Marshal(d.KeyChanges)
	if err != nil {
		return 0, fmt.Errorf("marshal key changes: %w", err)
	}

	query := `
		INSERT INTO diffs (policy_id, old_snapshot_id, new_snapshot_id, diff_text, diff_html,
			clauses_added, clauses_removed, clauses_modified,
			summary, severity, severity_score, key_changes, recommendation,
			notification_sent, notified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	var id int64
	err = s.pool.QueryRow(ctx, query,
		d.PolicyID,
		d.OldSnapshotID,
		d.NewSnapshotID,
		d.DiffText,
		d.DiffHTML,
		added,
		removed,
		modified,
		d.Summary,
		d.Severity,
		d.SeverityScore,
		keyChanges,
		d.Recommendation,
		d.NotificationSent,
		d.NotifiedAt,
		d.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: snapshots %d -> %d",
				monitor.ErrDuplicateDiff, d.OldSnapshotID, d.NewSnapshotID)
		}
		return 0, fmt.Errorf("insert diff: %w", err)
	}
	return id, nil
}

// DiffBySnapshots looks up the diff for one (old, new) snapshot pair.
func (s *Store) DiffBySnapshots(ctx context.Context, oldSnapshotID, newSnapshotID int64) (monitor.Diff, bool, error) {
	query := `
		SELECT ` + diffColumns + `
		FROM diffs
		WHERE old_snapshot_id = $1 AND new_snapshot_id = $2
		LIMIT 1
	`
	d, err := scanDiff(s.pool.QueryRow(ctx, query, oldSnapshotID, newSnapshotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return monitor.Diff{}, false, nil
		}
		return monitor.Diff{}, false, fmt.Errorf("diff by snapshots: %w", err)
	}
	return d, true, nil
}

// MarkNotified records the notification outcome on a diff.
func (s *Store) MarkNotified(ctx context.Context, diffID int64, ok bool, at time.Time) error {
	query := `UPDATE diffs SET notification_sent = $2, notified_at = $3 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, diffID, ok, at); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

func marshalClauses(clauses []monitor.ClauseChange) ([]byte, error) {
	if clauses == nil {
		clauses = []monitor.ClauseChange{}
	}
	data, err := json.Marshal(clauses)
	if err != nil {
		return nil, fmt.Errorf("marshal clauses: %w", err)
	}
	return data, nil
}

func scanDiff(row pgx.Row) (monitor.Diff, error) {
	var (
		d          monitor.Diff
		added      []byte
		removed    []byte
		modified   []byte
		keyChanges []byte
	)
	err := row.Scan(
		&d.ID,
		&d.PolicyID,
		&d.OldSnapshotID,
		&d.NewSnapshotID,
		&d.DiffText,
		&d.DiffHTML,
		&added,
		&removed,
		&modified,
		&d.Summary,
		&d.Severity,
		&d.SeverityScore,
		&keyChanges,
		&d.Recommendation,
		&d.NotificationSent,
		&d.NotifiedAt,
		&d.CreatedAt,
	)
	if err != nil {
		return monitor.Diff{}, err
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]monitor.ClauseChange
	}{
		{added, &d.ClausesAdded},
		{removed, &d.ClausesRemoved},
		{modified, &d.ClausesModified},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return monitor.Diff{}, fmt.Errorf("unmarshal clauses: %w", err)
			}
		}
	}
	if len(keyChanges) > 0 {
		if err := json.Unmarshal(keyChanges, &d.KeyChanges); err != nil {
			return monitor.Diff{}, fmt.Errorf("unmarshal key changes: %w", err)
		}
	}
	return d, nil
}
