package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

const snapshotColumns = `id, policy_id, content_text, content_hash, content_length, discovered_links, captured_at, is_seed`

// InsertSnapshot persists one capture and returns its id. Inserting the
// same (policy, content hash) pair twice returns ErrDuplicateSnapshot.
func (s *Store) InsertSnapshot(ctx context.Context, snap monitor.Snapshot) (int64, error) {
	links, err := json.Marshal(snap.DiscoveredLinks)
	if err != nil {
		return 0, fmt.Errorf("marshal discovered links: %w", err)
	}

	query := `
		INSERT INTO snapshots (policy_id, content_text, content_hash, content_length, discovered_links, captured_at, is_seed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err = s.pool.QueryRow(ctx, query,
		snap.PolicyID,
		snap.Text,
		snap.ContentHash,
		snap.ContentLength,
		links,
		snap.CapturedAt,
		snap.Seed,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: policy %d hash %s", monitor.ErrDuplicateSnapshot, snap.PolicyID, snap.ContentHash)
		}
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent capture of a policy. The second
// return value is false when the policy has no snapshots yet.
func (s *Store) LatestSnapshot(ctx context.Context, policyID int64) (monitor.Snapshot, bool, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE policy_id = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`
	snap, err := s.scanSnapshot(s.pool.QueryRow(ctx, query, policyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return monitor.Snapshot{}, false, nil
		}
		return monitor.Snapshot{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, true, nil
}

// SnapshotByHash looks up a capture by its content hash within one policy.
func (s *Store) SnapshotByHash(ctx context.Context, policyID int64, hash string) (monitor.Snapshot, bool, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE policy_id = $1 AND content_hash = $2
		LIMIT 1
	`
	snap, err := s.scanSnapshot(s.pool.QueryRow(ctx, query, policyID, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return monitor.Snapshot{}, false, nil
		}
		return monitor.Snapshot{}, false, fmt.Errorf("snapshot by hash: %w", err)
	}
	return snap, true, nil
}

func (s *Store) scanSnapshot(row pgx.Row) (monitor.Snapshot, error) {
	var (
		snap  monitor.Snapshot
		links []byte
	)
	err := row.Scan(
		&snap.ID,
		&snap.PolicyID,
		&snap.Text,
		&snap.ContentHash,
		&snap.ContentLength,
		&links,
		&snap.CapturedAt,
		&snap.Seed,
	)
	if err != nil {
		return monitor.Snapshot{}, err
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &snap.DiscoveredLinks); err != nil {
			return monitor.Snapshot{}, fmt.Errorf("unmarshal discovered links: %w", err)
		}
	}
	return snap, nil
}
