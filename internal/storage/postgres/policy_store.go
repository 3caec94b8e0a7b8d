package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

const policyColumns = `id, owner_id, name, company, url, policy_type, is_active, check_interval_hours, next_check_at, created_at`

// InsertPolicy creates a policy row and returns its id.
func (s *Store) InsertPolicy(ctx context.Context, p monitor.Policy) (int64, error) {
	query := `
		INSERT INTO policies (owner_id, name, company, url, policy_type, is_active, check_interval_hours, next_check_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		p.OwnerID,
		p.Name,
		p.Company,
		p.URL,
		p.PolicyType,
		p.Active,
		int(p.CheckInterval/time.Hour),
		p.NextCheckAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert policy: %w", err)
	}
	return id, nil
}

// ListActive returns active policies, optionally scoped to one owner.
// A nil ownerID returns every active policy regardless of owner.
func (s *Store) ListActive(ctx context.Context, ownerID *int64) ([]monitor.Policy, error) {
	query := `
		SELECT ` + policyColumns + `
		FROM policies
		WHERE is_active AND ($1::bigint IS NULL OR owner_id = $1)
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active policies: %w", err)
	}
	defer rows.Close()

	var policies []monitor.Policy
	for rows.Next() {
		var (
			p             monitor.Policy
			intervalHours int
		)
		err := rows.Scan(
			&p.ID,
			&p.OwnerID,
			&p.Name,
			&p.Company,
			&p.URL,
			&p.PolicyType,
			&p.Active,
			&intervalHours,
			&p.NextCheckAt,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan policy row: %w", err)
		}
		p.CheckInterval = time.Duration(intervalHours) * time.Hour
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// AdvanceNextCheck moves a policy's next scheduled check time.
func (s *Store) AdvanceNextCheck(ctx context.Context, policyID int64, next time.Time) error {
	query := `UPDATE policies SET next_check_at = $2 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, policyID, next); err != nil {
		return fmt.Errorf("advance next check: %w", err)
	}
	return nil
}

// DeletePolicy removes a policy together with its snapshots and diffs in
// one transaction. Dependents are deleted explicitly, children first, so
// the removal is visible in the statement log and works without ON DELETE
// CASCADE on the foreign keys.
func (s *Store) DeletePolicy(ctx context.Context, policyID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete policy: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM diffs WHERE policy_id = $1`, policyID); err != nil {
		return fmt.Errorf("delete policy diffs: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM snapshots WHERE policy_id = $1`, policyID); err != nil {
		return fmt.Errorf("delete policy snapshots: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM policies WHERE id = $1`, policyID); err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete policy: %w", err)
	}
	return nil
}
