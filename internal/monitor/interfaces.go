package monitor

import (
	"context"
	"time"
)

// PolicySource provides the policies to monitor and accepts scheduling updates.
type PolicySource interface {
	ListActive(ctx context.Context, ownerID *int64) ([]Policy, error)
	AdvanceNextCheck(ctx context.Context, policyID int64, next time.Time) error
}

// SnapshotStore persists immutable content captures.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap Snapshot) (int64, error)
	LatestSnapshot(ctx context.Context, policyID int64) (Snapshot, bool, error)
	SnapshotByHash(ctx context.Context, policyID int64, hash string) (Snapshot, bool, error)
}

// DiffStore persists computed diffs and their notification outcomes.
type DiffStore interface {
	InsertDiff(ctx context.Context, d Diff) (int64, error)
	DiffBySnapshots(ctx context.Context, oldSnapshotID, newSnapshotID int64) (Diff, bool, error)
	MarkNotified(ctx context.Context, diffID int64, ok bool, at time.Time) error
}

// Scraper fetches a policy URL and returns normalized text plus metadata.
type Scraper interface {
	Scrape(ctx context.Context, url string) (ScrapeResult, error)
}

// Summarizer turns structured clause changes into a plain-language verdict.
// Implementations must degrade to a deterministic local analysis rather than
// return an error for transient upstream failures.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (Analysis, error)
}

// Notifier dispatches alerts via zero or more channels. It must never return
// an error; delivery failure is reported as false.
type Notifier interface {
	Send(ctx context.Context, alert Alert) bool
}

// Hasher computes digests for deduplication/integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
