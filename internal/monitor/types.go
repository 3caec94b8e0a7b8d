// Package monitor defines core types shared across subsystems.
package monitor

import (
	"time"
)

// Severity classifies how much a policy change matters to the user.
type Severity string

// Severity values persisted on diff records.
const (
	SeverityInformational Severity = "informational"
	SeverityConcerning    Severity = "concerning"
	SeverityActionNeeded  Severity = "action-needed"
)

// Valid reports whether s is one of the three allowed severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInformational, SeverityConcerning, SeverityActionNeeded:
		return true
	}
	return false
}

// severityRank orders severities for threshold comparisons.
var severityRank = map[Severity]int{
	SeverityInformational: 0,
	SeverityConcerning:    1,
	SeverityActionNeeded:  2,
}

// AtLeast reports whether s meets or exceeds the given threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// CoerceSeverity normalizes arbitrary input to an allowed severity,
// defaulting to informational.
func CoerceSeverity(raw string) Severity {
	s := Severity(raw)
	if s.Valid() {
		return s
	}
	return SeverityInformational
}

// ChangeKind labels a clause-level change.
type ChangeKind string

// Change kinds attached to clause changes.
const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Policy is a monitored legal document page.
type Policy struct {
	ID            int64
	OwnerID       *int64
	Name          string
	Company       string
	URL           string
	PolicyType    string // privacy_policy | terms_of_service
	Active        bool
	CheckInterval time.Duration
	NextCheckAt   *time.Time
	CreatedAt     time.Time
}

// Due reports whether the policy should be checked at the given time.
func (p Policy) Due(now time.Time) bool {
	return p.NextCheckAt == nil || !p.NextCheckAt.After(now)
}

// Snapshot is an immutable point-in-time capture of a policy page.
// Exactly one snapshot exists per (policy, content hash).
type Snapshot struct {
	ID              int64
	PolicyID        int64
	Text            string
	ContentHash     string
	ContentLength   int
	DiscoveredLinks []string
	CapturedAt      time.Time
	Seed            bool // backfilled from an archival source rather than a live fetch
}

// ClauseChange is a single clause-level change between two snapshots.
type ClauseChange struct {
	Section      string     `json:"section"`
	OldText      string     `json:"old_text"`
	NewText      string     `json:"new_text"`
	Kind         ChangeKind `json:"change_type"`
	Significance float64    `json:"significance_score"`
}

// Analysis is the summarizer's verdict on a set of clause changes.
type Analysis struct {
	Summary        string
	Severity       Severity
	SeverityScore  float64
	KeyChanges     []string
	Recommendation string
}

// Diff records the comparison of exactly two snapshots of the same policy.
// At most one diff exists per (old, new) snapshot pair.
type Diff struct {
	ID            int64
	PolicyID      int64
	OldSnapshotID int64
	NewSnapshotID int64

	DiffText string
	DiffHTML string

	ClausesAdded    []ClauseChange
	ClausesRemoved  []ClauseChange
	ClausesModified []ClauseChange

	Summary        string
	Severity       Severity
	SeverityScore  float64
	KeyChanges     []string
	Recommendation string

	NotificationSent bool
	NotifiedAt       *time.Time
	CreatedAt        time.Time
}

// CheckStatus is the terminal state of a single-policy check.
type CheckStatus string

// Check statuses returned per policy.
const (
	StatusChanged       CheckStatus = "changed"
	StatusUnchanged     CheckStatus = "unchanged"
	StatusFirstSnapshot CheckStatus = "first_snapshot"
	StatusError         CheckStatus = "error"
)

// CheckResult is returned for every policy in a batch, never raised.
type CheckResult struct {
	PolicyID int64       `json:"policy_id"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	DiffID   int64       `json:"diff_id,omitempty"`
}

// ScrapeResult is the output of a successful scrape of one policy URL.
type ScrapeResult struct {
	Text        string
	ContentHash string
	Links       []string // same-site related legal-page URLs
}

// SummaryRequest carries everything the summarizer needs about one diff.
type SummaryRequest struct {
	PolicyName string
	Company    string
	PolicyType string
	DiffText   string
	Added      []ClauseChange
	Removed    []ClauseChange
	Modified   []ClauseChange
}

// Alert is the payload handed to the notification dispatcher.
type Alert struct {
	PolicyID       int64
	DiffID         int64
	PolicyName     string
	Company        string
	Severity       Severity
	Summary        string
	KeyChanges     []string
	Recommendation string
}
