package monitor

import "errors"

// Error taxonomy for policy checks. All of these are contained at the
// single-policy-check boundary and converted into an error-status
// CheckResult; none escape to the batch orchestrator.
var (
	// ErrScrapeFailed signals content was unobtainable after both the
	// primary and fallback fetch strategies were exhausted.
	ErrScrapeFailed = errors.New("scrape failed: content unobtainable")

	// ErrSummarizerUnavailable signals the summarization capability is
	// unconfigured or exhausted its retries. Callers fall back to the
	// deterministic local analysis and never propagate this.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")

	// ErrDuplicateSnapshot signals a snapshot with the same content hash
	// already exists for the policy. Resolved by returning the existing
	// state, not treated as a failure.
	ErrDuplicateSnapshot = errors.New("snapshot already exists for content hash")

	// ErrDuplicateDiff signals a diff already exists for the snapshot pair.
	ErrDuplicateDiff = errors.New("diff already exists for snapshot pair")
)
