package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// DefaultMaxConcurrent caps the number of in-flight policy checks per
// batch run.
const DefaultMaxConcurrent = 5

// Batch fans a check run out over every due policy.
type Batch struct {
	checker       *Checker
	policies      monitor.PolicySource
	clock         monitor.Clock
	logger        *zap.Logger
	maxConcurrent int
}

// NewBatch builds a batch runner. maxConcurrent values below one fall
// back to DefaultMaxConcurrent.
func NewBatch(checker *Checker, policies monitor.PolicySource, clock monitor.Clock, logger *zap.Logger, maxConcurrent int) *Batch {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Batch{
		checker:       checker,
		policies:      policies,
		clock:         clock,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Run checks every active policy that is due, optionally scoped to one
// owner. It returns exactly one CheckResult per due policy; individual
// check failures surface as error-status results, never as a returned
// error. The returned error covers only the inability to list policies.
func (b *Batch) Run(ctx context.Context, ownerID *int64) ([]monitor.CheckResult, error) {
	runID := uuid.NewString()
	now := b.clock.Now()

	active, err := b.policies.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active policies: %w", err)
	}

	var due []monitor.Policy
	for _, p := range active {
		if p.Due(now) {
			due = append(due, p)
		}
	}

	b.logger.Info("batch check starting",
		zap.String("run_id", runID),
		zap.Int("active", len(active)),
		zap.Int("due", len(due)))

	results := make([]monitor.CheckResult, len(due))
	sem := make(chan struct{}, b.maxConcurrent)
	var wg sync.WaitGroup
	for i, p := range due {
		wg.Add(1)
		go func(i int, p monitor.Policy) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = b.checker.CheckPolicy(ctx, p)
		}(i, p)
	}
	wg.Wait()

	counts := map[monitor.CheckStatus]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	b.logger.Info("batch check finished",
		zap.String("run_id", runID),
		zap.Int("checked", len(results)),
		zap.Int("changed", counts[monitor.StatusChanged]),
		zap.Int("unchanged", counts[monitor.StatusUnchanged]),
		zap.Int("first_snapshot", counts[monitor.StatusFirstSnapshot]),
		zap.Int("errors", counts[monitor.StatusError]))

	return results, nil
}
