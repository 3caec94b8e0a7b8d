// Package pipeline orchestrates policy checks: scrape, dedupe, diff,
// summarize, notify, persist. It is the only writer of snapshots and
// diffs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/differ"
	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// Checker runs the single-policy check state machine.
type Checker struct {
	policies  monitor.PolicySource
	snapshots monitor.SnapshotStore
	diffs     monitor.DiffStore

	scraper    monitor.Scraper
	differ     *differ.Differ
	summarizer monitor.Summarizer
	notifier   monitor.Notifier
	clock      monitor.Clock
	logger     *zap.Logger
}

// NewChecker wires the orchestrator's collaborators.
func NewChecker(
	policies monitor.PolicySource,
	snapshots monitor.SnapshotStore,
	diffs monitor.DiffStore,
	scraper monitor.Scraper,
	d *differ.Differ,
	summarizer monitor.Summarizer,
	notifier monitor.Notifier,
	clock monitor.Clock,
	logger *zap.Logger,
) *Checker {
	return &Checker{
		policies:   policies,
		snapshots:  snapshots,
		diffs:      diffs,
		scraper:    scraper,
		differ:     d,
		summarizer: summarizer,
		notifier:   notifier,
		clock:      clock,
		logger:     logger,
	}
}

// CheckPolicy runs one full check of a single policy. It never panics or
// returns an error to the caller; every failure mode is contained in an
// error-status CheckResult.
func (c *Checker) CheckPolicy(ctx context.Context, p monitor.Policy) (result monitor.CheckResult) {
	start := c.clock.Now()
	metrics.IncActiveChecks()
	defer func() {
		metrics.DecActiveChecks()
		if r := recover(); r != nil {
			c.logger.Error("policy check panicked",
				zap.Int64("policy_id", p.ID),
				zap.Any("panic", r))
			result = monitor.CheckResult{
				PolicyID: p.ID,
				Status:   monitor.StatusError,
				Message:  fmt.Sprintf("internal error: %v", r),
			}
		}
		metrics.ObserveCheck(string(result.Status), c.clock.Now().Sub(start))
	}()

	result = c.check(ctx, p)
	return result
}

func (c *Checker) check(ctx context.Context, p monitor.Policy) monitor.CheckResult {
	scraped, err := c.scraper.Scrape(ctx, p.URL)
	if err != nil {
		c.logger.Warn("scrape failed",
			zap.Int64("policy_id", p.ID),
			zap.String("url", p.URL),
			zap.Error(err))
		return errorResult(p.ID, fmt.Errorf("scrape %s: %w", p.URL, err))
	}

	now := c.clock.Now()

	latest, haveLatest, err := c.snapshots.LatestSnapshot(ctx, p.ID)
	if err != nil {
		return errorResult(p.ID, fmt.Errorf("latest snapshot: %w", err))
	}

	if !haveLatest {
		return c.recordFirstSnapshot(ctx, p, scraped, now)
	}

	if latest.ContentHash == scraped.ContentHash {
		c.advance(ctx, p, now)
		return monitor.CheckResult{
			PolicyID: p.ID,
			Status:   monitor.StatusUnchanged,
			Message:  "content hash unchanged",
		}
	}

	// A hash seen on any earlier snapshot means the page reverted to a
	// previously recorded version. No new snapshot or diff is created.
	if _, seen, err := c.snapshots.SnapshotByHash(ctx, p.ID, scraped.ContentHash); err != nil {
		return errorResult(p.ID, fmt.Errorf("snapshot by hash: %w", err))
	} else if seen {
		c.logger.Info("content reverted to a prior version",
			zap.Int64("policy_id", p.ID),
			zap.String("hash", scraped.ContentHash))
		c.advance(ctx, p, now)
		return monitor.CheckResult{
			PolicyID: p.ID,
			Status:   monitor.StatusUnchanged,
			Message:  "content matches a prior snapshot",
		}
	}

	newID, err := c.snapshots.InsertSnapshot(ctx, monitor.Snapshot{
		PolicyID:        p.ID,
		Text:            scraped.Text,
		ContentHash:     scraped.ContentHash,
		ContentLength:   len(scraped.Text),
		DiscoveredLinks: scraped.Links,
		CapturedAt:      now,
	})
	if err != nil {
		// A concurrent check won the insert race; the content is recorded.
		if errors.Is(err, monitor.ErrDuplicateSnapshot) {
			c.advance(ctx, p, now)
			return monitor.CheckResult{
				PolicyID: p.ID,
				Status:   monitor.StatusUnchanged,
				Message:  "snapshot already recorded",
			}
		}
		return errorResult(p.ID, fmt.Errorf("insert snapshot: %w", err))
	}

	if existing, found, err := c.diffs.DiffBySnapshots(ctx, latest.ID, newID); err != nil {
		return errorResult(p.ID, fmt.Errorf("diff by snapshots: %w", err))
	} else if found {
		c.advance(ctx, p, now)
		return monitor.CheckResult{
			PolicyID: p.ID,
			Status:   monitor.StatusChanged,
			Message:  "diff already computed",
			DiffID:   existing.ID,
		}
	}

	// A differing hash always yields a persisted diff, even when no clause
	// moved (whitespace edits, reordered sections). The summarizer's
	// fallback rates an empty clause set informational.
	diff := c.differ.Compute(latest.Text, scraped.Text)

	analysis, err := c.summarizer.Summarize(ctx, monitor.SummaryRequest{
		PolicyName: p.Name,
		Company:    p.Company,
		PolicyType: p.PolicyType,
		DiffText:   diff.DiffText,
		Added:      diff.Added,
		Removed:    diff.Removed,
		Modified:   diff.Modified,
	})
	if err != nil {
		return errorResult(p.ID, fmt.Errorf("summarize: %w", err))
	}

	diffID, err := c.diffs.InsertDiff(ctx, monitor.Diff{
		PolicyID:        p.ID,
		OldSnapshotID:   latest.ID,
		NewSnapshotID:   newID,
		DiffText:        diff.DiffText,
		DiffHTML:        diff.DiffHTML,
		ClausesAdded:    diff.Added,
		ClausesRemoved:  diff.Removed,
		ClausesModified: diff.Modified,
		Summary:         analysis.Summary,
		Severity:        analysis.Severity,
		SeverityScore:   analysis.SeverityScore,
		KeyChanges:      analysis.KeyChanges,
		Recommendation:  analysis.Recommendation,
		CreatedAt:       now,
	})
	if err != nil {
		if errors.Is(err, monitor.ErrDuplicateDiff) {
			if existing, found, lookupErr := c.diffs.DiffBySnapshots(ctx, latest.ID, newID); lookupErr == nil && found {
				c.advance(ctx, p, now)
				return monitor.CheckResult{
					PolicyID: p.ID,
					Status:   monitor.StatusChanged,
					Message:  "diff already computed",
					DiffID:   existing.ID,
				}
			}
		}
		return errorResult(p.ID, fmt.Errorf("insert diff: %w", err))
	}

	sent := c.notifier.Send(ctx, monitor.Alert{
		PolicyID:       p.ID,
		DiffID:         diffID,
		PolicyName:     p.Name,
		Company:        p.Company,
		Severity:       analysis.Severity,
		Summary:        analysis.Summary,
		KeyChanges:     analysis.KeyChanges,
		Recommendation: analysis.Recommendation,
	})
	if err := c.diffs.MarkNotified(ctx, diffID, sent, c.clock.Now()); err != nil {
		c.logger.Warn("mark notified failed",
			zap.Int64("policy_id", p.ID),
			zap.Int64("diff_id", diffID),
			zap.Error(err))
	}

	c.logger.Info("policy changed",
		zap.Int64("policy_id", p.ID),
		zap.Int64("diff_id", diffID),
		zap.String("severity", string(analysis.Severity)),
		zap.Bool("notified", sent))

	c.advance(ctx, p, now)
	return monitor.CheckResult{
		PolicyID: p.ID,
		Status:   monitor.StatusChanged,
		Message:  analysis.Summary,
		DiffID:   diffID,
	}
}

// recordFirstSnapshot stores the baseline capture. An informational alert
// tells subscribers monitoring has started; there is nothing to diff yet.
func (c *Checker) recordFirstSnapshot(ctx context.Context, p monitor.Policy, scraped monitor.ScrapeResult, now time.Time) monitor.CheckResult {
	_, err := c.snapshots.InsertSnapshot(ctx, monitor.Snapshot{
		PolicyID:        p.ID,
		Text:            scraped.Text,
		ContentHash:     scraped.ContentHash,
		ContentLength:   len(scraped.Text),
		DiscoveredLinks: scraped.Links,
		CapturedAt:      now,
	})
	if err != nil && !errors.Is(err, monitor.ErrDuplicateSnapshot) {
		return errorResult(p.ID, fmt.Errorf("insert first snapshot: %w", err))
	}

	c.notifier.Send(ctx, monitor.Alert{
		PolicyID:   p.ID,
		PolicyName: p.Name,
		Company:    p.Company,
		Severity:   monitor.SeverityInformational,
		Summary: fmt.Sprintf("Baseline snapshot captured for %s (%s). Future checks will report changes against this version.",
			p.Name, p.Company),
		KeyChanges:     []string{"Initial policy snapshot captured"},
		Recommendation: "No action needed; the policy is now being monitored.",
	})

	c.logger.Info("first snapshot recorded",
		zap.Int64("policy_id", p.ID),
		zap.Int("chars", len(scraped.Text)))

	c.advance(ctx, p, now)
	return monitor.CheckResult{
		PolicyID: p.ID,
		Status:   monitor.StatusFirstSnapshot,
		Message:  "baseline snapshot recorded",
	}
}

// advance schedules the next check one interval out. A scheduling failure
// is logged but never fails the check.
func (c *Checker) advance(ctx context.Context, p monitor.Policy, now time.Time) {
	interval := p.CheckInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if err := c.policies.AdvanceNextCheck(ctx, p.ID, now.Add(interval)); err != nil {
		c.logger.Warn("advance next check failed",
			zap.Int64("policy_id", p.ID),
			zap.Error(err))
	}
}

func errorResult(policyID int64, err error) monitor.CheckResult {
	return monitor.CheckResult{
		PolicyID: policyID,
		Status:   monitor.StatusError,
		Message:  err.Error(),
	}
}
