// Package memory provides mutex-guarded in-memory implementations of the
// persistence interfaces, used by tests and local runs without Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// Store holds policies, snapshots, and diffs in process memory.
type Store struct {
	mu sync.RWMutex

	policies  map[int64]monitor.Policy
	snapshots map[int64]monitor.Snapshot
	diffs     map[int64]monitor.Diff

	nextPolicyID   int64
	nextSnapshotID int64
	nextDiffID     int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		policies:  map[int64]monitor.Policy{},
		snapshots: map[int64]monitor.Snapshot{},
		diffs:     map[int64]monitor.Diff{},
	}
}

// InsertPolicy adds a policy and returns its id.
func (s *Store) InsertPolicy(_ context.Context, p monitor.Policy) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPolicyID++
	p.ID = s.nextPolicyID
	s.policies[p.ID] = p
	return p.ID, nil
}

// ListActive returns active policies, optionally scoped to one owner.
func (s *Store) ListActive(_ context.Context, ownerID *int64) ([]monitor.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []monitor.Policy
	for _, p := range s.policies {
		if !p.Active {
			continue
		}
		if ownerID != nil && (p.OwnerID == nil || *p.OwnerID != *ownerID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AdvanceNextCheck moves a policy's next scheduled check time.
func (s *Store) AdvanceNextCheck(_ context.Context, policyID int64, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[policyID]
	if !ok {
		return fmt.Errorf("policy %d not found", policyID)
	}
	p.NextCheckAt = &next
	s.policies[policyID] = p
	return nil
}

// DeletePolicy removes a policy and all dependent snapshots and diffs.
func (s *Store) DeletePolicy(_ context.Context, policyID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, policyID)
	for id, snap := range s.snapshots {
		if snap.PolicyID == policyID {
			delete(s.snapshots, id)
		}
	}
	for id, d := range s.diffs {
		if d.PolicyID == policyID {
			delete(s.diffs, id)
		}
	}
	return nil
}

// InsertSnapshot adds a capture, enforcing one snapshot per
// (policy, content hash).
func (s *Store) InsertSnapshot(_ context.Context, snap monitor.Snapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.snapshots {
		if existing.PolicyID == snap.PolicyID && existing.ContentHash == snap.ContentHash {
			return 0, fmt.Errorf("%w: policy %d hash %s",
				monitor.ErrDuplicateSnapshot, snap.PolicyID, snap.ContentHash)
		}
	}
	s.nextSnapshotID++
	snap.ID = s.nextSnapshotID
	s.snapshots[snap.ID] = snap
	return snap.ID, nil
}

// LatestSnapshot returns the most recent capture of a policy.
func (s *Store) LatestSnapshot(_ context.Context, policyID int64) (monitor.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest monitor.Snapshot
		found  bool
	)
	for _, snap := range s.snapshots {
		if snap.PolicyID != policyID {
			continue
		}
		if !found || snap.CapturedAt.After(latest.CapturedAt) ||
			(snap.CapturedAt.Equal(latest.CapturedAt) && snap.ID > latest.ID) {
			latest = snap
			found = true
		}
	}
	return latest, found, nil
}

// SnapshotByHash looks up a capture by content hash within one policy.
func (s *Store) SnapshotByHash(_ context.Context, policyID int64, hash string) (monitor.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.snapshots {
		if snap.PolicyID == policyID && snap.ContentHash == hash {
			return snap, true, nil
		}
	}
	return monitor.Snapshot{}, false, nil
}

// InsertDiff adds a diff, enforcing one per (old, new) snapshot pair.
func (s *Store) InsertDiff(_ context.Context, d monitor.Diff) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.diffs {
		if existing.OldSnapshotID == d.OldSnapshotID && existing.NewSnapshotID == d.NewSnapshotID {
			return 0, fmt.Errorf("%w: snapshots %d -> %d",
				monitor.ErrDuplicateDiff, d.OldSnapshotID, d.NewSnapshotID)
		}
	}
	s.nextDiffID++
	d.ID = s.nextDiffID
	s.diffs[d.ID] = d
	return d.ID, nil
}

// DiffBySnapshots looks up the diff for one (old, new) snapshot pair.
func (s *Store) DiffBySnapshots(_ context.Context, oldSnapshotID, newSnapshotID int64) (monitor.Diff, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.diffs {
		if d.OldSnapshotID == oldSnapshotID && d.NewSnapshotID == newSnapshotID {
			return d, true, nil
		}
	}
	return monitor.Diff{}, false, nil
}

// MarkNotified records the notification outcome on a diff.
func (s *Store) MarkNotified(_ context.Context, diffID int64, ok bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, found := s.diffs[diffID]
	if !found {
		return fmt.Errorf("diff %d not found", diffID)
	}
	d.NotificationSent = ok
	d.NotifiedAt = &at
	s.diffs[diffID] = d
	return nil
}

// Policy returns one policy by id (test helper).
func (s *Store) Policy(policyID int64) (monitor.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	return p, ok
}

// Diff returns one diff by id (test helper).
func (s *Store) Diff(diffID int64) (monitor.Diff, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diffs[diffID]
	return d, ok
}

// SnapshotCount reports how many snapshots a policy has (test helper).
func (s *Store) SnapshotCount(policyID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, snap := range s.snapshots {
		if snap.PolicyID == policyID {
			n++
		}
	}
	return n
}
