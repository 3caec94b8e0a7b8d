package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

func TestInsertSnapshotRejectsDuplicateHash(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	snap := monitor.Snapshot{PolicyID: 1, ContentHash: "abc", CapturedAt: time.Unix(1700000000, 0)}

	if _, err := store.InsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := store.InsertSnapshot(ctx, snap)
	if !errors.Is(err, monitor.ErrDuplicateSnapshot) {
		t.Fatalf("err = %v, want ErrDuplicateSnapshot", err)
	}
	if n := store.SnapshotCount(1); n != 1 {
		t.Fatalf("snapshot count = %d, want 1", n)
	}
}

func TestLatestSnapshotOrdersByCaptureTimeThenID(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i, snap := range []monitor.Snapshot{
		{PolicyID: 1, ContentHash: "a", CapturedAt: base},
		{PolicyID: 1, ContentHash: "b", CapturedAt: base.Add(time.Hour)},
		{PolicyID: 1, ContentHash: "c", CapturedAt: base.Add(time.Hour)},
	} {
		if _, err := store.InsertSnapshot(ctx, snap); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	latest, found, err := store.LatestSnapshot(ctx, 1)
	if err != nil || !found {
		t.Fatalf("latest snapshot: found=%v err=%v", found, err)
	}
	// Equal capture times tie-break on the higher id.
	if latest.ContentHash != "c" {
		t.Fatalf("latest hash = %q, want c", latest.ContentHash)
	}
}

func TestInsertDiffRejectsDuplicatePair(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	d := monitor.Diff{PolicyID: 1, OldSnapshotID: 1, NewSnapshotID: 2}

	if _, err := store.InsertDiff(ctx, d); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := store.InsertDiff(ctx, d)
	if !errors.Is(err, monitor.ErrDuplicateDiff) {
		t.Fatalf("err = %v, want ErrDuplicateDiff", err)
	}
}

func TestListActiveScopesToOwner(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	ownerA, ownerB := int64(10), int64(20)

	for _, p := range []monitor.Policy{
		{Name: "A", OwnerID: &ownerA, Active: true},
		{Name: "B", OwnerID: &ownerB, Active: true},
		{Name: "C", OwnerID: &ownerA, Active: false},
		{Name: "D", Active: true},
	} {
		if _, err := store.InsertPolicy(ctx, p); err != nil {
			t.Fatalf("insert policy: %v", err)
		}
	}

	all, err := store.ListActive(ctx, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all active = %d, want 3", len(all))
	}

	scoped, err := store.ListActive(ctx, &ownerA)
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Name != "A" {
		t.Fatalf("scoped = %+v, want only policy A", scoped)
	}
}

func TestDeletePolicyRemovesDependents(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	id, err := store.InsertPolicy(ctx, monitor.Policy{Name: "A", Active: true})
	if err != nil {
		t.Fatalf("insert policy: %v", err)
	}
	s1, _ := store.InsertSnapshot(ctx, monitor.Snapshot{PolicyID: id, ContentHash: "a"})
	s2, _ := store.InsertSnapshot(ctx, monitor.Snapshot{PolicyID: id, ContentHash: "b"})
	diffID, _ := store.InsertDiff(ctx, monitor.Diff{PolicyID: id, OldSnapshotID: s1, NewSnapshotID: s2})

	if err := store.DeletePolicy(ctx, id); err != nil {
		t.Fatalf("delete policy: %v", err)
	}
	if _, ok := store.Policy(id); ok {
		t.Error("policy still present after delete")
	}
	if n := store.SnapshotCount(id); n != 0 {
		t.Errorf("snapshot count = %d, want 0", n)
	}
	if _, ok := store.Diff(diffID); ok {
		t.Error("diff still present after delete")
	}
}
