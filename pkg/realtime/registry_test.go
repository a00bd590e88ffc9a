package realtime

import (
	"sync"
	"testing"
	"time"
)

func newTestSession(userID int64, boardID int64) *Session {
	return NewSession(userID, "user@example.com", boardID, &fakeConn{}, time.Second)
}

func TestRegistryAddAndSnapshot(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(1, 7)
	b := newTestSession(2, 7)

	r.Add(7, a)
	r.Add(7, b)

	if got := r.Count(7); got != 2 {
		t.Fatalf("Count(7) = %d, want 2", got)
	}
	snap := r.Snapshot(7)
	if len(snap) != 2 {
		t.Fatalf("Snapshot(7) has %d sessions, want 2", len(snap))
	}
	seen := map[string]bool{}
	for _, s := range snap {
		seen[s.Handle] = true
	}
	if !seen[a.Handle] || !seen[b.Handle] {
		t.Errorf("snapshot missing sessions: %v", seen)
	}
}

func TestRegistrySnapshotUnknownBoard(t *testing.T) {
	r := NewRegistry()
	if snap := r.Snapshot(42); len(snap) != 0 {
		t.Errorf("Snapshot(42) = %v, want empty", snap)
	}
	if got := r.Count(42); got != 0 {
		t.Errorf("Count(42) = %d, want 0", got)
	}
}

func TestRegistryRemoveReclaimsEmptyRoom(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(1, 7)
	b := newTestSession(2, 7)
	r.Add(7, a)
	r.Add(7, b)

	r.Remove(7, a)
	if got := r.Rooms(); got != 1 {
		t.Fatalf("Rooms() = %d after partial removal, want 1", got)
	}

	r.Remove(7, b)
	if got := r.Rooms(); got != 0 {
		t.Fatalf("Rooms() = %d after last removal, want 0", got)
	}
	if got := r.Count(7); got != 0 {
		t.Errorf("Count(7) = %d after reclamation, want 0", got)
	}
}

func TestRegistryRemoveAbsentIsNoOp(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(1, 7)

	// Unknown board, then double removal of the same session.
	r.Remove(7, a)
	r.Add(7, a)
	r.Remove(7, a)
	r.Remove(7, a)

	if got := r.Rooms(); got != 0 {
		t.Errorf("Rooms() = %d, want 0", got)
	}
}

func TestRegistryBoardsAreIsolated(t *testing.T) {
	r := NewRegistry()
	a := newTestSession(1, 7)
	b := newTestSession(2, 8)
	r.Add(7, a)
	r.Add(8, b)

	if got := r.Count(7); got != 1 {
		t.Errorf("Count(7) = %d, want 1", got)
	}
	if got := r.Count(8); got != 1 {
		t.Errorf("Count(8) = %d, want 1", got)
	}

	r.Remove(7, a)
	if got := r.Count(8); got != 1 {
		t.Errorf("Count(8) = %d after removing from board 7, want 1", got)
	}
	if got := r.Rooms(); got != 1 {
		t.Errorf("Rooms() = %d, want 1", got)
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	const workers = 16
	const rounds = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			boardID := int64(w % 4)
			for i := 0; i < rounds; i++ {
				s := newTestSession(int64(w), boardID)
				r.Add(boardID, s)
				r.Snapshot(boardID)
				r.Remove(boardID, s)
			}
		}(w)
	}
	wg.Wait()

	if got := r.Rooms(); got != 0 {
		t.Errorf("Rooms() = %d after churn, want 0", got)
	}
}
