package reclaim

import (
	"sync/atomic"
	"testing"
)

// countingReleaser tallies reclaimed nodes so tests can assert exactly when
// a scheme hands memory back.
type countingReleaser struct {
	released atomic.Int64
}

func (c *countingReleaser) fn() Releaser {
	return func(node any) { c.released.Add(1) }
}

func TestKind_Valid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{RefCount, true},
		{Hazard, true},
		{Epoch, true},
		{Deferred, true},
		{Kind(""), false},
		{Kind("rcu"), false},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("Kind(%q).Valid() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestNew_UnknownKind_ReturnsError(t *testing.T) {
	if _, err := New(Kind("bogus"), func(any) {}); err == nil {
		t.Fatal("New with unknown kind: got nil error")
	}
}

func TestNew_AllKinds_Construct(t *testing.T) {
	for _, k := range Kinds() {
		s, err := New(k, func(any) {})
		if err != nil {
			t.Fatalf("New(%q): %v", k, err)
		}
		if s.Name() != string(k) {
			t.Errorf("New(%q).Name() = %q, want %q", k, s.Name(), k)
		}
	}
}

// Every scheme must drain completely once all guards are released and the
// harness has called Collect: zero live nodes, every retirement released
// exactly once.
func TestSchemes_DrainToZeroAfterReleaseAndCollect(t *testing.T) {
	const retires = 500

	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			var c countingReleaser
			s, err := New(k, c.fn())
			if err != nil {
				t.Fatalf("New(%q): %v", k, err)
			}

			g := s.AcquireGuard()
			for i := 0; i < retires; i++ {
				g.Enter()
				g.Retire(&struct{ v int }{i})
				g.Exit()
			}
			g.Release()
			s.Collect()
			s.Collect()

			if live := s.Live(); live != 0 {
				t.Errorf("Live() after drain = %d, want 0", live)
			}
			if got := c.released.Load(); got != retires {
				t.Errorf("released = %d, want %d", got, retires)
			}
		})
	}
}

func TestRefCount_ReleasesImmediately(t *testing.T) {
	var c countingReleaser
	s, _ := New(RefCount, c.fn())

	g := s.AcquireGuard()
	g.Enter()
	g.Retire(new(int))
	if got := c.released.Load(); got != 1 {
		t.Errorf("released inside critical section = %d, want 1", got)
	}
	if live := s.Live(); live != 0 {
		t.Errorf("Live() = %d, want 0", live)
	}
	if got := s.(*refCountScheme).Retired(); got != 1 {
		t.Errorf("Retired() = %d, want 1", got)
	}
	g.Exit()
	g.Release()
}

func TestHazard_ActiveReaderBlocksReclamation(t *testing.T) {
	var c countingReleaser
	s, _ := New(Hazard, c.fn())

	reader := s.AcquireGuard()
	writer := s.AcquireGuard()

	// GIVEN a reader inside a critical section when the node is retired
	reader.Enter()
	writer.Enter()
	writer.Retire(new(int))
	writer.Exit()
	writer.Release()

	// THEN collection cannot free it while the reader's marker is published
	s.Collect()
	if got := c.released.Load(); got != 0 {
		t.Fatalf("released with active reader = %d, want 0", got)
	}
	if live := s.Live(); live != 1 {
		t.Fatalf("Live() = %d, want 1", live)
	}

	// WHEN the reader exits, the next collection frees it
	reader.Exit()
	s.Collect()
	if got := c.released.Load(); got != 1 {
		t.Errorf("released after reader exit = %d, want 1", got)
	}
	if live := s.Live(); live != 0 {
		t.Errorf("Live() = %d, want 0", live)
	}
	reader.Release()
}

func TestEpoch_ActiveReaderBlocksReclamation(t *testing.T) {
	var c countingReleaser
	s, _ := New(Epoch, c.fn())

	reader := s.AcquireGuard()
	writer := s.AcquireGuard()

	reader.Enter()
	writer.Enter()
	writer.Retire(new(int))
	writer.Exit()
	writer.Release()

	s.Collect()
	if got := c.released.Load(); got != 0 {
		t.Fatalf("released with active reader = %d, want 0", got)
	}

	reader.Exit()
	s.Collect()
	if got := c.released.Load(); got != 1 {
		t.Errorf("released after reader exit = %d, want 1", got)
	}
	if live := s.Live(); live != 0 {
		t.Errorf("Live() = %d, want 0", live)
	}
	reader.Release()
}

func TestDeferred_BatchWaitsForSnapshotGuards(t *testing.T) {
	var c countingReleaser
	s, _ := New(Deferred, c.fn())

	holdout := s.AcquireGuard()
	writer := s.AcquireGuard()

	// GIVEN a retirement batched while another guard is active
	holdout.Enter()
	writer.Enter()
	writer.Retire(new(int))
	writer.Exit()

	// Collect seals the partial batch against the active-guard snapshot
	s.Collect()
	if got := c.released.Load(); got != 0 {
		t.Fatalf("released with snapshot guard active = %d, want 0", got)
	}

	// WHEN the snapshot guard exits, its ack frees the batch
	holdout.Exit()
	if got := c.released.Load(); got != 1 {
		t.Errorf("released after holdout exit = %d, want 1", got)
	}
	if live := s.Live(); live != 0 {
		t.Errorf("Live() = %d, want 0", live)
	}
	writer.Release()
	holdout.Release()
}

func TestDeferred_FullBatchSealsAutomatically(t *testing.T) {
	var c countingReleaser
	s, _ := New(Deferred, c.fn())

	g := s.AcquireGuard()
	g.Enter()
	for i := 0; i < deferredBatchSize; i++ {
		g.Retire(new(int))
	}
	// The full batch sealed with g itself in the snapshot, so nothing is
	// freed until g exits.
	if got := c.released.Load(); got != 0 {
		t.Fatalf("released inside critical section = %d, want 0", got)
	}
	g.Exit()
	if got := c.released.Load(); got != int64(deferredBatchSize) {
		t.Errorf("released after exit = %d, want %d", got, deferredBatchSize)
	}
	g.Release()
}
