package bench

import (
	"testing"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

func TestNewAdapter_UnknownStructure(t *testing.T) {
	if _, err := NewAdapter(StructureKind("btree"), reclaim.RefCount); err == nil {
		t.Error("NewAdapter with unknown structure: got nil error")
	}
}

func TestNewAdapter_UnknownScheme(t *testing.T) {
	if _, err := NewAdapter(StructQueue, reclaim.Kind("gc")); err == nil {
		t.Error("NewAdapter with unknown scheme: got nil error")
	}
}

func TestAdapter_AllPairingsConstruct(t *testing.T) {
	for _, structure := range StructureKinds() {
		for _, scheme := range reclaim.Kinds() {
			a, err := NewAdapter(structure, scheme)
			if err != nil {
				t.Errorf("NewAdapter(%q, %q): %v", structure, scheme, err)
				continue
			}
			if a.Scheme().Name() != string(scheme) {
				t.Errorf("NewAdapter(%q, %q): bound scheme %q", structure, scheme, a.Scheme().Name())
			}
		}
	}
}

func TestAdapter_QueueOutcomes(t *testing.T) {
	a, err := NewAdapter(StructQueue, reclaim.RefCount)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	g := a.AcquireGuard()
	defer g.Release()

	if got := a.Apply(g, Operation{Kind: OpDequeue}); got != OutcomeEmpty {
		t.Errorf("Dequeue on empty queue = %v, want OutcomeEmpty", got)
	}
	if got := a.Apply(g, Operation{Kind: OpEnqueue, Value: 9}); got != OutcomeOK {
		t.Errorf("Enqueue = %v, want OutcomeOK", got)
	}
	if got := a.Apply(g, Operation{Kind: OpDequeue}); got != OutcomeOK {
		t.Errorf("Dequeue = %v, want OutcomeOK", got)
	}
	if got := a.Apply(g, Operation{Kind: OpInsert, Key: 1}); got != OutcomeInvalid {
		t.Errorf("Insert on queue = %v, want OutcomeInvalid", got)
	}
}

func TestAdapter_KeyedOutcomes(t *testing.T) {
	for _, structure := range []StructureKind{StructHashMap, StructList} {
		t.Run(string(structure), func(t *testing.T) {
			a, err := NewAdapter(structure, reclaim.RefCount)
			if err != nil {
				t.Fatalf("NewAdapter: %v", err)
			}
			g := a.AcquireGuard()
			defer g.Release()

			if got := a.Apply(g, Operation{Kind: OpLookup, Key: 3}); got != OutcomeNotFound {
				t.Errorf("Lookup absent = %v, want OutcomeNotFound", got)
			}
			if got := a.Apply(g, Operation{Kind: OpInsert, Key: 3, Value: 30}); got != OutcomeOK {
				t.Errorf("Insert = %v, want OutcomeOK", got)
			}
			if got := a.Apply(g, Operation{Kind: OpLookup, Key: 3}); got != OutcomeOK {
				t.Errorf("Lookup present = %v, want OutcomeOK", got)
			}
			if got := a.Apply(g, Operation{Kind: OpRemove, Key: 3}); got != OutcomeOK {
				t.Errorf("Remove = %v, want OutcomeOK", got)
			}
			if got := a.Apply(g, Operation{Kind: OpRemove, Key: 3}); got != OutcomeNotFound {
				t.Errorf("Remove absent = %v, want OutcomeNotFound", got)
			}
			if got := a.Apply(g, Operation{Kind: OpEnqueue}); got != OutcomeInvalid {
				t.Errorf("Enqueue on keyed structure = %v, want OutcomeInvalid", got)
			}
		})
	}
}

// A pure-insert stream applied in full leaves at most KeySpace distinct
// keys parked but exactly TotalOps entries in a structure that keeps
// duplicates.
func TestAdapter_PureInsertScenario(t *testing.T) {
	spec := WorkloadSpec{
		Mix:      Mix{Insert: 1.0},
		KeySpace: 1000,
		TotalOps: 100,
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	a, err := NewAdapter(StructHashMap, reclaim.Epoch)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	g := a.AcquireGuard()
	defer g.Release()

	st := spec.Stream(42, 0, spec.KeySpace, spec.TotalOps)
	n := 0
	for {
		op, ok := st.Next()
		if !ok {
			break
		}
		if got := a.Apply(g, op); got != OutcomeOK {
			t.Fatalf("Apply(%+v) = %v, want OutcomeOK", op, got)
		}
		n++
	}
	if n != spec.TotalOps {
		t.Errorf("applied %d operations, want %d", n, spec.TotalOps)
	}
	if got := a.Len(); got != spec.TotalOps {
		t.Errorf("Len = %d, want %d", got, spec.TotalOps)
	}
}
