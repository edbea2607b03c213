package engine

import (
	"context"
	"testing"
)

func TestAddIsIdempotent(t *testing.T) {
	e := New(Options{})
	r1 := e.Add("apple")
	r2 := e.Add("apple")
	if !r1.Created {
		t.Fatal("expected first add to be a birth")
	}
	if r2.Created {
		t.Fatal("expected second add of same word to not be a birth")
	}
	if r1.ID != r2.ID {
		t.Fatalf("expected same id, got %d and %d", r1.ID, r2.ID)
	}
}

func TestAddWiresEveryIndex(t *testing.T) {
	e := New(Options{})
	r := e.Add("apple")

	if !e.Idx.Prefix.Contains("apple") {
		t.Fatal("expected prefix index populated")
	}
	if e.Idx.Grams.Lookup("ap").IsEmpty() {
		t.Fatal("expected 2-gram index populated")
	}
	if e.Idx.Lengths.Lookup(5).IsEmpty() {
		t.Fatal("expected length index populated")
	}
	hits := e.Idx.Sim.Search("apple", 0, false)
	if len(hits) != 1 || hits[0].ID != r.ID {
		t.Fatalf("expected exact BK-tree hit, got %v", hits)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	e := New(Options{})
	r := e.Add("apple")

	del := e.Delete(r.ID)
	if !del.OK {
		t.Fatal("expected delete to succeed")
	}
	if len(e.Eval.Exact("apple").Hits) != 0 {
		t.Fatal("expected exact query to exclude deleted record")
	}
	// Delete drops the word from the prefix index; the 2-gram index and
	// BK-tree still carry it, and the evaluator re-filters every result
	// through the dictionary's active flag.
	if len(e.Eval.Prefix("app").Hits) != 0 {
		t.Fatal("expected prefix query to exclude deleted record via active-filter")
	}

	restore := e.Restore(r.ID)
	if !restore.OK {
		t.Fatal("expected restore to succeed")
	}
	if len(e.Eval.Exact("apple").Hits) != 1 {
		t.Fatal("expected exact query to find restored record")
	}
}

func TestDeleteUnknownID(t *testing.T) {
	e := New(Options{})
	if e.Delete(999).OK {
		t.Fatal("expected delete of unknown id to fail")
	}
}

func TestRebuildReconstructsIndices(t *testing.T) {
	e := New(Options{})
	e.Add("apple")
	e.Add("apply")
	e.Delete(0)

	if err := e.Rebuild(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Idx.Prefix.Contains("apple") {
		t.Fatal("expected rebuild to drop deleted word from prefix index")
	}
	if !e.Idx.Prefix.Contains("apply") {
		t.Fatal("expected rebuild to retain active word")
	}
}

func TestValidateCleanEngine(t *testing.T) {
	e := New(Options{})
	e.Add("apple")
	e.Add("banana")
	if res := e.Validate(); !res.OK() {
		t.Fatalf("expected clean validate, got %+v", res)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := New(Options{})
	e.Add("apple")
	e.Add("banana")
	snap := e.Snapshot()

	fresh := New(Options{})
	fresh.Dict = e.Dict
	fresh.LoadSnapshot(snap)

	if !fresh.Idx.Prefix.Contains("apple") {
		t.Fatal("expected loaded snapshot to retain apple in prefix index")
	}
	if len(fresh.Eval.Prefix("app").Hits) != 1 {
		t.Fatal("expected loaded snapshot to answer prefix query")
	}
}

func TestBulkLoadBuildsEverything(t *testing.T) {
	e := New(Options{})
	if err := e.BulkLoad(context.Background(), []string{"apple", "apply", "banana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Dict.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", e.Dict.Len())
	}
	if len(e.Eval.Prefix("app").Hits) != 2 {
		t.Fatal("expected 2 prefix hits after bulk load")
	}
}

func TestMaxDistanceCapClamped(t *testing.T) {
	e := New(Options{MaxDistanceCap: 999})
	if e.Idx.Sim.MaxD() != 10 {
		t.Fatalf("expected cap clamped to 10, got %d", e.Idx.Sim.MaxD())
	}
	e2 := New(Options{MaxDistanceCap: -5})
	if e2.Idx.Sim.MaxD() != 10 {
		t.Fatalf("expected non-positive cap to default to 10, got %d", e2.Idx.Sim.MaxD())
	}
}

func TestOptimizeDropsDeletedFootprint(t *testing.T) {
	e := New(Options{})
	r := e.Add("apple")
	e.Delete(r.ID)
	e.Optimize()
	if !e.Idx.Grams.Lookup("ap").IsEmpty() {
		t.Fatal("expected optimize to drop the deleted id from the 2-gram index")
	}
}
