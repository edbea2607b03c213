package bktree

import (
	"testing"

	"github.com/bastiangx/lexidx/pkg/distance"
)

func dist(a, b string, cutoff int) int {
	return distance.DamerauLevenshtein(a, b, cutoff)
}

func TestInsertAndExactHit(t *testing.T) {
	tr := New(dist, 10, 0)
	tr.Insert("apple", 0)
	tr.Insert("aple", 1)
	tr.Insert("applet", 2)
	tr.Insert("banana", 3)

	results := tr.Search("apple", 2, false)
	if len(results) == 0 || results[0].ID != 0 || results[0].Distance != 0 {
		t.Fatalf("expected exact hit first, got %v", results)
	}
	ids := map[int]int{}
	for _, r := range results {
		ids[r.ID] = r.Distance
	}
	if ids[1] != 1 || ids[2] != 1 {
		t.Fatalf("unexpected distances: %v", results)
	}
	if _, ok := ids[3]; ok {
		t.Fatalf("banana should not be within distance 2 of apple: %v", results)
	}
}

func TestUpdateOnDistanceZero(t *testing.T) {
	tr := New(dist, 10, 0)
	tr.Insert("apple", 0)
	tr.Insert("apple", 99)
	if tr.Size() != 1 {
		t.Fatalf("expected re-inserting the same word to update in place, got size %d", tr.Size())
	}
	results := tr.Search("apple", 0, false)
	if len(results) != 1 || results[0].ID != 99 {
		t.Fatalf("expected updated id 99, got %v", results)
	}
}

func TestEmptyTree(t *testing.T) {
	tr := New(dist, 10, 0)
	if got := tr.Search("anything", 5, false); got != nil {
		t.Fatalf("expected nil results on empty tree, got %v", got)
	}
}

func TestClampToConfiguredCap(t *testing.T) {
	tr := New(dist, 2, 0)
	tr.Insert("apple", 0)
	tr.Insert("azzze", 1) // distance 3 from apple, outside cap of 2

	// Ask for max_d=10, which exceeds the configured cap of 2 and must be
	// silently clamped.
	results := tr.Search("apple", 10, false)
	for _, r := range results {
		if r.ID == 1 {
			t.Fatalf("expected clamp to cap=2 to exclude distance-3 word, got %v", results)
		}
	}
}

func TestExhaustiveWidensSearch(t *testing.T) {
	tr := New(dist, 10, 0)
	words := []string{"aa", "ab", "ac", "ad", "bb", "cc", "dd", "ee"}
	for i, w := range words {
		tr.Insert(w, i)
	}
	standard := tr.Search("aa", 1, false)
	exhaustive := tr.Search("aa", 1, true)
	if len(exhaustive) < len(standard) {
		t.Fatalf("expected exhaustive search to find at least as many hits: %d vs %d", len(exhaustive), len(standard))
	}
}

func TestBatchInsertHint(t *testing.T) {
	tr := New(dist, 10, 0)
	words := make([]string, 2500)
	ids := make([]int, 2500)
	for i := range words {
		words[i] = string(rune('a'+(i%26))) + string(rune('a'+(i/26)%26))
		ids[i] = i
	}
	hints := 0
	tr.BatchInsert(words, ids, func() { hints++ })
	if hints != 2 {
		t.Fatalf("expected 2 collect hints for 2500 inserts at batch size 1000, got %d", hints)
	}
}

func TestInsertAbortsOnDepthGuard(t *testing.T) {
	tr := New(dist, 10, 1)
	if !tr.Insert("aaaa", 0) {
		t.Fatal("expected root insert to succeed")
	}
	if !tr.Insert("aaab", 1) {
		t.Fatal("expected first child insert to succeed")
	}
	// "baaa" is also distance 1 from the root, so it descends into the
	// existing depth-1 child before the guard (maxDepth=1) catches it.
	if tr.Insert("baaa", 2) {
		t.Fatal("expected depth guard to abort the third insert")
	}
	if tr.Size() != 2 {
		t.Fatalf("expected aborted insert to leave the tree unchanged, got size %d", tr.Size())
	}
}

func TestResultOrderingTieBreak(t *testing.T) {
	tr := New(dist, 10, 0)
	tr.Insert("cat", 5)
	tr.Insert("car", 2)
	tr.Insert("can", 8)
	results := tr.Search("cat", 1, false)
	for i := 1; i < len(results); i++ {
		if results[i-1].Distance > results[i].Distance {
			t.Fatalf("results not sorted by distance: %v", results)
		}
		if results[i-1].Distance == results[i].Distance && results[i-1].ID > results[i].ID {
			t.Fatalf("results not tie-broken by id: %v", results)
		}
	}
}
