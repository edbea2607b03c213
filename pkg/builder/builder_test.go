package builder

import (
	"context"
	"testing"

	"github.com/bastiangx/lexidx/pkg/dictionary"
	"github.com/bastiangx/lexidx/pkg/distance"
	"github.com/bastiangx/lexidx/pkg/interner"
)

func testDistance(a, b string, cutoff int) int {
	return distance.DamerauLevenshtein(a, b, cutoff)
}

func seedDict(words ...string) *dictionary.Dictionary {
	d := dictionary.New()
	for _, w := range words {
		d.InsertOrGetID(w)
	}
	return d
}

func TestBulkBuildPopulatesAllIndices(t *testing.T) {
	dict := seedDict("apple", "apply", "banana", "band")
	in := interner.New()
	idx := New(10, testDistance, 0)

	if _, err := idx.BulkBuild(context.Background(), dict, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !idx.Prefix.Contains("apple") {
		t.Fatal("expected prefix index to contain apple")
	}
	if !idx.Suffix.Contains(reverse("apple")) {
		t.Fatal("expected suffix index to contain reversed apple")
	}
	if idx.Grams.Lookup("ap").IsEmpty() {
		t.Fatal("expected 2-gram index to have entries for 'ap'")
	}
	if idx.Lengths.Lookup(5).IsEmpty() {
		t.Fatal("expected length bucket 5 to be populated")
	}
	results := idx.Sim.Search("apple", 1, false)
	found := false
	for _, r := range results {
		if r.Distance == 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected exact hit for apple in similarity index")
	}
}

func TestBulkBuildSkipsDeletedRecords(t *testing.T) {
	dict := seedDict("apple", "banana")
	r, _ := dict.GetByWord("apple")
	dict.MarkDeleted(r.ID)
	in := interner.New()
	idx := New(10, testDistance, 0)

	if _, err := idx.BulkBuild(context.Background(), dict, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Prefix.Contains("apple") {
		t.Fatal("expected deleted record to be excluded from bulk build")
	}
	if !idx.Prefix.Contains("banana") {
		t.Fatal("expected active record to be included")
	}
}

func TestAddAndDeleteRoundTrip(t *testing.T) {
	idx := New(10, testDistance, 0)
	idx.Add("apple", 0)

	if !idx.Prefix.Contains("apple") {
		t.Fatal("expected prefix index to contain word after add")
	}
	idx.Delete("apple", 0)
	if idx.Prefix.Contains("apple") {
		t.Fatal("expected prefix index to drop word after delete")
	}
	if idx.Suffix.Contains(reverse("apple")) {
		t.Fatal("expected suffix index to drop word after delete")
	}
	if !idx.Lengths.Lookup(5).IsEmpty() {
		t.Fatal("expected length bucket to drop id after delete")
	}
	// The 2-gram index and BK-tree are untouched by logical delete.
	if !idx.Grams.Lookup("ap").Contains(0) {
		t.Fatal("expected gram index to retain id through logical delete")
	}
}

func TestRestoreReAddsToOrderedAndLengthIndices(t *testing.T) {
	idx := New(10, testDistance, 0)
	idx.Add("apple", 0)
	idx.Delete("apple", 0)
	idx.Restore("apple", 0)
	if !idx.Prefix.Contains("apple") {
		t.Fatal("expected prefix index to contain word after restore")
	}
	if !idx.Suffix.Contains(reverse("apple")) {
		t.Fatal("expected suffix index to contain reversed word after restore")
	}
	if idx.Lengths.Lookup(5).IsEmpty() {
		t.Fatal("expected length bucket to contain id after restore")
	}
}

func TestAddReportsDepthGuardDrop(t *testing.T) {
	idx := New(10, testDistance, 1)
	if !idx.Add("aaaa", 0) {
		t.Fatal("expected root insert to report success")
	}
	if !idx.Add("aaab", 1) {
		t.Fatal("expected first child insert to report success")
	}
	if idx.Add("baaa", 2) {
		t.Fatal("expected depth guard to report failure for the third insert")
	}
	// The other four indices are unaffected by a BK-tree depth-guard drop.
	if !idx.Prefix.Contains("baaa") {
		t.Fatal("expected prefix index to still contain the dropped word")
	}
}

func TestOptimizeDropsInactiveIDs(t *testing.T) {
	idx := New(10, testDistance, 0)
	idx.Add("apple", 0)
	idx.Add("apply", 1)
	idx.Optimize(func(id int) bool { return id != 0 })
	if idx.Grams.Lookup("ap").Contains(0) {
		t.Fatal("expected optimize to drop inactive id 0")
	}
	if !idx.Grams.Lookup("ap").Contains(1) {
		t.Fatal("expected optimize to keep active id 1")
	}
}

func TestValidateCleanBuild(t *testing.T) {
	dict := seedDict("apple", "banana")
	in := interner.New()
	idx := New(10, testDistance, 0)
	idx.BulkBuild(context.Background(), dict, in)

	res := Validate(dict, idx, in)
	if !res.OK() {
		t.Fatalf("expected clean validate, got %+v", res)
	}
}

func TestValidateDetectsMissingFromPrefix(t *testing.T) {
	dict := seedDict("apple", "banana")
	in := interner.New()
	idx := New(10, testDistance, 0)
	idx.BulkBuild(context.Background(), dict, in)

	idx.Prefix.Remove("apple")
	res := Validate(dict, idx, in)
	if res.OK() {
		t.Fatal("expected validate to detect missing prefix entry")
	}
	if len(res.MissingFromPrefix) != 1 || res.MissingFromPrefix[0] != "apple" {
		t.Fatalf("expected apple reported missing, got %v", res.MissingFromPrefix)
	}
}

func TestReverseRoundTrip(t *testing.T) {
	if reverse(reverse("apple")) != "apple" {
		t.Fatal("expected double reverse to be identity")
	}
	if reverse("") != "" {
		t.Fatal("expected reverse of empty string to be empty")
	}
}
