package dictionary

import "testing"

func TestInsertOrGetIDAssignsMonotonicIDs(t *testing.T) {
	d := New()
	r1, created1 := d.InsertOrGetID("apple")
	r2, created2 := d.InsertOrGetID("banana")
	if !created1 || !created2 {
		t.Fatal("expected both inserts to be births")
	}
	if r1.ID != 0 || r2.ID != 1 {
		t.Fatalf("expected monotonic ids 0,1, got %d,%d", r1.ID, r2.ID)
	}
}

func TestInsertOrGetIDIsIdempotent(t *testing.T) {
	d := New()
	r1, _ := d.InsertOrGetID("apple")
	r2, created := d.InsertOrGetID("apple")
	if created {
		t.Fatal("expected second insert of same word to not be a birth")
	}
	if r1 != r2 {
		t.Fatal("expected same record returned for repeated word")
	}
	if d.NextID() != 1 {
		t.Fatalf("expected counter to not advance on repeat insert, got %d", d.NextID())
	}
}

func TestInsertNewRejectsDuplicateWord(t *testing.T) {
	d := New()
	if _, err := d.InsertNew("apple", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.InsertNew("apple", 1); err == nil {
		t.Fatal("expected error inserting duplicate word")
	}
}

func TestInsertNewRejectsDuplicateID(t *testing.T) {
	d := New()
	if _, err := d.InsertNew("apple", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.InsertNew("banana", 0); err == nil {
		t.Fatal("expected error inserting duplicate id")
	}
}

func TestInsertNewAdvancesCounter(t *testing.T) {
	d := New()
	if _, err := d.InsertNew("apple", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NextID() != 6 {
		t.Fatalf("expected counter to advance to 6, got %d", d.NextID())
	}
	r, created := d.InsertOrGetID("banana")
	if !created || r.ID != 6 {
		t.Fatalf("expected next id 6, got %d (created=%v)", r.ID, created)
	}
}

func TestMarkDeletedAndMarkActive(t *testing.T) {
	d := New()
	r, _ := d.InsertOrGetID("apple")
	if !d.MarkDeleted(r.ID) {
		t.Fatal("expected mark-deleted to succeed on active record")
	}
	if d.MarkDeleted(r.ID) {
		t.Fatal("expected mark-deleted on already-deleted record to report no-op")
	}
	if d.IsActive(r.ID) {
		t.Fatal("expected record to be inactive after delete")
	}
	if !d.MarkActive(r.ID) {
		t.Fatal("expected mark-active to succeed on deleted record")
	}
	if !d.IsActive(r.ID) {
		t.Fatal("expected record to be active after restore")
	}
}

func TestMarkDeletedUnknownID(t *testing.T) {
	d := New()
	if d.MarkDeleted(42) {
		t.Fatal("expected mark-deleted on unknown id to report false")
	}
}

func TestGetByWordAndGetByID(t *testing.T) {
	d := New()
	r, _ := d.InsertOrGetID("apple")
	byWord, ok := d.GetByWord("apple")
	if !ok || byWord != r {
		t.Fatal("expected GetByWord to find the record")
	}
	byID, ok := d.GetByID(r.ID)
	if !ok || byID != r {
		t.Fatal("expected GetByID to find the record")
	}
	if _, ok := d.GetByWord("missing"); ok {
		t.Fatal("expected missing word to not be found")
	}
}

func TestLenAndActiveCount(t *testing.T) {
	d := New()
	a, _ := d.InsertOrGetID("apple")
	d.InsertOrGetID("banana")
	d.MarkDeleted(a.ID)
	if d.Len() != 2 {
		t.Fatalf("expected len 2, got %d", d.Len())
	}
	if d.ActiveCount() != 1 {
		t.Fatalf("expected active count 1, got %d", d.ActiveCount())
	}
}

func TestIDEnvelope(t *testing.T) {
	d := New()
	if _, _, ok := d.IDEnvelope(); ok {
		t.Fatal("expected empty dictionary to report no envelope")
	}
	d.InsertNew("a", 3)
	d.InsertNew("b", 7)
	d.InsertNew("c", 1)
	min, max, ok := d.IDEnvelope()
	if !ok || min != 1 || max != 7 {
		t.Fatalf("expected envelope [1,7], got [%d,%d] ok=%v", min, max, ok)
	}
}

func TestValidateCleanDictionary(t *testing.T) {
	d := New()
	d.InsertOrGetID("apple")
	d.InsertOrGetID("banana")
	if n := d.Validate(); n != 0 {
		t.Fatalf("expected 0 mismatches on clean dictionary, got %d", n)
	}
}

func TestAllReturnsEveryRecord(t *testing.T) {
	d := New()
	d.InsertOrGetID("apple")
	d.InsertOrGetID("banana")
	d.InsertOrGetID("cherry")
	if len(d.All()) != 3 {
		t.Fatalf("expected 3 records, got %d", len(d.All()))
	}
}
