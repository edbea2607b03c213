package interner

import "testing"

func TestInternReturnsSameHandle(t *testing.T) {
	in := New()
	a := in.Intern("apple")
	b := in.Intern("apple")
	if a != b {
		t.Fatal("expected same canonical value")
	}
	if in.Len() != 1 {
		t.Fatalf("expected 1 interned string, got %d", in.Len())
	}
}

func TestInternDistinctStrings(t *testing.T) {
	in := New()
	in.Intern("apple")
	in.Intern("banana")
	if in.Len() != 2 {
		t.Fatalf("expected 2 interned strings, got %d", in.Len())
	}
}

func TestLookup(t *testing.T) {
	in := New()
	if _, ok := in.Lookup("apple"); ok {
		t.Fatal("expected apple to not be interned yet")
	}
	in.Intern("apple")
	if _, ok := in.Lookup("apple"); !ok {
		t.Fatal("expected apple to be interned")
	}
}

func TestTeardown(t *testing.T) {
	in := New()
	in.Intern("apple")
	in.Teardown()
	if in.Len() != 0 {
		t.Fatal("expected teardown to clear interned storage")
	}
}
