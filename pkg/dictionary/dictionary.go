// Package dictionary is the authoritative store of records: the
// word<->id mapping and logical-deletion flags every index is built from.
//
// The teacher's original pkg/dictionary held a lazily-loaded chunk cache
// keyed by frequency-ranked binary files; that model doesn't fit a
// single-writer authoritative record store, so this package is a fresh
// implementation of spec.md §3-4.8, kept in the teacher's package location
// and doc-comment register. The binary chunk framing idiom the teacher
// used there survives, adapted, in pkg/snapshot.
package dictionary

import "fmt"

// Record is the canonical (id, word, deleted) triple.
type Record struct {
	ID      int
	Word    string
	Deleted bool
}

// Dictionary holds two consistent views of the same record set: by_word
// and by_id. Single-writer; callers must not mutate concurrently with
// queries.
type Dictionary struct {
	byWord map[string]*Record
	byID   map[int]*Record
	nextID int
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		byWord: make(map[string]*Record),
		byID:   make(map[int]*Record),
	}
}

// GetByWord returns the record for word, if any.
func (d *Dictionary) GetByWord(word string) (*Record, bool) {
	r, ok := d.byWord[word]
	return r, ok
}

// GetByID returns the record for id, if any.
func (d *Dictionary) GetByID(id int) (*Record, bool) {
	r, ok := d.byID[id]
	return r, ok
}

// NextID returns the next id the monotonic counter will assign, without
// consuming it.
func (d *Dictionary) NextID() int {
	return d.nextID
}

// InsertNew creates a new active record for word with the given id and
// advances the counter past id if needed. Returns an error if word is
// already present (idempotence at this layer is the caller's job — see
// InsertOrGetID).
func (d *Dictionary) InsertNew(word string, id int) (*Record, error) {
	if _, ok := d.byWord[word]; ok {
		return nil, fmt.Errorf("dictionary: word %q already present", word)
	}
	if _, ok := d.byID[id]; ok {
		return nil, fmt.Errorf("dictionary: id %d already present", id)
	}
	r := &Record{ID: id, Word: word, Deleted: false}
	d.byWord[word] = r
	d.byID[id] = r
	if id >= d.nextID {
		d.nextID = id + 1
	}
	return r, nil
}

// InsertOrGetID is the idempotent entry point for adding a word: if word
// already exists, its existing record is returned unchanged (the birth
// event is a no-op on the ID counter, per the idempotence law). Otherwise
// a new record is born with the next monotonic id.
func (d *Dictionary) InsertOrGetID(word string) (*Record, bool) {
	if r, ok := d.byWord[word]; ok {
		return r, false
	}
	id := d.nextID
	d.nextID++
	r := &Record{ID: id, Word: word, Deleted: false}
	d.byWord[word] = r
	d.byID[id] = r
	return r, true
}

// MarkDeleted sets the deletion flag for id, if present. Reports whether
// the record existed and was previously active.
func (d *Dictionary) MarkDeleted(id int) bool {
	r, ok := d.byID[id]
	if !ok || r.Deleted {
		return false
	}
	r.Deleted = true
	return true
}

// MarkActive clears the deletion flag for id, if present. Reports whether
// the record existed and was previously deleted.
func (d *Dictionary) MarkActive(id int) bool {
	r, ok := d.byID[id]
	if !ok || !r.Deleted {
		return false
	}
	r.Deleted = false
	return true
}

// IsActive reports whether id refers to a non-deleted record. Unknown IDs
// answer false.
func (d *Dictionary) IsActive(id int) bool {
	r, ok := d.byID[id]
	return ok && !r.Deleted
}

// Len returns the total number of records, active and deleted.
func (d *Dictionary) Len() int {
	return len(d.byID)
}

// ActiveCount returns the number of active records.
func (d *Dictionary) ActiveCount() int {
	n := 0
	for _, r := range d.byID {
		if !r.Deleted {
			n++
		}
	}
	return n
}

// All returns every record, in no particular order.
func (d *Dictionary) All() []*Record {
	out := make([]*Record, 0, len(d.byID))
	for _, r := range d.byID {
		out = append(out, r)
	}
	return out
}

// IDEnvelope returns the minimum and maximum id currently held, and
// whether the dictionary is non-empty.
func (d *Dictionary) IDEnvelope() (min, max int, ok bool) {
	first := true
	for id := range d.byID {
		if first {
			min, max = id, id
			first = false
			continue
		}
		if id < min {
			min = id
		}
		if id > max {
			max = id
		}
	}
	return min, max, !first
}

// Validate cross-checks the two views for internal consistency and
// returns the count of mismatches found. Never mutates.
func (d *Dictionary) Validate() int {
	mismatches := 0
	for word, r := range d.byWord {
		if r.Word != word {
			mismatches++
			continue
		}
		other, ok := d.byID[r.ID]
		if !ok || other != r {
			mismatches++
		}
	}
	for id, r := range d.byID {
		if r.ID != id {
			mismatches++
			continue
		}
		other, ok := d.byWord[r.Word]
		if !ok || other != r {
			mismatches++
		}
	}
	return mismatches
}
