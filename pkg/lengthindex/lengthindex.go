// Package lengthindex implements the length bucket index: a map from word
// length to the set of IDs of active words of that length.
package lengthindex

import (
	"github.com/bastiangx/lexidx/pkg/postings"
)

// Index maps word length to a posting list of IDs.
type Index struct {
	buckets map[int]*postings.Set
}

// New returns an empty length index.
func New() *Index {
	return &Index{buckets: make(map[int]*postings.Set)}
}

// Reserve pre-creates empty buckets for lengths 0..maxLen, so bulk build
// can populate them without per-worker map contention.
func (idx *Index) Reserve(maxLen int) {
	for l := 0; l <= maxLen; l++ {
		if _, ok := idx.buckets[l]; !ok {
			idx.buckets[l] = postings.New()
		}
	}
}

// Add registers id under the bucket for len(word).
func (idx *Index) Add(length, id int) {
	pl, ok := idx.buckets[length]
	if !ok {
		pl = postings.New()
		idx.buckets[length] = pl
	}
	pl.Add(id)
}

// Remove removes id from the bucket for length, if present.
func (idx *Index) Remove(length, id int) {
	if pl, ok := idx.buckets[length]; ok {
		pl.Remove(id)
	}
}

// Lookup returns the posting list for an exact length, or an empty set.
func (idx *Index) Lookup(length int) *postings.Set {
	if pl, ok := idx.buckets[length]; ok {
		return pl
	}
	return postings.New()
}

// LookupRange returns the union of buckets min..max inclusive.
func (idx *Index) LookupRange(min, max int) *postings.Set {
	result := postings.New()
	if min > max {
		return result
	}
	for l := min; l <= max; l++ {
		if pl, ok := idx.buckets[l]; ok {
			result.UnionWith(pl)
		}
	}
	return result
}

// DropEmpty removes every bucket whose posting list is empty.
func (idx *Index) DropEmpty() {
	for l, pl := range idx.buckets {
		if pl.IsEmpty() {
			delete(idx.buckets, l)
		}
	}
}

// Buckets exposes the underlying map for snapshotting.
func (idx *Index) Buckets() map[int]*postings.Set {
	return idx.buckets
}
