// Package postings implements a growable dense-ID set used as the posting
// list primitive for the 2-gram index, length index, and ID-range
// enumeration. It wraps github.com/RoaringBitmap/roaring, the same
// bitmap library wizenheimer/blaze uses for its inverted-index posting
// lists, since a roaring bitmap already auto-grows and already exposes
// set union/intersection without us hand-rolling word-array growth.
package postings

import (
	"github.com/RoaringBitmap/roaring"
)

// Set is a set of non-negative integer IDs.
type Set struct {
	bm *roaring.Bitmap
}

// New returns an empty posting list.
func New() *Set {
	return &Set{bm: roaring.NewBitmap()}
}

// FromIDs builds a posting list containing exactly the given IDs.
func FromIDs(ids ...int) *Set {
	s := New()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id into the set. Idempotent. Negative IDs are ignored.
func (s *Set) Add(id int) {
	if id < 0 {
		return
	}
	s.bm.Add(uint32(id))
}

// Remove removes id from the set, if present.
func (s *Set) Remove(id int) {
	if id < 0 {
		return
	}
	s.bm.Remove(uint32(id))
}

// Contains reports whether id is a member. Out-of-range or negative IDs
// answer false.
func (s *Set) Contains(id int) bool {
	if id < 0 {
		return false
	}
	return s.bm.Contains(uint32(id))
}

// Clear empties the set in place.
func (s *Set) Clear() {
	s.bm.Clear()
}

// Len returns the number of members (popcount).
func (s *Set) Len() int {
	return int(s.bm.GetCardinality())
}

// IsEmpty reports whether the set has no members.
func (s *Set) IsEmpty() bool {
	return s.bm.IsEmpty()
}

// Iter returns the set's members in ascending order.
func (s *Set) Iter() []int {
	arr := s.bm.ToArray()
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

// IntersectWith mutates s in place to hold the intersection of s and other.
func (s *Set) IntersectWith(other *Set) {
	if other == nil {
		s.bm.Clear()
		return
	}
	s.bm.And(other.bm)
}

// UnionWith mutates s in place to hold the union of s and other.
func (s *Set) UnionWith(other *Set) {
	if other == nil {
		return
	}
	s.bm.Or(other.bm)
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	return &Set{bm: s.bm.Clone()}
}

// Union returns a new set holding the union of a and b, leaving both
// untouched.
func Union(a, b *Set) *Set {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	return &Set{bm: roaring.Or(a.bm, b.bm)}
}

// Intersect returns a new set holding the intersection of a and b, leaving
// both untouched.
func Intersect(a, b *Set) *Set {
	if a == nil || b == nil {
		return New()
	}
	return &Set{bm: roaring.And(a.bm, b.bm)}
}

// Difference returns a new set holding the members of a not present in b.
func Difference(a, b *Set) *Set {
	if a == nil {
		return New()
	}
	if b == nil {
		return a.Clone()
	}
	return &Set{bm: roaring.AndNot(a.bm, b.bm)}
}
