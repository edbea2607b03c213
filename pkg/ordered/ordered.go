// Package ordered implements the ordered string index used for prefix and
// suffix queries: a set of byte strings that can be range-scanned from the
// lexicographic lower bound of a prefix in O(matches + log n).
//
// It is backed by github.com/tchap/go-patricia/v2, the teacher's own
// prefix-trie library. A patricia trie's VisitSubtree walks exactly the
// subtree rooted at a given prefix, which is the same traversal the
// teacher already uses in pkg/suggest/trie.go for completion lookups —
// here it is generalized into a standalone ordered set rather than a
// frequency-ranked completer.
package ordered

import (
	"github.com/tchap/go-patricia/v2/patricia"
)

// present is the sentinel Item stored at every key; the index only cares
// about membership, not an associated payload.
var present = struct{}{}

// Set is an ordered set of byte strings.
type Set struct {
	trie *patricia.Trie
	size int
}

// New returns an empty ordered set.
func New() *Set {
	return &Set{trie: patricia.NewTrie()}
}

// Insert adds word to the set. Idempotent.
func (s *Set) Insert(word string) {
	if s.trie.Get(patricia.Prefix(word)) != nil {
		return
	}
	s.trie.Insert(patricia.Prefix(word), present)
	s.size++
}

// Remove removes word from the set, if present.
func (s *Set) Remove(word string) bool {
	if s.trie.Delete(patricia.Prefix(word)) {
		s.size--
		return true
	}
	return false
}

// Contains reports whether word is a member.
func (s *Set) Contains(word string) bool {
	return s.trie.Get(patricia.Prefix(word)) != nil
}

// Len returns the number of members.
func (s *Set) Len() int {
	return s.size
}

// All returns every member in lexicographic order.
func (s *Set) All() []string {
	out := make([]string, 0, s.size)
	s.trie.Visit(func(p patricia.Prefix, _ patricia.Item) error {
		out = append(out, string(p))
		return nil
	})
	return out
}

// RangeFromPrefix visits every member sharing prefix, in lexicographic
// order, starting at the lower bound of prefix. Returning false from visit
// stops the scan. Runs in O(matches + log n).
func (s *Set) RangeFromPrefix(prefix string, visit func(word string) bool) {
	stop := false
	s.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		if stop {
			return nil
		}
		if !visit(string(p)) {
			stop = true
		}
		return nil
	})
}

// PrefixMatches returns every member sharing prefix, in lexicographic
// order.
func (s *Set) PrefixMatches(prefix string) []string {
	var out []string
	s.RangeFromPrefix(prefix, func(word string) bool {
		out = append(out, word)
		return true
	})
	return out
}
