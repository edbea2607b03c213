// Package twogram implements the 2-gram inverted index: a map from each
// 2-byte substring to the posting list of IDs of words containing it.
// Grounded on standardbeagle/lci's token->postings map (pkg/postings here
// plays the role lci's map[types.FileID]int plays there), generalized from
// whole-word tokens to fixed 2-byte grams.
package twogram

import (
	"github.com/bastiangx/lexidx/pkg/postings"
)

// Index maps a 2-byte gram to the posting list of IDs whose word contains
// that gram.
type Index struct {
	grams map[string]*postings.Set
}

// New returns an empty 2-gram index.
func New() *Index {
	return &Index{grams: make(map[string]*postings.Set)}
}

// Grams returns the set of distinct 2-byte substrings of word. Words
// shorter than 2 bytes contribute nothing.
func Grams(word string) []string {
	if len(word) < 2 {
		return nil
	}
	seen := make(map[string]bool, len(word)-1)
	out := make([]string, 0, len(word)-1)
	for i := 0; i+2 <= len(word); i++ {
		g := word[i : i+2]
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// Register adds id to the posting list of every distinct 2-gram in word.
// Creates a posting list on first sight of a gram.
func (idx *Index) Register(word string, id int) {
	for _, g := range Grams(word) {
		pl, ok := idx.grams[g]
		if !ok {
			pl = postings.New()
			idx.grams[g] = pl
		}
		pl.Add(id)
	}
}

// Unregister removes id from the posting list of every distinct 2-gram in
// word. Does not drop empty gram entries; call Optimize for that.
func (idx *Index) Unregister(word string, id int) {
	for _, g := range Grams(word) {
		if pl, ok := idx.grams[g]; ok {
			pl.Remove(id)
		}
	}
}

// Lookup returns the posting list for gram, or an empty set if unseen.
// The returned set must not be mutated by the caller.
func (idx *Index) Lookup(gram string) *postings.Set {
	if pl, ok := idx.grams[gram]; ok {
		return pl
	}
	return postings.New()
}

// AddToGram registers id under gram directly, creating the gram's posting
// list if this is its first sighting. Unlike Register, it does not derive
// gram membership from a word; used by the snapshot codec, which persists
// ids per gram without the originating word.
func (idx *Index) AddToGram(gram string, id int) {
	pl, ok := idx.grams[gram]
	if !ok {
		pl = postings.New()
		idx.grams[gram] = pl
	}
	pl.Add(id)
}

// Optimize removes deleted IDs from every posting list (given a predicate
// reporting whether an ID is still active) and drops grams left with an
// empty posting list.
func (idx *Index) Optimize(isActive func(id int) bool) {
	for gram, pl := range idx.grams {
		for _, id := range pl.Iter() {
			if !isActive(id) {
				pl.Remove(id)
			}
		}
		if pl.IsEmpty() {
			delete(idx.grams, gram)
		}
	}
}

// GramCount returns the number of distinct grams indexed.
func (idx *Index) GramCount() int {
	return len(idx.grams)
}

// AllGrams exposes every gram key currently indexed with its posting
// list, for snapshotting.
func (idx *Index) AllGrams() map[string]*postings.Set {
	return idx.grams
}
