// Package builder constructs and maintains the five derived indices
// (ordered prefix/suffix, 2-gram, length bucket, BK-tree) from the
// authoritative dictionary.
//
// Grounded on hupe1980/vecgo's blobstore.CachingStore.fetchMissingRuns,
// whose errgroup.WithContext + SetLimit pattern drives parallel I/O over a
// list of independent ranges; here the same shape drives parallel index
// construction over a list of independent words during bulk build.
package builder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bastiangx/lexidx/pkg/bktree"
	"github.com/bastiangx/lexidx/pkg/dictionary"
	"github.com/bastiangx/lexidx/pkg/interner"
	"github.com/bastiangx/lexidx/pkg/lengthindex"
	"github.com/bastiangx/lexidx/pkg/ordered"
	"github.com/bastiangx/lexidx/pkg/twogram"
)

// buildParallelism bounds concurrent index-construction goroutines during
// bulk build, mirroring the FD/rate-limit ceiling vecgo's blobstore applies
// to parallel range fetches.
const buildParallelism = 4

// Indices bundles every derived index the builder maintains. The ordered
// prefix and suffix sets hold words only; since the dictionary's word<->id
// mapping is one-to-one, a word found there is resolved to an id via the
// dictionary itself.
type Indices struct {
	Prefix  *ordered.Set
	Suffix  *ordered.Set
	Grams   *twogram.Index
	Lengths *lengthindex.Index
	Sim     *bktree.Tree
}

// New creates an empty index bundle. simCap is the BK-tree's configured
// query cap (MAX_D); insertDepthGuard bounds how deep a single BK-tree
// insert may walk before aborting (<= 0 disables the guard).
func New(simCap int, distanceFn bktree.DistanceFunc, insertDepthGuard int) *Indices {
	return &Indices{
		Prefix:  ordered.New(),
		Suffix:  ordered.New(),
		Grams:   twogram.New(),
		Lengths: lengthindex.New(),
		Sim:     bktree.New(distanceFn, simCap, insertDepthGuard),
	}
}

// reverse returns s with its bytes reversed, used to key the suffix index
// so a prefix scan over reversed words is a suffix scan over the
// originals.
func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// BulkBuild constructs every derived index from scratch over the
// dictionary's current active records. Steps touching disjoint index
// structures (prefix, suffix, 2-gram, length) run concurrently; the
// BK-tree is populated afterward since bktree.Insert is not
// concurrency-safe against itself. Returns the ids of any words the
// BK-tree's insert depth guard dropped; every other index always
// succeeds.
func (idx *Indices) BulkBuild(ctx context.Context, dict *dictionary.Dictionary, in *interner.Interner) ([]int, error) {
	records := dict.All()
	words := make([]string, 0, len(records))
	ids := make([]int, 0, len(records))
	maxLen := 0
	for _, r := range records {
		if r.Deleted {
			continue
		}
		w := in.Intern(r.Word)
		words = append(words, w)
		ids = append(ids, r.ID)
		if len(w) > maxLen {
			maxLen = len(w)
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(buildParallelism)

	g.Go(func() error {
		for _, w := range words {
			idx.Prefix.Insert(w)
		}
		return nil
	})
	g.Go(func() error {
		for _, w := range words {
			idx.Suffix.Insert(reverse(w))
		}
		return nil
	})
	g.Go(func() error {
		for i, w := range words {
			idx.Grams.Register(w, ids[i])
		}
		return nil
	})
	g.Go(func() error {
		idx.Lengths.Reserve(maxLen)
		for i, w := range words {
			idx.Lengths.Add(len(w), ids[i])
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("builder: bulk build: %w", err)
	}

	// BK-tree insertion order affects tree shape but not correctness;
	// build it after the concurrent pass, sequentially. No collect hint is
	// passed to BatchInsert.
	dropped := idx.Sim.BatchInsert(words, ids, nil)

	return dropped, nil
}

// Add incrementally inserts a single word into every derived index.
// Called on dictionary birth events outside of bulk build. Returns false
// if the BK-tree's insert depth guard dropped the word; every other
// index always succeeds.
func (idx *Indices) Add(word string, id int) bool {
	idx.Prefix.Insert(word)
	idx.Suffix.Insert(reverse(word))
	idx.Grams.Register(word, id)
	idx.Lengths.Add(len(word), id)
	return idx.Sim.Insert(word, id)
}

// Delete removes id's footprint from the prefix, suffix, and length
// indices. The 2-gram index keeps its entries until the next Optimize or
// bulk rebuild, the BK-tree until the next bulk rebuild (Optimize does not
// touch it): physically removing a BK-tree node would
// require re-parenting its subtree, and the 2-gram posting lists are
// compacted separately rather than on every delete.
func (idx *Indices) Delete(word string, id int) {
	idx.Prefix.Remove(word)
	idx.Suffix.Remove(reverse(word))
	idx.Lengths.Remove(len(word), id)
}

// Restore is the inverse of Delete: it re-inserts word into the prefix,
// suffix, length, and BK-tree indices. The 2-gram index never lost its
// entry for id, so there is nothing to re-add there. Returns false if
// the BK-tree's insert depth guard dropped the word.
func (idx *Indices) Restore(word string, id int) bool {
	idx.Prefix.Insert(word)
	idx.Suffix.Insert(reverse(word))
	idx.Lengths.Add(len(word), id)
	return idx.Sim.Insert(word, id)
}

// BuildSim populates only the BK-tree from the dictionary's current
// active records, leaving the other four indices untouched. Used on the
// snapshot-load fast path, where prefix/suffix/gram/length already came
// from the snapshot and only the BK-tree (never persisted) needs
// reconstructing. Returns the ids of any words the insert depth guard
// dropped.
func (idx *Indices) BuildSim(dict *dictionary.Dictionary, in *interner.Interner) []int {
	records := dict.All()
	words := make([]string, 0, len(records))
	ids := make([]int, 0, len(records))
	for _, r := range records {
		if r.Deleted {
			continue
		}
		w := in.Intern(r.Word)
		words = append(words, w)
		ids = append(ids, r.ID)
	}
	return idx.Sim.BatchInsert(words, ids, nil)
}

// Optimize compacts the 2-gram and length posting lists against the
// dictionary's current active set, dropping IDs and buckets left behind
// by deletions.
func (idx *Indices) Optimize(isActive func(id int) bool) {
	idx.Grams.Optimize(isActive)
	idx.Lengths.DropEmpty()
}

// ValidateResult reports the outcome of a cross-check between the
// dictionary and its derived indices.
type ValidateResult struct {
	MismatchedRecords int
	MissingFromPrefix []string
	MissingFromSuffix []string
}

// Validate confirms every active record in dict has a corresponding entry
// in the prefix and suffix indices. It does not attempt to validate the
// 2-gram, length, or similarity indices directly since they are
// posting-list or tree structures without a single canonical per-word
// lookup; their consistency is instead exercised by query-level round
// trips.
func Validate(dict *dictionary.Dictionary, idx *Indices, in *interner.Interner) ValidateResult {
	var res ValidateResult
	res.MismatchedRecords = dict.Validate()
	for _, r := range dict.All() {
		if r.Deleted {
			continue
		}
		w := in.Intern(r.Word)
		if !idx.Prefix.Contains(w) {
			res.MissingFromPrefix = append(res.MissingFromPrefix, w)
		}
		if !idx.Suffix.Contains(reverse(w)) {
			res.MissingFromSuffix = append(res.MissingFromSuffix, w)
		}
	}
	return res
}

// OK reports whether Validate found no inconsistencies.
func (v ValidateResult) OK() bool {
	return v.MismatchedRecords == 0 && len(v.MissingFromPrefix) == 0 && len(v.MissingFromSuffix) == 0
}
