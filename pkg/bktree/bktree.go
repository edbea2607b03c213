// Package bktree implements a BK-tree, a metric-space tree that supports
// bounded edit-distance search via the triangle inequality.
//
// Grounded on nil0ka/imagedupfinder's BKTree (map[int]*bkNode children,
// iterative insert, triangle-inequality pruned search), generalized from a
// perceptual-hash distance over uint64 to the package's configurable
// distance function over strings, and changed from recursive to iterative
// search per the "must be iterative, not recursive" requirement and the
// "pointer-graph -> arena + integer handles" design note: nodes live in a
// slice arena addressed by index rather than behind individual pointers.
package bktree

// DistanceFunc computes a bounded distance between a and b, returning a
// value > cutoff if the true distance exceeds cutoff.
type DistanceFunc func(a, b string, cutoff int) int

const noChild = -1

type node struct {
	word     string
	id       int
	children map[int]int // edge label (distance) -> child index in arena
}

// Tree is a BK-tree over a configured distance function and query cap.
type Tree struct {
	arena    []node
	root     int
	distance DistanceFunc
	maxD     int // configured query cap (MAX_D)
	maxDepth int // insert depth guard; <= 0 means unbounded

	// batchSize is how many inserts BatchInsert performs between calls to
	// its collectHint, so host runtimes can reclaim intermediates.
	batchSize int
}

// Result is a single similarity hit.
type Result struct {
	ID       int
	Distance int
}

// New creates an empty BK-tree configured with distanceFn and a query cap
// maxD. Queries supplying a larger max_d are silently clamped to maxD.
// maxDepth bounds how many edges Insert will walk before aborting; <= 0
// disables the guard entirely.
func New(distanceFn DistanceFunc, maxD int, maxDepth int) *Tree {
	return &Tree{
		root:      noChild,
		distance:  distanceFn,
		maxD:      maxD,
		maxDepth:  maxDepth,
		batchSize: 1000,
	}
}

// MaxD returns the configured query cap.
func (t *Tree) MaxD() int {
	return t.maxD
}

// Size returns the number of nodes in the tree.
func (t *Tree) Size() int {
	return len(t.arena)
}

// Insert adds (word, id) to the tree, returning false if the configured
// depth guard was hit before a slot was found — the tree is left
// unchanged in that case, and the caller drops the insert. Iterative:
// walks from the root, descending one edge per step, so arbitrarily deep
// branches never overflow the call stack. If an existing node's word has
// distance 0 from word, that node's id is overwritten (treated as an
// update) instead of inserting a duplicate.
func (t *Tree) Insert(word string, id int) bool {
	newIdx := len(t.arena)
	t.arena = append(t.arena, node{word: word, id: id, children: make(map[int]int)})

	if t.root == noChild {
		t.root = newIdx
		return true
	}

	cur := t.root
	depth := 0
	for {
		if t.maxDepth > 0 && depth >= t.maxDepth {
			t.arena = t.arena[:newIdx]
			return false
		}
		// The cutoff is at least the longer word's length, so d is the exact
		// distance and every edge label is exact.
		d := t.distance(word, t.arena[cur].word, max(len(word), len(t.arena[cur].word)))
		if d == 0 {
			t.arena[cur].id = id
			// Drop the node we speculatively appended; it was never
			// linked in, so just shrink the arena back.
			t.arena = t.arena[:newIdx]
			return true
		}
		child, ok := t.arena[cur].children[d]
		if !ok {
			t.arena[cur].children[d] = newIdx
			return true
		}
		cur = child
		depth++
	}
}

// BatchInsert inserts aligned words and ids in order, returning the ids
// of any insertions the depth guard aborted. collectHint, if non-nil, is
// invoked every 1000 insertions (a fixed batch size) so host runtimes can
// reclaim intermediates between batches.
func (t *Tree) BatchInsert(words []string, ids []int, collectHint func()) []int {
	n := len(words)
	if len(ids) < n {
		n = len(ids)
	}
	var dropped []int
	for i := 0; i < n; i++ {
		if !t.Insert(words[i], ids[i]) {
			dropped = append(dropped, ids[i])
		}
		if collectHint != nil && (i+1)%t.batchSize == 0 {
			collectHint()
		}
	}
	return dropped
}

// Search finds every node within maxD of query. If maxD exceeds the
// tree's configured cap, it is silently clamped. In exhaustive mode the
// child-label window is widened by one on each side, trading extra work
// for recall of degenerate triangle-inequality edge cases. Results are
// sorted by distance ascending, tie-broken by id ascending; an exact hit
// (distance 0) is always first regardless of where sort would place it.
func (t *Tree) Search(query string, maxD int, exhaustive bool) []Result {
	if t.root == noChild {
		return nil
	}
	if maxD > t.maxD {
		maxD = t.maxD
	}
	if maxD < 0 {
		maxD = 0
	}

	widen := 0
	if exhaustive {
		widen = 1
	}

	var results []Result
	frontier := []int{t.root}

	for len(frontier) > 0 {
		idx := frontier[0]
		frontier = frontier[1:]

		n := &t.arena[idx]
		// Pruning by the triangle inequality needs the exact distance, not
		// a value capped at the query cutoff.
		d := t.distance(query, n.word, max(len(query), len(n.word)))
		if d <= maxD {
			results = append(results, Result{ID: n.id, Distance: d})
		}

		lo := d - maxD
		if lo < 1 {
			lo = 1
		}
		hi := d + maxD
		if exhaustive {
			lo -= widen
			hi += widen
		}

		for label, child := range n.children {
			if label >= lo && label <= hi {
				frontier = append(frontier, child)
			}
		}
	}

	sortResults(results)
	return results
}

// sortResults sorts by distance ascending, tie-break by id ascending, with
// an exact (distance 0) hit always placed first.
func sortResults(results []Result) {
	// Insertion sort is adequate: result sets for a bounded edit-distance
	// query are small in practice (a handful to a few hundred), and we
	// need the exact-hit-first guarantee which a plain sort.Slice on
	// (distance, id) already gives us since 0 sorts first naturally.
	for i := 1; i < len(results); i++ {
		v := results[i]
		j := i - 1
		for j >= 0 && less(v, results[j]) {
			results[j+1] = results[j]
			j--
		}
		results[j+1] = v
	}
}

func less(a, b Result) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}
