// Package query implements the query evaluator: dispatch over every query
// kind the engine supports, each backed by the derived index best suited
// to it, with a uniform active-filter-then-sort postprocessing step.
//
// Grounded on Zeeeepa/blaze's query.go, whose Query type dispatches on a
// query-kind enum into term-specific evaluation functions that each
// return a posting set before a shared final-stage filter runs; the shape
// here is the same, generalized from blaze's token-only term grammar to
// the full exact/prefix/suffix/substring/similarity/boolean/complex
// vocabulary this package needs.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bastiangx/lexidx/pkg/builder"
	"github.com/bastiangx/lexidx/pkg/dictionary"
	"github.com/bastiangx/lexidx/pkg/interner"
	"github.com/bastiangx/lexidx/pkg/postings"
	"github.com/bastiangx/lexidx/pkg/twogram"
)

// DefaultSimMaxD is the similarity query's default edit-distance cutoff
// when the caller supplies none.
const DefaultSimMaxD = 2

// Hit is a single result: an id and, for similarity queries, its distance
// from the query word (zero for every other query kind).
type Hit struct {
	ID       int
	Distance int
}

// Result is the outcome of evaluating one query.
type Result struct {
	Hits       []Hit
	OutOfRange bool
	Err        error
}

// Evaluator answers queries against a dictionary and its derived indices.
// It never mutates either.
type Evaluator struct {
	Dict *dictionary.Dictionary
	Idx  *builder.Indices
	In   *interner.Interner
}

// New returns an evaluator over the given dictionary, index bundle, and
// interner.
func New(dict *dictionary.Dictionary, idx *builder.Indices, in *interner.Interner) *Evaluator {
	return &Evaluator{Dict: dict, Idx: idx, In: in}
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// finalize applies the active-filter and ascending-ID sort every query
// result passes through. Similarity results are instead sorted by
// distance then ID, per the "not by ID alone" rule; callers of similarity
// queries pass sortByDistance=true.
func (e *Evaluator) finalize(hits []Hit, sortByDistance bool) []Hit {
	out := hits[:0]
	for _, h := range hits {
		if e.Dict.IsActive(h.ID) {
			out = append(out, h)
		}
	}
	if sortByDistance {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Distance != out[j].Distance {
				return out[i].Distance < out[j].Distance
			}
			return out[i].ID < out[j].ID
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

func idsToHits(ids []int) []Hit {
	out := make([]Hit, len(ids))
	for i, id := range ids {
		out[i] = Hit{ID: id}
	}
	return out
}

// Exact performs an O(1) by_word lookup.
func (e *Evaluator) Exact(word string) Result {
	r, ok := e.Dict.GetByWord(word)
	if !ok {
		return Result{}
	}
	return Result{Hits: e.finalize([]Hit{{ID: r.ID}}, false)}
}

// Prefix returns every active word beginning with p.
func (e *Evaluator) Prefix(p string) Result {
	if e.Idx == nil || e.Idx.Prefix == nil {
		return Result{}
	}
	var ids []int
	e.Idx.Prefix.RangeFromPrefix(p, func(word string) bool {
		if r, ok := e.Dict.GetByWord(word); ok {
			ids = append(ids, r.ID)
		}
		return true
	})
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Suffix returns every active word ending with s.
func (e *Evaluator) Suffix(s string) Result {
	if e.Idx == nil || e.Idx.Suffix == nil {
		return Result{}
	}
	var ids []int
	e.Idx.Suffix.RangeFromPrefix(reverse(s), func(revWord string) bool {
		if r, ok := e.Dict.GetByWord(reverse(revWord)); ok {
			ids = append(ids, r.ID)
		}
		return true
	})
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Substring returns every active word containing k anywhere. Single-byte
// keys fall back to a linear scan; keys of length >=2 intersect 2-gram
// posting lists before verifying each survivor actually contains k, since
// gram overlap is necessary but not sufficient.
func (e *Evaluator) Substring(k string) Result {
	if k == "" {
		return Result{}
	}
	if len(k) == 1 {
		var ids []int
		for _, r := range e.Dict.All() {
			if !r.Deleted && strings.Contains(r.Word, k) {
				ids = append(ids, r.ID)
			}
		}
		return Result{Hits: e.finalize(idsToHits(ids), false)}
	}

	grams := twogram.Grams(k)
	if len(grams) == 0 {
		return Result{}
	}
	var candidates *postings.Set
	if e.Idx != nil && e.Idx.Grams != nil {
		candidates = e.Idx.Grams.Lookup(grams[0]).Clone()
		for _, g := range grams[1:] {
			candidates.IntersectWith(e.Idx.Grams.Lookup(g))
			if candidates.IsEmpty() {
				break
			}
		}
	}
	var ids []int
	if candidates != nil {
		for _, id := range candidates.Iter() {
			r, ok := e.Dict.GetByID(id)
			if ok && !r.Deleted && strings.Contains(r.Word, k) {
				ids = append(ids, id)
			}
		}
	}
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Sim runs a standard (non-exhaustive) similarity search. maxD<0 selects
// DefaultSimMaxD.
func (e *Evaluator) Sim(word string, maxD int) Result {
	return e.similarity(word, maxD, false)
}

// SimPlus runs an exhaustive similarity search.
func (e *Evaluator) SimPlus(word string, maxD int) Result {
	return e.similarity(word, maxD, true)
}

func (e *Evaluator) similarity(word string, maxD int, exhaustive bool) Result {
	if maxD < 0 {
		maxD = DefaultSimMaxD
	}
	if e.Idx == nil || e.Idx.Sim == nil {
		return Result{}
	}
	var hits []Hit
	for _, r := range e.Idx.Sim.Search(word, maxD, exhaustive) {
		hits = append(hits, Hit{ID: r.ID, Distance: r.Distance})
	}
	return Result{Hits: e.finalize(hits, true)}
}

// Length returns every active word of exactly length n.
func (e *Evaluator) Length(n int) Result {
	if e.Idx == nil || e.Idx.Lengths == nil {
		return Result{}
	}
	return Result{Hits: e.finalize(idsToHits(e.Idx.Lengths.Lookup(n).Iter()), false)}
}

// LengthRange returns every active word whose length falls in [min, max].
func (e *Evaluator) LengthRange(min, max int) Result {
	if min > max {
		return Result{Err: fmt.Errorf("query: inverted length range [%d,%d]", min, max)}
	}
	if e.Idx == nil || e.Idx.Lengths == nil {
		return Result{}
	}
	return Result{Hits: e.finalize(idsToHits(e.Idx.Lengths.LookupRange(min, max).Iter()), false)}
}

// IDRange enumerates active IDs in [min, max] by scanning by_id. Reports
// out-of-range if the request falls entirely outside the dictionary's
// observed ID envelope.
func (e *Evaluator) IDRange(min, max int) Result {
	if min > max {
		return Result{Err: fmt.Errorf("query: inverted id range [%d,%d]", min, max)}
	}
	lo, hi, ok := e.Dict.IDEnvelope()
	if !ok || max < lo || min > hi {
		return Result{OutOfRange: true}
	}
	var ids []int
	for id := min; id <= max; id++ {
		if _, ok := e.Dict.GetByID(id); ok {
			ids = append(ids, id)
		}
	}
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Predicate reports whether a record satisfies a boolean term's
// condition, for use with And/Or/Not.
type Predicate func(r *dictionary.Record) bool

// ContainsPredicate builds a Predicate testing for a substring.
func ContainsPredicate(substr string) Predicate {
	return func(r *dictionary.Record) bool { return strings.Contains(r.Word, substr) }
}

// And returns active records satisfying every predicate, via a linear
// scan, intentionally unoptimized for correctness per the documented
// boolean-search tradeoff.
func (e *Evaluator) And(preds ...Predicate) Result {
	var ids []int
	for _, r := range e.Dict.All() {
		if r.Deleted {
			continue
		}
		all := true
		for _, p := range preds {
			if !p(r) {
				all = false
				break
			}
		}
		if all {
			ids = append(ids, r.ID)
		}
	}
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Or returns active records satisfying at least one predicate.
func (e *Evaluator) Or(preds ...Predicate) Result {
	var ids []int
	for _, r := range e.Dict.All() {
		if r.Deleted {
			continue
		}
		for _, p := range preds {
			if p(r) {
				ids = append(ids, r.ID)
				break
			}
		}
	}
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Not returns active records satisfying none of the predicates.
func (e *Evaluator) Not(preds ...Predicate) Result {
	var ids []int
	for _, r := range e.Dict.All() {
		if r.Deleted {
			continue
		}
		any := false
		for _, p := range preds {
			if p(r) {
				any = true
				break
			}
		}
		if !any {
			ids = append(ids, r.ID)
		}
	}
	return Result{Hits: e.finalize(idsToHits(ids), false)}
}

// Complex parses a whitespace-separated list of "kind:value" terms and
// AND-combines their results left to right, short-circuiting when the
// running intersection becomes empty. Unknown kinds are reported (via
// Result.Err, accumulated) and skipped rather than aborting the whole
// query.
func (e *Evaluator) Complex(expr string) Result {
	terms := strings.Fields(expr)
	if len(terms) == 0 {
		return Result{}
	}

	var running map[int]int // id -> distance, 0 for non-similarity terms
	started := false
	var unknown []string

	for _, term := range terms {
		kind, value, ok := strings.Cut(term, ":")
		if !ok {
			unknown = append(unknown, term)
			continue
		}
		var res Result
		switch kind {
		case "pre":
			res = e.Prefix(value)
		case "suf":
			res = e.Suffix(value)
		case "sub":
			res = e.Substring(value)
		case "not":
			res = e.Not(ContainsPredicate(value))
		case "len":
			lo, hi, err := parseRange(value)
			if err != nil {
				unknown = append(unknown, term)
				continue
			}
			if lo == hi {
				res = e.Length(lo)
			} else {
				res = e.LengthRange(lo, hi)
			}
		case "id":
			lo, hi, err := parseRange(value)
			if err != nil {
				unknown = append(unknown, term)
				continue
			}
			res = e.IDRange(lo, hi)
		case "sim":
			word, d := value, -1
			if w, ds, ok := strings.Cut(value, ","); ok {
				word = w
				if parsed, err := strconv.Atoi(ds); err == nil {
					d = parsed
				}
			}
			res = e.Sim(word, d)
		default:
			unknown = append(unknown, term)
			continue
		}
		if res.Err != nil {
			return res
		}

		cur := make(map[int]int, len(res.Hits))
		for _, h := range res.Hits {
			cur[h.ID] = h.Distance
		}

		if !started {
			running = cur
			started = true
		} else {
			for id := range running {
				if _, ok := cur[id]; !ok {
					delete(running, id)
				}
			}
		}
		if len(running) == 0 {
			break
		}
	}

	if !started {
		return Result{}
	}

	hits := make([]Hit, 0, len(running))
	for id, d := range running {
		hits = append(hits, Hit{ID: id, Distance: d})
	}
	var err error
	if len(unknown) > 0 {
		err = fmt.Errorf("query: unrecognized complex terms skipped: %s", strings.Join(unknown, ", "))
	}
	return Result{Hits: e.finalize(hits, false), Err: err}
}

// parseRange parses "N" or "N-M" into (lo, hi), with lo==hi for the bare
// N form.
func parseRange(s string) (lo, hi int, err error) {
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		loN, err1 := strconv.Atoi(lo)
		hiN, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return 0, 0, fmt.Errorf("query: invalid range %q", s)
		}
		if loN > hiN {
			return 0, 0, fmt.Errorf("query: inverted range %q", s)
		}
		return loN, hiN, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("query: invalid range %q", s)
	}
	return n, n, nil
}
