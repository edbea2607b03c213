// Package engine wires the dictionary, interner, derived indices, index
// builder, query evaluator, and snapshot codec into the single
// cooperative single-writer/single-reader object every external
// collaborator (CLI, server, generator) drives.
//
// Grounded on the teacher's completion.Completer (pkg/suggest/completion.go),
// which plays the same role there — the one object that owns the trie,
// the hot cache, and the stats, and that every other package calls
// through rather than reaching into the indices directly. Engine
// generalizes that shape from a read-mostly completion cache to a
// read/write dictionary with five cooperating indices.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/lexidx/pkg/builder"
	"github.com/bastiangx/lexidx/pkg/dictionary"
	"github.com/bastiangx/lexidx/pkg/distance"
	"github.com/bastiangx/lexidx/pkg/interner"
	"github.com/bastiangx/lexidx/pkg/query"
	"github.com/bastiangx/lexidx/pkg/snapshot"
)

// defaultInsertDepthGuard is the BK-tree insert depth guard applied when
// Options.InsertDepthGuard is left unset.
const defaultInsertDepthGuard = 4096

// Engine is the top-level object: the dictionary of record, its five
// derived indices, and the evaluator over them. Not safe for concurrent
// use; callers must serialize mutations and queries onto one goroutine,
// per the single-writer/single-reader scheduling model.
type Engine struct {
	Dict *dictionary.Dictionary
	In   *interner.Interner
	Idx  *builder.Indices
	Eval *query.Evaluator

	simCap           int
	insertDepthGuard int
}

// Options configures a new Engine.
type Options struct {
	// MaxDistanceCap bounds BK-tree queries; a value outside [1,10] is
	// replaced by 10.
	MaxDistanceCap int
	// InsertDepthGuard bounds how deep a single BK-tree insert may walk
	// before aborting; <= 0 uses defaultInsertDepthGuard.
	InsertDepthGuard int
}

func (o Options) normalized() Options {
	if o.MaxDistanceCap <= 0 || o.MaxDistanceCap > 10 {
		o.MaxDistanceCap = 10
	}
	if o.InsertDepthGuard <= 0 {
		o.InsertDepthGuard = defaultInsertDepthGuard
	}
	return o
}

// New creates an empty engine.
func New(opts Options) *Engine {
	opts = opts.normalized()
	dict := dictionary.New()
	in := interner.New()
	idx := builder.New(opts.MaxDistanceCap, distance.DamerauLevenshtein, opts.InsertDepthGuard)
	return &Engine{
		Dict:             dict,
		In:               in,
		Idx:              idx,
		Eval:             query.New(dict, idx, in),
		simCap:           opts.MaxDistanceCap,
		insertDepthGuard: opts.InsertDepthGuard,
	}
}

// MutationResult reports the outcome of a single mutating operation.
type MutationResult struct {
	ID      int
	Created bool // true for Add when the word was born, false if it already existed
	OK      bool // for Delete/Restore: whether the record existed and changed state
}

// Add inserts word if new, or is a no-op if it already exists (per the
// birth idempotence law). Wires the new record into every derived index.
func (e *Engine) Add(word string) MutationResult {
	canon := e.In.Intern(word)
	r, created := e.Dict.InsertOrGetID(canon)
	if created {
		if !e.Idx.Add(canon, r.ID) {
			log.Warnf("bk-tree insert depth guard hit for %q (id=%d); dropped from similarity index until the next rebuild", canon, r.ID)
		}
	}
	return MutationResult{ID: r.ID, Created: created}
}

// Delete logically deletes id: sets the flag and removes its footprint
// from the prefix, suffix, and length indices. The word stays in the
// 2-gram index until the next Optimize or bulk rebuild, and in the BK-tree
// until the next bulk rebuild; query results from those indices are re-filtered through the
// dictionary's active flag, per the documented tradeoff.
func (e *Engine) Delete(id int) MutationResult {
	r, ok := e.Dict.GetByID(id)
	if !ok {
		return MutationResult{ID: id, OK: false}
	}
	ok = e.Dict.MarkDeleted(id)
	if ok {
		e.Idx.Delete(r.Word, id)
	}
	return MutationResult{ID: id, OK: ok}
}

// Restore clears id's deletion flag and re-inserts it into every derived
// index it was logically removed from.
func (e *Engine) Restore(id int) MutationResult {
	r, ok := e.Dict.GetByID(id)
	if !ok {
		return MutationResult{ID: id, OK: false}
	}
	ok = e.Dict.MarkActive(id)
	if ok {
		if !e.Idx.Restore(r.Word, id) {
			log.Warnf("bk-tree insert depth guard hit restoring %q (id=%d); dropped from similarity index until the next rebuild", r.Word, id)
		}
	}
	return MutationResult{ID: id, OK: ok}
}

// Rebuild discards and reconstructs every derived index from the current
// dictionary state. Use after a bulk text-log replay, or to recover the
// 2-gram/length indices' laziness debt from a run of deletes.
func (e *Engine) Rebuild(ctx context.Context) error {
	idx := builder.New(e.simCap, distance.DamerauLevenshtein, e.insertDepthGuard)
	dropped, err := idx.BulkBuild(ctx, e.Dict, e.In)
	if err != nil {
		return fmt.Errorf("engine: rebuild: %w", err)
	}
	if len(dropped) > 0 {
		log.Warnf("bk-tree insert depth guard hit for %d word(s) during rebuild; excluded from similarity search until the guard is relaxed", len(dropped))
	}
	e.Idx = idx
	e.Eval = query.New(e.Dict, idx, e.In)
	return nil
}

// Optimize compacts the 2-gram and length indices against the current
// active set, without a full rebuild.
func (e *Engine) Optimize() {
	e.Idx.Optimize(e.Dict.IsActive)
}

// Validate cross-checks every index against the dictionary.
func (e *Engine) Validate() builder.ValidateResult {
	return builder.Validate(e.Dict, e.Idx, e.In)
}

// Snapshot captures the prefix, suffix, 2-gram, and length indices (not
// the BK-tree, not the dictionary text) as of this call. Safe only when
// no mutation is in flight, per the single-writer model.
func (e *Engine) Snapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Prefix:  e.Idx.Prefix,
		Suffix:  e.Idx.Suffix,
		Grams:   e.Idx.Grams,
		Lengths: e.Idx.Lengths,
	}
}

// LoadSnapshot replaces the engine's prefix, suffix, 2-gram, and length
// indices with the decoded snapshot's. The BK-tree is left untouched by
// this call — the caller must separately rebuild it (typically by
// replaying the text log into the dictionary and calling BulkBuild's
// BK-tree phase, or simply calling Rebuild once the dictionary is
// populated) since the snapshot format never carries it.
func (e *Engine) LoadSnapshot(snap snapshot.Snapshot) {
	if snap.Prefix != nil {
		e.Idx.Prefix = snap.Prefix
	}
	if snap.Suffix != nil {
		e.Idx.Suffix = snap.Suffix
	}
	if snap.Grams != nil {
		e.Idx.Grams = snap.Grams
	}
	if snap.Lengths != nil {
		e.Idx.Lengths = snap.Lengths
	}
	e.Eval = query.New(e.Dict, e.Idx, e.In)
}

// Timed runs fn and returns its result alongside how long it took,
// mirroring the per-query timing every query.Evaluator caller wants
// without threading a stopwatch through every call site.
func Timed[T any](fn func() T) (T, time.Duration) {
	start := time.Now()
	result := fn()
	return result, time.Since(start)
}

// BulkLoad replays words into the dictionary and derived indices via a
// full parallel build, for cold-start population from a text log when no
// usable snapshot exists.
func (e *Engine) BulkLoad(ctx context.Context, words []string) error {
	for _, w := range words {
		canon := e.In.Intern(w)
		e.Dict.InsertOrGetID(canon)
	}
	return e.Rebuild(ctx)
}
