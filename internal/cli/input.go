// Package cli hosts the interactive REPL used to drive the engine from a
// terminal for manual testing and debugging, mirroring the teacher's
// InputHandler loop shape but dispatching on the query/mutation grammar
// instead of a single completion call.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/lexidx/internal/textlog"
	"github.com/bastiangx/lexidx/internal/utils"
	"github.com/bastiangx/lexidx/pkg/engine"
	"github.com/bastiangx/lexidx/pkg/query"
)

// InputHandler reads lines from stdin, parses each into an engine
// operation, and prints the result in the teacher's terse log.Printf
// style.
type InputHandler struct {
	eng      *engine.Engine
	appender *textlog.Appender
	prompt   string
	limit    int
}

// NewInputHandler creates a REPL bound to eng. appender may be nil, in
// which case add/delete/undelete mutate the in-memory engine only and
// are not persisted.
func NewInputHandler(eng *engine.Engine, appender *textlog.Appender, prompt string, limit int) *InputHandler {
	if prompt == "" {
		prompt = "lexidx> "
	}
	if limit <= 0 {
		limit = 24
	}
	return &InputHandler{eng: eng, appender: appender, prompt: prompt, limit: limit}
}

// Start begins the REPL loop. Returns nil on EOF (Ctrl+D), any other
// stdin read error otherwise.
func (h *InputHandler) Start() error {
	log.Print("lexidx CLI [BETA]")
	log.Print("type a word to add it, or a command (exact/pre/suf/sub/sim/sim+/and/or/not/len/id/complex/delete/undelete/rebuild/list/list-all/alpha). Ctrl+C to exit.")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print(h.prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.dispatch(line)
	}
}

func (h *InputHandler) dispatch(line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "exact":
		h.runQuery(args, h.eng.Eval.Exact)
	case "pre":
		h.runQuery(args, h.eng.Eval.Prefix)
	case "suf":
		h.runQuery(args, h.eng.Eval.Suffix)
	case "sub":
		h.runQuery(args, h.eng.Eval.Substring)
	case "sim", "sim+":
		h.handleSim(cmd == "sim+", args)
	case "and":
		h.printResult(h.eng.Eval.And(predicatesFromWords(args)...))
	case "or":
		h.printResult(h.eng.Eval.Or(predicatesFromWords(args)...))
	case "not":
		h.printResult(h.eng.Eval.Not(predicatesFromWords(args)...))
	case "len":
		h.handleLen(args)
	case "id":
		h.handleIDRange(args)
	case "complex":
		h.printResult(h.eng.Eval.Complex(strings.Join(args, " ")))
	case "delete":
		h.handleDelete(args)
	case "undelete":
		h.handleUndelete(args)
	case "rebuild":
		h.handleRebuild()
	case "validate":
		h.handleValidate()
	case "list":
		h.handleList(false)
	case "list-all":
		h.handleList(true)
	case "alpha":
		h.handleAlpha()
	default:
		h.handleAdd(fields)
	}
}

func (h *InputHandler) runQuery(args []string, fn func(string) query.Result) {
	if len(args) == 0 {
		log.Errorf("expected a word argument")
		return
	}
	h.printResult(fn(args[0]))
}

func (h *InputHandler) handleSim(exhaustive bool, args []string) {
	if len(args) == 0 {
		log.Errorf("expected a word argument")
		return
	}
	maxD := -1
	if len(args) > 1 {
		if d, err := strconv.Atoi(args[1]); err == nil {
			maxD = d
		}
	}
	if exhaustive {
		h.printResult(h.eng.Eval.SimPlus(args[0], maxD))
	} else {
		h.printResult(h.eng.Eval.Sim(args[0], maxD))
	}
}

func (h *InputHandler) handleLen(args []string) {
	if len(args) == 0 {
		log.Errorf("expected N or N-M")
		return
	}
	lo, hi, err := parseRange(args[0])
	if err != nil {
		log.Errorf("invalid length range: %v", err)
		return
	}
	if lo == hi {
		h.printResult(h.eng.Eval.Length(lo))
	} else {
		h.printResult(h.eng.Eval.LengthRange(lo, hi))
	}
}

func (h *InputHandler) handleIDRange(args []string) {
	if len(args) == 0 {
		log.Errorf("expected N-M")
		return
	}
	lo, hi, err := parseRange(args[0])
	if err != nil {
		log.Errorf("invalid id range: %v", err)
		return
	}
	h.printResult(h.eng.Eval.IDRange(lo, hi))
}

// handleAdd implements the "plain word(s)" command: add a new word, or
// restore it if it was previously deleted, per the spec's "add / restore"
// dual meaning for this one command.
func (h *InputHandler) handleAdd(words []string) {
	for _, w := range words {
		if !utils.IsValidInput(w) {
			log.Warnf("rejected %q: not a valid word", w)
			continue
		}
		if existing, ok := h.eng.Dict.GetByWord(w); ok && existing.Deleted {
			h.eng.Restore(existing.ID)
			log.Printf("restored %s (id=%d)", colorWord(w), existing.ID)
			h.append(existing.ID, w, false)
			continue
		}
		res := h.eng.Add(w)
		if res.Created {
			log.Printf("added %s (id=%d)", colorWord(w), res.ID)
			h.append(res.ID, w, false)
		} else {
			log.Printf("%s already present (id=%d)", colorWord(w), res.ID)
		}
	}
}

func (h *InputHandler) handleDelete(args []string) {
	id, err := requireID(args)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	res := h.eng.Delete(id)
	if !res.OK {
		log.Warnf("id %d not found or already deleted", id)
		return
	}
	log.Printf("deleted id=%d", id)
	if r, ok := h.eng.Dict.GetByID(id); ok {
		h.append(id, r.Word, true)
	}
}

func (h *InputHandler) handleUndelete(args []string) {
	id, err := requireID(args)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	res := h.eng.Restore(id)
	if !res.OK {
		log.Warnf("id %d not found or already active", id)
		return
	}
	log.Printf("undeleted id=%d", id)
	if r, ok := h.eng.Dict.GetByID(id); ok {
		h.append(id, r.Word, false)
	}
}

func (h *InputHandler) handleRebuild() {
	if err := h.eng.Rebuild(context.Background()); err != nil {
		log.Errorf("rebuild failed: %v", err)
		return
	}
	log.Print("rebuild complete")
}

func (h *InputHandler) handleValidate() {
	res := h.eng.Validate()
	if res.OK() {
		log.Print("validate: OK")
		return
	}
	log.Warnf("validate: %d mismatched records, %d missing from prefix, %d missing from suffix",
		res.MismatchedRecords, len(res.MissingFromPrefix), len(res.MissingFromSuffix))
}

func (h *InputHandler) handleList(includeDeleted bool) {
	records := h.eng.Dict.All()
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	count := 0
	for _, r := range records {
		if r.Deleted && !includeDeleted {
			continue
		}
		marker := ""
		if r.Deleted {
			marker = " [deleted]"
		}
		log.Printf("%4d. %-30s id=%d%s", count+1, colorWord(r.Word), r.ID, marker)
		count++
	}
	log.Printf("%d record(s)", count)
}

func (h *InputHandler) handleAlpha() {
	words := h.eng.Idx.Prefix.All()
	count := 0
	for _, w := range words {
		r, ok := h.eng.Dict.GetByWord(w)
		if !ok || r.Deleted {
			continue
		}
		count++
		log.Printf("%4d. %-30s id=%d", count, colorWord(w), r.ID)
	}
	log.Printf("%d active word(s)", count)
}

func (h *InputHandler) printResult(res query.Result) {
	if res.Err != nil {
		log.Errorf("%v", res.Err)
		return
	}
	if res.OutOfRange {
		log.Warn("id range entirely outside the dictionary's observed range")
		return
	}
	if len(res.Hits) == 0 {
		log.Print("no results")
		return
	}
	hits := res.Hits
	truncated := false
	if h.limit > 0 && len(hits) > h.limit {
		hits = hits[:h.limit]
		truncated = true
	}
	for i, hit := range hits {
		r, ok := h.eng.Dict.GetByID(hit.ID)
		if !ok {
			continue
		}
		if hit.Distance > 0 {
			log.Printf("%3d. %-30s id=%d d=%d", i+1, colorWord(r.Word), r.ID, hit.Distance)
		} else {
			log.Printf("%3d. %-30s id=%d", i+1, colorWord(r.Word), r.ID)
		}
	}
	if truncated {
		log.Printf("... %d more (showing first %d)", len(res.Hits)-h.limit, h.limit)
	}
}

func (h *InputHandler) append(id int, word string, deleted bool) {
	if h.appender == nil {
		return
	}
	if err := h.appender.Append(textlog.Entry{ID: id, Word: word, Deleted: deleted}); err != nil {
		log.Errorf("text log append failed: %v", err)
	}
}

func colorWord(w string) string {
	return fmt.Sprintf("\033[38;5;75m%s\033[0m", w)
}

func requireID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("expected an id argument")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return id, nil
}

func parseRange(s string) (lo, hi int, err error) {
	if before, after, ok := strings.Cut(s, "-"); ok {
		lo, err = strconv.Atoi(before)
		if err != nil {
			return 0, 0, err
		}
		hi, err = strconv.Atoi(after)
		if err != nil {
			return 0, 0, err
		}
		return lo, hi, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}

func predicatesFromWords(words []string) []query.Predicate {
	preds := make([]query.Predicate, len(words))
	for i, w := range words {
		preds[i] = query.ContainsPredicate(w)
	}
	return preds
}
