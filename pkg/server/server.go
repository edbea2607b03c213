package server

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/lexidx/pkg/engine"
	"github.com/bastiangx/lexidx/pkg/query"
)

// Server handles msgpack IPC for the engine over stdin/stdout.
type Server struct {
	eng      *engine.Engine
	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	maxLimit int
	timeout  time.Duration
}

// NewServer creates a server driving eng, reading requests from r and
// writing responses to w. Pass os.Stdin/os.Stdout for the standard IPC
// transport.
func NewServer(eng *engine.Engine, r io.Reader, w io.Writer, maxLimit int, timeout time.Duration) *Server {
	return &Server{
		eng:      eng,
		dec:      msgpack.NewDecoder(r),
		enc:      msgpack.NewEncoder(w),
		maxLimit: maxLimit,
		timeout:  timeout,
	}
}

// NewStdioServer is a convenience constructor over os.Stdin/os.Stdout.
func NewStdioServer(eng *engine.Engine, maxLimit int, timeout time.Duration) *Server {
	return NewServer(eng, os.Stdin, os.Stdout, maxLimit, timeout)
}

// Start reads requests until EOF or a decode error, replying to each in
// turn. Never runs a query concurrently with another: the msgpack decode
// loop itself is the single reader/writer thread the engine's scheduling
// model requires.
func (s *Server) Start() error {
	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		resp := s.handle(req)
		if err := s.enc.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handle(req Request) Response {
	start := time.Now()

	switch req.Kind {
	case "add":
		res := s.eng.Add(req.Value)
		return okResponse(req.ID, start, []query.Hit{{ID: res.ID}})
	case "delete":
		id, ok := intValue(req.Min)
		if !ok {
			return errResponse(req.ID, start, "delete requires min as the id")
		}
		res := s.eng.Delete(id)
		if !res.OK {
			return statusResponse(req.ID, start, "not_found", "")
		}
		return okResponse(req.ID, start, nil)
	case "undelete":
		id, ok := intValue(req.Min)
		if !ok {
			return errResponse(req.ID, start, "undelete requires min as the id")
		}
		res := s.eng.Restore(id)
		if !res.OK {
			return statusResponse(req.ID, start, "not_found", "")
		}
		return okResponse(req.ID, start, nil)
	case "rebuild":
		ctx, cancel2 := context.WithTimeout(context.Background(), s.timeout)
		defer cancel2()
		if err := s.eng.Rebuild(ctx); err != nil {
			return errResponse(req.ID, start, err.Error())
		}
		return okResponse(req.ID, start, nil)
	case "validate":
		res := s.eng.Validate()
		if !res.OK() {
			return statusResponse(req.ID, start, "invalid", "index/dictionary mismatch detected")
		}
		return okResponse(req.ID, start, nil)
	default:
		return s.handleQuery(req, start)
	}
}

func (s *Server) handleQuery(req Request, start time.Time) Response {
	e := s.eng.Eval
	var result query.Result

	switch req.Kind {
	case "exact":
		result = e.Exact(req.Value)
	case "pre":
		result = e.Prefix(req.Value)
	case "suf":
		result = e.Suffix(req.Value)
	case "sub":
		result = e.Substring(req.Value)
	case "sim":
		result = e.Sim(req.Value, ptrOrDefault(req.MaxD, -1))
	case "sim+":
		result = e.SimPlus(req.Value, ptrOrDefault(req.MaxD, -1))
	case "len":
		if req.Max != nil {
			result = e.LengthRange(ptrOrDefault(req.Min, 0), *req.Max)
		} else {
			result = e.Length(ptrOrDefault(req.Min, 0))
		}
	case "id":
		if req.Max == nil || req.Min == nil {
			return errResponse(req.ID, start, "id query requires min and max")
		}
		result = e.IDRange(*req.Min, *req.Max)
	case "and":
		result = e.And(predicatesFrom(req.Values)...)
	case "or":
		result = e.Or(predicatesFrom(req.Values)...)
	case "not":
		result = e.Not(predicatesFrom(req.Values)...)
	case "complex":
		result = e.Complex(req.Value)
	default:
		return errResponse(req.ID, start, "unrecognized kind: "+req.Kind)
	}

	if result.Err != nil {
		return errResponse(req.ID, start, result.Err.Error())
	}
	if result.OutOfRange {
		return statusResponse(req.ID, start, "out_of_range", "")
	}
	hits := result.Hits
	limit := s.maxLimit
	if req.Limit != nil && *req.Limit > 0 && (limit <= 0 || *req.Limit < limit) {
		limit = *req.Limit
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return okResponse(req.ID, start, hits)
}

func predicatesFrom(values []string) []query.Predicate {
	preds := make([]query.Predicate, len(values))
	for i, v := range values {
		preds[i] = query.ContainsPredicate(v)
	}
	return preds
}

func ptrOrDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func intValue(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func okResponse(id string, start time.Time, hits []query.Hit) Response {
	wireHits := make([]Hit, len(hits))
	for i, h := range hits {
		wireHits[i] = Hit{ID: h.ID, Distance: h.Distance}
	}
	return Response{
		ID:          id,
		Status:      "ok",
		Hits:        wireHits,
		Count:       len(wireHits),
		TimeTakenUs: time.Since(start).Microseconds(),
	}
}

func errResponse(id string, start time.Time, msg string) Response {
	return Response{
		ID:          id,
		Status:      "error",
		Error:       msg,
		TimeTakenUs: time.Since(start).Microseconds(),
	}
}

func statusResponse(id string, start time.Time, status, msg string) Response {
	return Response{
		ID:          id,
		Status:      status,
		Error:       msg,
		TimeTakenUs: time.Since(start).Microseconds(),
	}
}
