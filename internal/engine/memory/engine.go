// Package memory is an embedded search engine that answers the Solr select
// dialect produced by the query compiler. It backs local development and
// end-to-end tests; the production driver is engine/solr.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// Name is the engine name reported as the response source.
const Name = "memory"

// Compile-time checks.
var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Indexer = (*Engine)(nil)
)

// Engine holds an immutable index snapshot swapped on every Index call.
type Engine struct {
	mu  sync.RWMutex
	idx *index
}

// New creates an engine preloaded with docs.
func New(docs ...engine.Document) *Engine {
	return &Engine{idx: buildIndex(mergeDocs(nil, docs))}
}

// NewFromFile creates an engine from a YAML or JSON catalog file.
func NewFromFile(path string) (*Engine, error) {
	docs, err := engine.LoadDocuments(path)
	if err != nil {
		return nil, err
	}
	return New(docs...), nil
}

// Name returns "memory".
func (e *Engine) Name() string { return Name }

// Ping reports the context state; the engine itself is always reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &engine.Error{Op: engine.OpPing, Err: err}
	}
	return nil
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idx.docs)
}

// Index adds docs, replacing any existing document with the same id.
func (e *Engine) Index(ctx context.Context, docs []engine.Document) error {
	if err := ctx.Err(); err != nil {
		return &engine.Error{Op: engine.OpUpdate, Err: err}
	}
	for i, d := range docs {
		if d.ID() == "" {
			return &engine.Error{Op: engine.OpUpdate, StatusCode: 400, Message: fmt.Sprintf("document %d: missing id", i)}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx = buildIndex(mergeDocs(e.idx.sources(), docs))
	return nil
}

// Select evaluates compiled select parameters against the index.
func (e *Engine) Select(ctx context.Context, p engine.Params) (*engine.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &engine.Error{Op: engine.OpSelect, Err: err}
	}
	began := time.Now()

	e.mu.RLock()
	idx := e.idx
	e.mu.RUnlock()

	resp, err := idx.execute(p)
	if err != nil {
		return nil, err
	}
	resp.Header.QTime = int(time.Since(began).Milliseconds())
	return resp, nil
}

// mergeDocs appends docs to base, replacing by id in place.
func mergeDocs(base, docs []engine.Document) []engine.Document {
	out := make([]engine.Document, 0, len(base)+len(docs))
	pos := make(map[string]int, len(base)+len(docs))
	for _, d := range append(append([]engine.Document(nil), base...), docs...) {
		id := d.ID()
		if i, ok := pos[id]; ok {
			out[i] = d
			continue
		}
		pos[id] = len(out)
		out = append(out, d)
	}
	return out
}

func badRequest(format string, args ...any) error {
	return &engine.Error{Op: engine.OpSelect, StatusCode: 400, Message: fmt.Sprintf(format, args...)}
}
