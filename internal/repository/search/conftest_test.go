package search

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// mockEngine implements engine.Engine for tests.
type mockEngine struct {
	selectFn func(ctx context.Context, p engine.Params) (*engine.Response, error)
	pingFn   func(ctx context.Context) error
	calls    int
}

func (m *mockEngine) Name() string { return "mock" }

func (m *mockEngine) Select(ctx context.Context, p engine.Params) (*engine.Response, error) {
	m.calls++
	if m.selectFn != nil {
		return m.selectFn(ctx, p)
	}
	return &engine.Response{}, nil
}

func (m *mockEngine) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockEngine) {
	t.Helper()
	me := &mockEngine{}
	return New(me, nil), me
}

func mustRequest(t *testing.T, rawQuery string) request.Request {
	t.Helper()
	v, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("parse query %q: %v", rawQuery, err)
	}
	return request.FromQuery(v)
}

func selection(t *testing.T, pairs map[filter.Field][]string) filter.Selection {
	t.Helper()
	s := filter.NewSelection()
	for f, values := range pairs {
		if err := s.Add(f, values...); err != nil {
			t.Fatalf("Add(%s): %v", f, err)
		}
	}
	return s
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %v: %v", v, err)
	}
	return b
}

func rawList(t *testing.T, values ...any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(values))
	for i, v := range values {
		out[i] = raw(t, v)
	}
	return out
}
