package search

import (
	"context"
	"errors"
	"testing"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

func TestRepo_SearchPassesCompiledParams(t *testing.T) {
	repo, me := newTestRepo(t)
	me.selectFn = func(_ context.Context, p engine.Params) (*engine.Response, error) {
		if p.Get("q") != `id:("a" OR "b")` {
			t.Errorf("q = %q", p.Get("q"))
		}
		return decodeFixture(t), nil
	}

	req := request.New(request.Params{IDs: []string{"a,b"}})
	resp, err := repo.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Products) != 2 {
		t.Errorf("expected 2 products, got %d", len(resp.Products))
	}
}

func TestRepo_SearchWrapsEngineError(t *testing.T) {
	repo, me := newTestRepo(t)
	engErr := &engine.Error{Op: engine.OpSelect, StatusCode: 500, Message: "boom"}
	me.selectFn = func(context.Context, engine.Params) (*engine.Response, error) {
		return nil, engErr
	}

	req := request.New(request.Params{})
	_, err := repo.Search(context.Background(), &req)
	if err == nil {
		t.Fatal("expected error")
	}
	var target *engine.Error
	if !errors.As(err, &target) || target.StatusCode != 500 {
		t.Errorf("expected wrapped *engine.Error, got %v", err)
	}
}

func TestRepo_SearchNilResponse(t *testing.T) {
	repo, me := newTestRepo(t)
	me.selectFn = func(context.Context, engine.Params) (*engine.Response, error) { return nil, nil }

	req := request.New(request.Params{})
	if _, err := repo.Search(context.Background(), &req); err == nil {
		t.Fatal("expected error for nil engine response")
	}
}

func TestRepo_Suggest(t *testing.T) {
	repo, me := newTestRepo(t)
	me.selectFn = func(_ context.Context, p engine.Params) (*engine.Response, error) {
		if p.Get("qf") != suggestQueryField {
			t.Errorf("qf = %q", p.Get("qf"))
		}
		return decodeFixture(t), nil
	}

	got, err := repo.Suggest(context.Background(), "oak")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p-1" {
		t.Errorf("suggestions = %+v", got)
	}
}

func TestRepo_SuggestError(t *testing.T) {
	repo, me := newTestRepo(t)
	me.selectFn = func(context.Context, engine.Params) (*engine.Response, error) {
		return nil, context.DeadlineExceeded
	}
	if _, err := repo.Suggest(context.Background(), "oak"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}

func TestRepo_SourceAndPing(t *testing.T) {
	repo, me := newTestRepo(t)
	if repo.Source() != "mock" {
		t.Errorf("Source() = %q", repo.Source())
	}
	me.pingFn = func(context.Context) error { return errors.New("down") }
	if err := repo.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}
