package search

import (
	"context"
	"fmt"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// Repo implements usecase/search.Repository on top of an engine driver.
type Repo struct {
	engine   engine.Engine
	compiler *Compiler
}

// New creates a search repository.
func New(e engine.Engine, c *Compiler) *Repo {
	if c == nil {
		c = NewCompiler(DefaultCompilerConfig())
	}
	return &Repo{engine: e, compiler: c}
}

// Source names the engine serving this repository.
func (r *Repo) Source() string { return r.engine.Name() }

// Compile exposes the compiled parameters for a request.
func (r *Repo) Compile(req *request.Request) engine.Params {
	return r.compiler.Compile(req)
}

// Search compiles, executes and normalizes a search request.
func (r *Repo) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	native, err := r.engine.Select(ctx, r.compiler.Compile(req))
	if err != nil {
		return result.Response{}, fmt.Errorf("search %s: %w", r.engine.Name(), err)
	}
	resp, err := normalize(native, req)
	if err != nil {
		return result.Response{}, fmt.Errorf("normalize %s response: %w", r.engine.Name(), err)
	}
	return resp, nil
}

// Suggest runs an autocomplete query for a prefix.
func (r *Repo) Suggest(ctx context.Context, prefix string) ([]suggest.Suggestion, error) {
	native, err := r.engine.Select(ctx, r.compiler.CompileSuggest(prefix))
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", r.engine.Name(), err)
	}
	return normalizeSuggestions(native), nil
}

// Ping checks engine connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.engine.Ping(ctx)
}
