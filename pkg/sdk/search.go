package sdk

import (
	"context"
	"net/url"
	"time"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// Public aliases for the pipeline types.
type (
	// Query carries raw search inputs; zero values fall back to defaults.
	Query = request.Params
	// Selection holds multi-select filter values keyed by facet field.
	Selection = filter.Selection
	// SearchResult is a normalized search response.
	SearchResult = result.Response
	// Suggestions is an autocomplete outcome.
	Suggestions = suggest.Result
	// Params is an ordered list of compiled engine parameters.
	Params = engine.Params
	// Document is one product record as stored in the engine.
	Document = engine.Document
	// UnavailableError reports an engine failure with its diagnostic.
	UnavailableError = domain.UnavailableError
)

// ErrSearchUnavailable matches every engine failure returned by Search.
var ErrSearchUnavailable = domain.ErrSearchUnavailable

// Search normalizes q, runs it against the engine and normalizes the result.
func (c *Client) Search(ctx context.Context, q Query) (SearchResult, error) {
	req := request.New(q)
	return c.search(ctx, &req)
}

// SearchValues accepts the HTTP query-string form (q, category, priceMin, ...).
func (c *Client) SearchValues(ctx context.Context, v url.Values) (SearchResult, error) {
	req := request.FromQuery(v)
	return c.search(ctx, &req)
}

func (c *Client) search(ctx context.Context, req *request.Request) (SearchResult, error) {
	start := time.Now()
	res, err := c.searchSvc.Search(c.withLogger(ctx), req)
	c.obs.observe("search", start, err)
	return res, err
}

// Suggest returns autocomplete suggestions for a prefix. Prefixes shorter than
// two characters never reach the engine; engine failures yield a degraded result.
func (c *Client) Suggest(ctx context.Context, prefix string) Suggestions {
	start := time.Now()
	res := c.searchSvc.Suggest(c.withLogger(ctx), prefix)
	var err error
	if res.IsDegraded() {
		err = domain.ErrSearchUnavailable
	}
	c.obs.observe("suggest", start, err)
	return res
}

// Compile returns the engine parameters q compiles to without executing them.
func (c *Client) Compile(q Query) Params {
	req := request.New(q)
	return c.compiler.Compile(&req)
}

// CompileValues compiles the HTTP query-string form.
func (c *Client) CompileValues(v url.Values) Params {
	req := request.FromQuery(v)
	return c.compiler.Compile(&req)
}

// CompileSuggest returns the engine parameters for an autocomplete prefix.
func (c *Client) CompileSuggest(prefix string) Params {
	return c.compiler.CompileSuggest(prefix)
}
