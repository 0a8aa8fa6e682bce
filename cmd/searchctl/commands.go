package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	chiTransport "github.com/buildy-mcbuild/storefront/internal/transport/chi"
	"github.com/buildy-mcbuild/storefront/internal/version"
	"github.com/buildy-mcbuild/storefront/pkg/sdk"
)

// QueryFlags mirror the GET /search query string.
type QueryFlags struct {
	Query    string            `arg:"" optional:"" help:"Free-text query."`
	Filter   map[string]string `help:"Multi-select filter, e.g. category=Wood,Tools (repeatable)." short:"f"`
	IDs      []string          `help:"Exact id lookup." name:"ids"`
	SKUs     []string          `help:"Exact sku lookup." name:"skus"`
	PriceMin string            `help:"Minimum price." name:"price-min"`
	PriceMax string            `help:"Maximum price." name:"price-max"`
	InStock  bool              `help:"Only products with stock." name:"in-stock"`
	Sort     string            `help:"relevance, price_asc, price_desc, name_asc, name_desc."`
	Page     int               `help:"Page number (1-based)."`
	Limit    int               `help:"Page size."`
}

// Values encodes the flags the way the HTTP handler receives them.
func (q *QueryFlags) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set(request.ParamQuery, q.Query)
	set(request.ParamSort, q.Sort)
	if len(q.IDs) > 0 {
		v.Set(request.ParamIDs, strings.Join(q.IDs, ","))
	}
	if len(q.SKUs) > 0 {
		v.Set(request.ParamSKUs, strings.Join(q.SKUs, ","))
	}
	set(request.ParamPriceMin, q.PriceMin)
	set(request.ParamPriceMax, q.PriceMax)
	if q.InStock {
		v.Set(request.ParamInStock, "true")
	}
	if q.Page > 0 {
		v.Set(request.ParamPage, strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set(request.ParamLimit, strconv.Itoa(q.Limit))
	}
	for field, values := range q.Filter {
		v.Add(field, values)
	}
	return v
}

// CompileCmd prints compiled engine parameters, one per line.
type CompileCmd struct {
	QueryFlags
	Suggest bool `help:"Compile QUERY as an autocomplete prefix instead."`
}

func (c *CompileCmd) Run(g *CLI, out io.Writer) error {
	sc, err := g.searchConfig()
	if err != nil {
		return err
	}
	// Compilation never reaches the engine, so an empty embedded index is enough.
	client, err := sdk.New(context.Background(), sdk.WithMemoryEngine(), sdk.WithCompilerConfig(compilerConfig(sc)))
	if err != nil {
		return err
	}
	var params sdk.Params
	if c.Suggest {
		params = client.CompileSuggest(c.Query)
	} else {
		params = client.CompileValues(c.Values())
	}
	for _, p := range params {
		fmt.Fprintf(out, "%s=%s\n", p.Key, p.Value)
	}
	return nil
}

// SearchCmd runs a search and prints the HTTP response body.
type SearchCmd struct {
	QueryFlags
}

func (c *SearchCmd) Run(g *CLI, out io.Writer) error {
	ctx := context.Background()
	client, logger, err := g.client(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	res, err := client.SearchValues(ctx, c.Values())
	if err != nil {
		return err
	}
	return printJSON(out, chiTransport.NewSearchResponse(client.Source(), res))
}

// SuggestCmd runs autocomplete and prints the HTTP response body.
type SuggestCmd struct {
	Prefix string `arg:"" help:"Prefix typed so far."`
}

func (c *SuggestCmd) Run(g *CLI, out io.Writer) error {
	ctx := context.Background()
	client, logger, err := g.client(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return printJSON(out, chiTransport.NewSuggestResponse(client.Source(), client.Suggest(ctx, c.Prefix)))
}

// IndexCmd loads a catalog file into the engine.
type IndexCmd struct {
	File       string `arg:"" help:"YAML or JSON product catalog." type:"existingfile"`
	BatchSize  int    `help:"Documents per engine request." default:"100"`
	Attempts   uint   `help:"Attempts per batch before giving up." default:"3"`
	NoProgress bool   `help:"Disable progress bar" default:"false"`
}

func (c *IndexCmd) Run(g *CLI, out io.Writer) error {
	docs, err := sdk.LoadDocuments(c.File)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, logger, err := g.client(ctx, sdk.WithIndexing(c.BatchSize, c.Attempts))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var progress Progress = NewNoopProgress()
	if !c.NoProgress {
		progress = NewBarProgress(len(docs), "Indexing products")
	}
	last := 0
	rep, err := client.Index(ctx, docs, func(done, _ int) {
		_ = progress.Add(done - last)
		last = done
	})
	progress.Close()
	if err != nil {
		return fmt.Errorf("indexed %d of %d documents: %w", rep.Indexed, rep.Total, err)
	}

	fmt.Fprintf(out, "Indexed %d documents in %d batches into %s\n", rep.Indexed, rep.Batches, client.Source())
	return nil
}

// HealthCmd pings the engine.
type HealthCmd struct{}

func (c *HealthCmd) Run(g *CLI, out io.Writer) error {
	ctx := context.Background()
	client, logger, err := g.client(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	h := client.Health(ctx)
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "%s (%s)\n", h.Status, h.Source)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, h.Checks[name])
	}
	return nil
}

// VersionCmd prints build metadata.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintf(out, "searchctl %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	return nil
}
