package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/config"
	logpkg "github.com/buildy-mcbuild/storefront/internal/logger"
	searchrepo "github.com/buildy-mcbuild/storefront/internal/repository/search"
	"github.com/buildy-mcbuild/storefront/pkg/sdk"
)

// Globals are flags shared by every command. Engine flags override the
// environment config file.
type Globals struct {
	Env      string        `help:"Config environment (config/<env>.yaml)." default:"local" env:"ENV"`
	Engine   string        `help:"Search engine override."`
	SolrURL  string        `help:"Solr base URL override." name:"solr-url"`
	Core     string        `help:"Solr core override."`
	Fixture  string        `help:"Fixture catalog for the memory engine." type:"path"`
	Timeout  time.Duration `help:"Engine call timeout override."`
	LogLevel string        `help:"Log level: debug, info, warn, error." default:"warn"`
}

// searchConfig loads the environment config and applies flag overrides.
func (g *Globals) searchConfig() (config.SearchConfig, error) {
	cfg, err := config.Load(g.Env)
	if err != nil {
		return config.SearchConfig{}, err
	}
	sc := cfg.Search
	switch {
	case g.Engine != "":
		sc.Engine = g.Engine
	case g.Fixture != "":
		sc.Engine = config.EngineMemory
	}
	if g.SolrURL != "" {
		sc.Solr.BaseURL = g.SolrURL
	}
	if g.Core != "" {
		sc.Solr.Core = g.Core
	}
	if g.Fixture != "" {
		sc.Memory.FixturePath = g.Fixture
	}
	if g.Timeout > 0 {
		sc.TimeoutMs = int(g.Timeout / time.Millisecond)
	}
	return sc, nil
}

// client builds an in-process SDK client for the configured engine.
func (g *Globals) client(ctx context.Context, extra ...sdk.Option) (*sdk.Client, *zap.Logger, error) {
	sc, err := g.searchConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logpkg.NewLogger("local", g.LogLevel, nil)
	if err != nil {
		return nil, nil, err
	}

	opts := []sdk.Option{
		sdk.WithLogger(logger),
		sdk.WithTimeout(sc.Timeout()),
		sdk.WithCompilerConfig(compilerConfig(sc)),
	}
	switch sc.Engine {
	case config.EngineSolr:
		opts = append(opts, sdk.WithSolr(sc.Solr.BaseURL, sc.Solr.Core))
	case config.EngineMemory:
		opts = append(opts, sdk.WithMemoryFixture(sc.Memory.FixturePath))
	default:
		return nil, nil, fmt.Errorf("unknown search engine %q", sc.Engine)
	}

	c, err := sdk.New(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}

func compilerConfig(sc config.SearchConfig) searchrepo.CompilerConfig {
	return searchrepo.CompilerConfig{
		HighlightPre:  sc.Highlight.Pre,
		HighlightPost: sc.Highlight.Post,
		PriceFacet: searchrepo.PriceFacet{
			Start:           sc.PriceFacet.Start,
			End:             sc.PriceFacet.End,
			Gap:             sc.PriceFacet.Gap,
			IncludeOverflow: sc.PriceFacet.IncludeOverflow,
		},
		SuggestRows: sc.Autocomplete.Rows,
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
