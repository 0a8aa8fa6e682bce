package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
	"github.com/buildy-mcbuild/storefront/internal/engine"
	"github.com/buildy-mcbuild/storefront/internal/engine/memory"
	"github.com/buildy-mcbuild/storefront/internal/engine/solr"
	"github.com/buildy-mcbuild/storefront/internal/logger"
	searchrepo "github.com/buildy-mcbuild/storefront/internal/repository/search"
	healthuc "github.com/buildy-mcbuild/storefront/internal/usecase/health"
	"github.com/buildy-mcbuild/storefront/internal/usecase/indexing"
	searchuc "github.com/buildy-mcbuild/storefront/internal/usecase/search"
)

// ErrNoEngine is returned by New when neither Solr nor the embedded engine is configured.
var ErrNoEngine = errors.New("sdk: no search engine configured (use WithSolr or WithMemoryFixture)")

// searchUseCase is the internal interface for search and autocomplete.
type searchUseCase interface {
	Source() string
	Search(ctx context.Context, req *request.Request) (result.Response, error)
	Suggest(ctx context.Context, raw string) suggest.Result
}

// indexUseCase is the internal interface for batch indexing.
type indexUseCase interface {
	Index(ctx context.Context, docs []engine.Document, progress indexing.ProgressFunc) (indexing.Report, error)
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// backend is what the client needs from an engine driver.
type backend interface {
	engine.Engine
	engine.Indexer
}

// Client runs storefront search in-process.
type Client struct {
	engine    backend
	compiler  *searchrepo.Compiler
	searchSvc searchUseCase
	indexSvc  indexUseCase
	healthSvc healthUseCase
	logger    *zap.Logger
	obs       *observer
}

// New creates a Client. Exactly one engine option is required.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	eng, err := createEngine(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := wireClient(cfg, eng, obs)
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("sdk: engine %s unreachable: %w", eng.Name(), err)
	}
	return c, nil
}

func createEngine(cfg *clientConfig) (backend, error) {
	switch cfg.driver {
	case driverSolr:
		opts := []solr.Option{solr.WithBaseURL(cfg.solrURL), solr.WithCore(cfg.solrCore)}
		if cfg.httpClient != nil {
			opts = append(opts, solr.WithHTTPClient(cfg.httpClient))
		}
		if cfg.logger != nil {
			opts = append(opts, solr.WithLogger(cfg.logger))
		}
		return solr.New(opts...), nil
	case driverMemory:
		if cfg.fixturePath == "" {
			return memory.New(cfg.documents...), nil
		}
		eng, err := memory.NewFromFile(cfg.fixturePath)
		if err != nil {
			return nil, fmt.Errorf("sdk: load fixture: %w", err)
		}
		return eng, nil
	case "":
		return nil, ErrNoEngine
	default:
		return nil, fmt.Errorf("sdk: unknown engine driver %q", cfg.driver)
	}
}

func wireClient(cfg *clientConfig, eng backend, obs *observer) *Client {
	compilerCfg := searchrepo.DefaultCompilerConfig()
	if cfg.compiler != nil {
		compilerCfg = *cfg.compiler
	}
	compiler := searchrepo.NewCompiler(compilerCfg)
	repo := searchrepo.New(eng, compiler)

	searchSvc := searchuc.New(repo)
	if cfg.timeout > 0 {
		searchSvc = searchSvc.WithTimeout(cfg.timeout)
	}

	indexSvc := indexing.New(eng, eng.Name()).
		WithBatchSize(cfg.batchSize).
		WithRetry(cfg.retryAttempts, 0)

	return &Client{
		engine:    eng,
		compiler:  compiler,
		searchSvc: searchSvc,
		indexSvc:  indexSvc,
		healthSvc: healthuc.New(eng.Name(), repo, nil),
		logger:    cfg.logger,
		obs:       obs,
	}
}

// Source names the engine behind this client ("solr" or "memory").
func (c *Client) Source() string { return c.engine.Name() }

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.engine.Ping(ctx)
	c.obs.observe("ping", start, err)
	return err
}

// withLogger threads the client logger into use-case calls.
func (c *Client) withLogger(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.logger)
}
