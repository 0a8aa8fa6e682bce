package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/config"
	dbRedis "github.com/buildy-mcbuild/storefront/internal/db/redis"
	"github.com/buildy-mcbuild/storefront/internal/engine"
	"github.com/buildy-mcbuild/storefront/internal/engine/memory"
	"github.com/buildy-mcbuild/storefront/internal/engine/solr"
	logpkg "github.com/buildy-mcbuild/storefront/internal/logger"
	"github.com/buildy-mcbuild/storefront/internal/metrics"
	pricingrepo "github.com/buildy-mcbuild/storefront/internal/repository/pricing"
	searchrepo "github.com/buildy-mcbuild/storefront/internal/repository/search"
	chiTransport "github.com/buildy-mcbuild/storefront/internal/transport/chi"
	cataloguc "github.com/buildy-mcbuild/storefront/internal/usecase/catalog"
	healthuc "github.com/buildy-mcbuild/storefront/internal/usecase/health"
	searchuc "github.com/buildy-mcbuild/storefront/internal/usecase/search"
	"github.com/buildy-mcbuild/storefront/internal/version"
)

// pricingBackend is what the gateway and health check need from the pricing collaborator.
type pricingBackend interface {
	cataloguc.PriceReader
	healthuc.Pinger
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	var sink *logpkg.FileSink
	if cfg.Logging.FilePath != "" {
		sink = &logpkg.FileSink{
			Path:       cfg.Logging.FilePath,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, sink)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting storefront search server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine", cfg.Search.Engine),
		zap.String("pricing", cfg.Pricing.Driver),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	eng, err := buildEngine(cfg.Search, logger)
	if err != nil {
		logger.Fatal("Failed to create search engine", zap.Error(err))
	}

	ctx := context.Background()
	prices, closePricing, err := buildPricing(ctx, cfg.Pricing, logger)
	if err != nil {
		logger.Fatal("Pricing collaborator not ready", zap.Error(err))
	}
	defer closePricing()

	compiler := searchrepo.NewCompiler(searchrepo.CompilerConfig{
		HighlightPre:  cfg.Search.Highlight.Pre,
		HighlightPost: cfg.Search.Highlight.Post,
		PriceFacet: searchrepo.PriceFacet{
			Start:           cfg.Search.PriceFacet.Start,
			End:             cfg.Search.PriceFacet.End,
			Gap:             cfg.Search.PriceFacet.Gap,
			IncludeOverflow: cfg.Search.PriceFacet.IncludeOverflow,
		},
		SuggestRows: cfg.Search.Autocomplete.Rows,
	})
	searchRepo := searchrepo.New(eng, compiler)

	// Create use case services
	searchSvc := searchuc.New(searchRepo).WithTimeout(cfg.Search.Timeout())

	// Pass nil interface (not typed nil pointer!) if pricing is not configured.
	var priceReader cataloguc.PriceReader
	var pricingPinger healthuc.Pinger
	if prices != nil {
		priceReader = prices
		pricingPinger = prices
	}
	catalogSvc := cataloguc.New(searchSvc, priceReader).
		WithCache(cfg.Pricing.CacheSize, time.Duration(cfg.Pricing.CacheTTLSec)*time.Second).
		WithConcurrency(cfg.Pricing.Concurrency).
		WithBatchSize(cfg.Pricing.BatchSize)
	healthSvc := healthuc.New(eng.Name(), searchRepo, pricingPinger)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, catalogSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEngine selects the engine driver.
func buildEngine(cfg config.SearchConfig, logger *zap.Logger) (engine.Engine, error) {
	switch cfg.Engine {
	case config.EngineSolr:
		return solr.New(
			solr.WithBaseURL(cfg.Solr.BaseURL),
			solr.WithCore(cfg.Solr.Core),
			solr.WithLogger(logger),
		), nil
	case config.EngineMemory:
		eng, err := memory.NewFromFile(cfg.Memory.FixturePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded fixture catalog",
			zap.String("path", cfg.Memory.FixturePath),
			zap.Int("products", eng.Len()),
		)
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown search engine %q", cfg.Engine)
	}
}

// buildPricing connects the pricing collaborator. It returns a nil backend for
// the "none" driver; the returned close func is always safe to call.
func buildPricing(ctx context.Context, cfg config.PricingConfig, logger *zap.Logger) (pricingBackend, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case config.PricingNone:
		return nil, noop, nil
	case config.PricingMemory:
		mem := pricingrepo.NewMemory()
		if cfg.FixturePath == "" {
			return mem, noop, nil
		}
		records, err := pricingrepo.LoadPrices(cfg.FixturePath)
		if err != nil {
			return nil, noop, err
		}
		n, err := pricingrepo.Seed(ctx, mem, records, nil)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Seeded memory pricing",
			zap.String("path", cfg.FixturePath),
			zap.Int("prices", n),
		)
		return mem, noop, nil
	case config.PricingRedis:
	default:
		return nil, noop, fmt.Errorf("unknown pricing driver %q", cfg.Driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("create pricing store: %w", err)
	}

	// Wait for the store, retrying readiness windows with backoff.
	err = retry.Do(
		func() error {
			return store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second)
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(cfg.RetryAttempts, 1))),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Pricing store not ready, retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		store.Close()
		return nil, noop, err
	}
	logger.Info("Connected to pricing store", zap.Strings("addrs", cfg.Addrs))

	return pricingrepo.New(store), store.Close, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Error:   chiTransport.CodeInternal,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
