package indexing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/engine"
	"github.com/buildy-mcbuild/storefront/internal/logger"
	"github.com/buildy-mcbuild/storefront/internal/metrics"
)

// Defaults for batch indexing.
const (
	DefaultBatchSize = 100
	DefaultAttempts  = 3
	DefaultDelay     = 200 * time.Millisecond
)

// Indexer writes documents into a search engine.
type Indexer interface {
	Index(ctx context.Context, docs []engine.Document) error
}

// ProgressFunc is called after every committed batch.
type ProgressFunc func(done, total int)

// Report summarizes an indexing run.
type Report struct {
	Total   int
	Indexed int
	Batches int
}

// Service pushes product documents to the engine in batches.
type Service struct {
	indexer    Indexer
	engineName string
	batchSize  int
	attempts   uint
	delay      time.Duration
}

// New creates an indexing service. engineName labels metrics and logs.
func New(idx Indexer, engineName string) *Service {
	return &Service{
		indexer:    idx,
		engineName: engineName,
		batchSize:  DefaultBatchSize,
		attempts:   DefaultAttempts,
		delay:      DefaultDelay,
	}
}

// WithBatchSize sets documents per engine request.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithRetry configures per-batch retry attempts and the initial backoff delay.
func (s *Service) WithRetry(attempts uint, delay time.Duration) *Service {
	if attempts > 0 {
		s.attempts = attempts
	}
	if delay > 0 {
		s.delay = delay
	}
	return s
}

// Index writes docs batch by batch. It stops at the first batch that still
// fails after retries; Report reflects the batches committed before that.
func (s *Service) Index(ctx context.Context, docs []engine.Document, progress ProgressFunc) (Report, error) {
	rep := Report{Total: len(docs)}
	log := logger.FromContext(ctx)

	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		batch := docs[start:end]

		err := retry.Do(
			func() error { return s.indexer.Index(ctx, batch) },
			retry.Context(ctx),
			retry.Attempts(s.attempts),
			retry.Delay(s.delay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(retryable),
			retry.OnRetry(func(n uint, err error) {
				log.Warn("retrying index batch",
					zap.String("engine", s.engineName),
					zap.Int("offset", start),
					zap.Uint("attempt", n+1),
					zap.Error(err),
				)
			}),
		)
		if err != nil {
			metrics.IndexedDocumentsTotal.WithLabelValues(s.engineName, metrics.StatusError).Add(float64(len(batch)))
			return rep, fmt.Errorf("index batch at offset %d: %w", start, err)
		}

		metrics.IndexedDocumentsTotal.WithLabelValues(s.engineName, metrics.StatusOK).Add(float64(len(batch)))
		rep.Indexed += len(batch)
		rep.Batches++
		if progress != nil {
			progress(rep.Indexed, rep.Total)
		}
	}

	log.Info("indexing complete",
		zap.String("engine", s.engineName),
		zap.Int("documents", rep.Indexed),
		zap.Int("batches", rep.Batches),
	)
	return rep, nil
}

// retryable rejects cancellation and client errors other than 429.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var engErr *engine.Error
	if errors.As(err, &engErr) && engErr.StatusCode >= 400 && engErr.StatusCode < 500 {
		return engErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
