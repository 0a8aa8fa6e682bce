package search

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
	"github.com/buildy-mcbuild/storefront/internal/logger"
	"github.com/buildy-mcbuild/storefront/internal/metrics"
)

// DefaultTimeout bounds a single engine call.
const DefaultTimeout = 3 * time.Second

const (
	opSearch       = "search"
	opAutocomplete = "autocomplete"
)

// Service runs storefront searches and autocomplete against one engine.
// Engine failures are never retried: Search returns a typed unavailable
// error, Suggest degrades to an empty list.
type Service struct {
	repo    Repository
	timeout time.Duration
}

// New creates a search service.
func New(repo Repository) *Service {
	return &Service{repo: repo, timeout: DefaultTimeout}
}

// WithTimeout overrides the per-call engine timeout. Non-positive values are ignored.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Source names the engine behind this service.
func (s *Service) Source() string { return s.repo.Source() }

// Search executes a normalized request. On engine failure it returns an
// error wrapping domain.ErrSearchUnavailable, never an empty success.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.repo.Search(ctx, req)
	s.observe(opSearch, start, err)
	if err != nil {
		logger.FromContext(ctx).Warn("search degraded",
			zap.String("engine", s.repo.Source()),
			zap.String("status", "unavailable"),
			zap.Error(err),
		)
		metrics.SearchDegradedTotal.WithLabelValues(opSearch).Inc()
		return result.Response{}, domain.NewUnavailable(s.repo.Source(), err)
	}
	return resp, nil
}

// Suggest returns autocomplete suggestions for a raw prefix. Prefixes shorter
// than suggest.MinPrefixLength runes never reach the engine.
func (s *Service) Suggest(ctx context.Context, raw string) suggest.Result {
	prefix := NormalizePrefix(raw)
	if utf8.RuneCountInString(prefix) < suggest.MinPrefixLength {
		metrics.AutocompleteShortCircuitTotal.Inc()
		return suggest.Empty()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	hits, err := s.repo.Suggest(ctx, prefix)
	s.observe(opAutocomplete, start, err)
	if err != nil {
		logger.FromContext(ctx).Warn("autocomplete degraded",
			zap.String("engine", s.repo.Source()),
			zap.String("prefix", prefix),
			zap.Error(err),
		)
		metrics.SearchDegradedTotal.WithLabelValues(opAutocomplete).Inc()
		unavailable := &domain.UnavailableError{Engine: s.repo.Source(), Cause: err}
		return suggest.Degraded(unavailable.Diagnostic())
	}
	if hits == nil {
		hits = []suggest.Suggestion{}
	}
	return suggest.Result{Suggestions: hits}
}

// NormalizePrefix trims the prefix and collapses inner whitespace runs.
func NormalizePrefix(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func (s *Service) observe(op string, start time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	engineName := s.repo.Source()
	metrics.SearchEngineRequestsTotal.WithLabelValues(engineName, op, status).Inc()
	metrics.SearchEngineDuration.WithLabelValues(engineName, op).Observe(time.Since(start).Seconds())
}
