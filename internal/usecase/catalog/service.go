package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/product"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/logger"
	"github.com/buildy-mcbuild/storefront/internal/metrics"
)

// Defaults for the pricing fan-out.
const (
	DefaultConcurrency = 8
	DefaultBatchSize   = 50
	DefaultCacheSize   = 1024
	DefaultCacheTTL    = 30 * time.Second
)

// Service is the B4F aggregation gateway: it runs the search service and
// overlays live price and stock from the pricing collaborator.
type Service struct {
	search      Searcher
	prices      PriceReader
	concurrency int
	batchSize   int

	cacheSize int
	cacheTTL  time.Duration
	cacheOnce sync.Once
	cache     *expirable.LRU[string, product.Price]
}

// New creates a gateway. prices may be nil, in which case search values are served as is.
func New(search Searcher, prices PriceReader) *Service {
	return &Service{
		search:      search,
		prices:      prices,
		concurrency: DefaultConcurrency,
		batchSize:   DefaultBatchSize,
		cacheSize:   DefaultCacheSize,
		cacheTTL:    DefaultCacheTTL,
	}
}

// WithCache resizes the price cache. A non-positive size disables caching.
// It must be called before the first request.
func (s *Service) WithCache(size int, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s.cacheSize = size
	s.cacheTTL = ttl
	return s
}

// WithConcurrency bounds concurrent pricing batches per request.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithBatchSize sets how many SKUs go into one pricing round trip.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Source names the search engine behind the gateway.
func (s *Service) Source() string { return s.search.Source() }

// Listing runs a search and overlays live pricing on every hit.
func (s *Service) Listing(ctx context.Context, req *request.Request) (result.Response, error) {
	resp, err := s.search.Search(ctx, req)
	if err != nil {
		return result.Response{}, fmt.Errorf("listing: %w", err)
	}
	s.overlay(ctx, resp.Products)
	return resp, nil
}

// Product looks up a single product by its exact id and overlays its live price.
func (s *Service) Product(ctx context.Context, id string) (result.ProductHit, error) {
	req := request.ForID(id)
	if req.Lookup() == nil {
		return result.ProductHit{}, domain.ErrProductNotFound
	}
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		return result.ProductHit{}, fmt.Errorf("product %s: %w", id, err)
	}
	if len(resp.Products) == 0 {
		return result.ProductHit{}, domain.ErrProductNotFound
	}
	hits := resp.Products[:1]
	s.overlay(ctx, hits)
	return hits[0], nil
}

// overlay replaces price and stock in place. Cached SKUs are served from the
// LRU; the rest are fetched in batches. A failed batch keeps the search values
// for its SKUs.
func (s *Service) overlay(ctx context.Context, hits []result.ProductHit) {
	if s.prices == nil || len(hits) == 0 {
		return
	}

	found := make(map[string]product.Price, len(hits))
	var misses []string
	cache := s.priceCache()
	for i := range hits {
		sku := hits[i].SKU
		if sku == "" {
			continue
		}
		if _, seen := found[sku]; seen || slices.Contains(misses, sku) {
			continue
		}
		if cache != nil {
			if p, ok := cache.Get(sku); ok {
				metrics.PricingCacheTotal.WithLabelValues("hit").Inc()
				found[sku] = p
				continue
			}
			metrics.PricingCacheTotal.WithLabelValues("miss").Inc()
		}
		misses = append(misses, sku)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for batch := range slices.Chunk(misses, s.batchSize) {
		g.Go(func() error {
			got, err := s.prices.Prices(ctx, batch)
			if err != nil {
				logger.FromContext(ctx).Warn("pricing lookup failed",
					zap.Strings("skus", batch),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for sku, p := range got {
				found[sku] = p
				if cache != nil {
					cache.Add(sku, p)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range hits {
		if p, ok := found[hits[i].SKU]; ok {
			applyPrice(&hits[i], p)
		}
	}
}

// priceCache builds the LRU on first use; it is nil when caching is disabled.
func (s *Service) priceCache() *expirable.LRU[string, product.Price] {
	s.cacheOnce.Do(func() {
		if s.cacheSize > 0 {
			s.cache = expirable.NewLRU[string, product.Price](s.cacheSize, nil, s.cacheTTL)
		}
	})
	return s.cache
}

func applyPrice(hit *result.ProductHit, p product.Price) {
	hit.Price = p.Amount
	if p.Currency != "" {
		hit.Currency = p.Currency
	}
	hit.Stock = p.Stock
}
