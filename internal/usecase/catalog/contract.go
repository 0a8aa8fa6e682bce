package catalog

import (
	"context"

	"github.com/buildy-mcbuild/storefront/internal/domain/product"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
)

// Searcher runs normalized storefront searches.
type Searcher interface {
	Source() string
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

// PriceReader reads live price and stock records by SKU in one round trip.
// SKUs without a record are absent from the result.
type PriceReader interface {
	Prices(ctx context.Context, skus []string) (map[string]product.Price, error)
}
