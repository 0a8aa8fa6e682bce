package search

import (
	"context"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
)

// Repository compiles, executes and normalizes engine queries.
type Repository interface {
	Source() string
	Search(ctx context.Context, req *request.Request) (result.Response, error)
	Suggest(ctx context.Context, prefix string) ([]suggest.Suggestion, error)
}
