package chi

import (
	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
	healthuc "github.com/buildy-mcbuild/storefront/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Error.
const (
	CodeSearchUnavailable = "search_unavailable"
	CodeProductNotFound   = "product_not_found"
	CodeInvalidRequest    = "invalid_request"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal_error"
)

// SearchResponse is the GET /search and GET /b4f/products body.
type SearchResponse struct {
	Source     string     `json:"source"`
	Products   []Product  `json:"products"`
	Facets     Facets     `json:"facets"`
	Pagination Pagination `json:"pagination"`
	Query      Query      `json:"query"`
}

// Product is a single search hit.
type Product struct {
	ID           string            `json:"id"`
	SKU          string            `json:"sku,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Price        float64           `json:"price"`
	Currency     string            `json:"currency,omitempty"`
	Category     string            `json:"category,omitempty"`
	Stock        int               `json:"stock"`
	Images       []string          `json:"images"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Highlighting *Highlighting     `json:"highlighting,omitempty"`
}

// Highlighting carries marked-up fragments.
type Highlighting struct {
	Name        []string `json:"name,omitempty"`
	Description []string `json:"description,omitempty"`
}

// Facets holds one ordered value list per filter field plus price buckets.
type Facets struct {
	Category   []FacetValue  `json:"category"`
	WoodType   []FacetValue  `json:"woodType"`
	Brand      []FacetValue  `json:"brand"`
	Material   []FacetValue  `json:"material"`
	Grade      []FacetValue  `json:"grade"`
	Finish     []FacetValue  `json:"finish"`
	Type       []FacetValue  `json:"type"`
	PriceRange []PriceBucket `json:"priceRange"`
}

// FacetValue is one facet option.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceBucket is one price-range facet bucket. Max is null for the open overflow bucket.
type PriceBucket struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max"`
	Count int      `json:"count"`
}

// Pagination describes the page window.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Query echoes the effective request.
type Query struct {
	Q        string              `json:"q"`
	IDs      []string            `json:"ids,omitempty"`
	SKUs     []string            `json:"skus,omitempty"`
	Filters  map[string][]string `json:"filters"`
	PriceMin *float64            `json:"priceMin,omitempty"`
	PriceMax *float64            `json:"priceMax,omitempty"`
	InStock  bool                `json:"inStock"`
	Sort     string              `json:"sort"`
	Page     int                 `json:"page"`
	Limit    int                 `json:"limit"`
}

// SuggestRequest is the POST /search body.
type SuggestRequest struct {
	Q string `json:"q"`
}

// SuggestResponse is the POST /search body. Message is set when degraded.
type SuggestResponse struct {
	Source      string       `json:"source"`
	Suggestions []Suggestion `json:"suggestions"`
	Message     string       `json:"message,omitempty"`
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
}

// ProductResponse is the GET /b4f/products/{id} body.
type ProductResponse struct {
	Source  string  `json:"source"`
	Product Product `json:"product"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Source  string `json:"source,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Source string            `json:"source"`
	Checks map[string]string `json:"checks"`
}

// NewSearchResponse converts a normalized result page into its wire form.
func NewSearchResponse(source string, resp result.Response) SearchResponse {
	products := make([]Product, len(resp.Products))
	for i := range resp.Products {
		products[i] = productToDTO(&resp.Products[i])
	}
	return SearchResponse{
		Source:   source,
		Products: products,
		Facets:   facetsToDTO(resp),
		Pagination: Pagination{
			Total:      resp.Pagination.Total,
			Page:       resp.Pagination.Page,
			Limit:      resp.Pagination.Limit,
			TotalPages: resp.Pagination.TotalPages,
		},
		Query: queryToDTO(resp.Echo),
	}
}

// NewSuggestResponse converts an autocomplete result into its wire form.
func NewSuggestResponse(source string, res suggest.Result) SuggestResponse {
	out := SuggestResponse{
		Source:      source,
		Suggestions: make([]Suggestion, len(res.Suggestions)),
		Message:     res.Diagnostic,
	}
	for i, s := range res.Suggestions {
		out.Suggestions[i] = Suggestion{ID: s.ID, Name: s.Name, Category: s.Category, Price: s.Price}
	}
	return out
}

func productToDTO(h *result.ProductHit) Product {
	p := Product{
		ID:          h.ID,
		SKU:         h.SKU,
		Name:        h.Name,
		Description: h.Description,
		Price:       h.Price,
		Currency:    h.Currency,
		Category:    h.Category,
		Stock:       h.Stock,
		Images:      h.Images,
		Attributes:  h.Attributes,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if h.Highlighting != nil {
		p.Highlighting = &Highlighting{Name: h.Highlighting.Name, Description: h.Highlighting.Description}
	}
	return p
}

func facetsToDTO(resp result.Response) Facets {
	values := func(f filter.Field) []FacetValue {
		src := resp.Facets[f]
		out := make([]FacetValue, len(src))
		for i, v := range src {
			out[i] = FacetValue{Value: v.Value, Count: v.Count}
		}
		return out
	}

	buckets := make([]PriceBucket, len(resp.PriceRanges))
	for i, b := range resp.PriceRanges {
		buckets[i] = PriceBucket{Label: b.Label, Min: b.Min, Count: b.Count}
		if !b.Open {
			hi := b.Max
			buckets[i].Max = &hi
		}
	}

	return Facets{
		Category:   values(filter.Category),
		WoodType:   values(filter.WoodType),
		Brand:      values(filter.Brand),
		Material:   values(filter.Material),
		Grade:      values(filter.Grade),
		Finish:     values(filter.Finish),
		Type:       values(filter.Type),
		PriceRange: buckets,
	}
}

func queryToDTO(e result.Echo) Query {
	q := Query{
		Q:        e.FreeText,
		IDs:      e.IDs,
		SKUs:     e.SKUs,
		Filters:  make(map[string][]string, len(e.Filters)),
		PriceMin: e.PriceMin,
		PriceMax: e.PriceMax,
		InStock:  e.InStockOnly,
		Sort:     string(e.Sort),
		Page:     e.Page,
		Limit:    e.Limit,
	}
	for f, v := range e.Filters {
		q.Filters[string(f)] = v
	}
	return q
}

func healthToDTO(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(r.Status), Source: r.Source, Checks: checks}
}
