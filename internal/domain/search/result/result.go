package result

import (
	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/sorting"
)

// Secondary product attribute keys. Only keys present on the source document
// appear in ProductHit.Attributes.
const (
	AttrWoodType   = "woodType"
	AttrFinish     = "finish"
	AttrDimensions = "dimensions"
	AttrGrade      = "grade"
	AttrType       = "type"
	AttrMaterial   = "material"
	AttrBrand      = "brand"
	AttrPackSize   = "packSize"
	AttrSize       = "size"
	AttrPower      = "power"
)

// AttributeKeys lists the secondary attributes in display order.
var AttributeKeys = []string{
	AttrWoodType, AttrFinish, AttrDimensions, AttrGrade, AttrType,
	AttrMaterial, AttrBrand, AttrPackSize, AttrSize, AttrPower,
}

// Highlighting holds marked-up fragments for a hit.
type Highlighting struct {
	Name        []string
	Description []string
}

// ProductHit is a single search result row.
type ProductHit struct {
	ID           string
	SKU          string
	Name         string
	Description  string
	Price        float64
	Currency     string
	Category     string
	Stock        int
	Images       []string
	Attributes   map[string]string
	Highlighting *Highlighting
}

// FacetValue is one facet option with a positive count.
type FacetValue struct {
	Value string
	Count int
}

// PriceBucket is one price-range facet bucket. Open buckets have no upper bound.
type PriceBucket struct {
	Label string
	Min   float64
	Max   float64
	Open  bool
	Count int
}

// Pagination describes the current page window.
type Pagination struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// NewPagination derives TotalPages as ceil(total/limit); limit is floored at 1.
func NewPagination(total, page, limit int) Pagination {
	if total < 0 {
		total = 0
	}
	if limit < 1 {
		limit = 1
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// Echo reflects the effective inbound query back to the client.
type Echo struct {
	FreeText    string
	IDs         []string
	SKUs        []string
	Filters     map[filter.Field][]string
	PriceMin    *float64
	PriceMax    *float64
	InStockOnly bool
	Sort        sorting.Sort
	Page        int
	Limit       int
}

// EchoOf builds the echo from a normalized request.
func EchoOf(req *request.Request) Echo {
	e := Echo{
		FreeText:    req.FreeText(),
		Filters:     req.Filters().Map(),
		InStockOnly: req.InStockOnly(),
		Sort:        req.Sort(),
		Page:        req.Page(),
		Limit:       req.Limit(),
	}
	if l := req.Lookup(); l != nil {
		switch l.Kind() {
		case request.LookupID:
			e.IDs = l.Values()
		case request.LookupSKU:
			e.SKUs = l.Values()
		}
	}
	if pr := req.PriceRange(); pr != nil {
		e.PriceMin = pr.Min()
		e.PriceMax = pr.Max()
	}
	return e
}

// Response is a normalized search result page.
type Response struct {
	Products    []ProductHit
	Facets      map[filter.Field][]FacetValue
	PriceRanges []PriceBucket
	Pagination  Pagination
	Echo        Echo
}
