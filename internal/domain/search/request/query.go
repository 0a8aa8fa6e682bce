package request

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
)

// Query-string parameter names.
const (
	ParamQuery    = "q"
	ParamIDs      = "ids"
	ParamSKUs     = "skus"
	ParamPage     = "page"
	ParamLimit    = "limit"
	ParamSort     = "sort"
	ParamPriceMin = "priceMin"
	ParamPriceMax = "priceMax"
	ParamInStock  = "inStock"
)

// FromQuery builds a Request from URL query values. Multi-select filters accept
// comma-separated values and repeated keys. Malformed numbers are ignored.
func FromQuery(v url.Values) Request {
	p := Params{
		FreeText:    v.Get(ParamQuery),
		IDs:         v[ParamIDs],
		SKUs:        v[ParamSKUs],
		Filters:     filter.NewSelection(),
		PriceMin:    parseFloat(v.Get(ParamPriceMin)),
		PriceMax:    parseFloat(v.Get(ParamPriceMax)),
		InStockOnly: strings.EqualFold(strings.TrimSpace(v.Get(ParamInStock)), "true"),
		Sort:        strings.TrimSpace(v.Get(ParamSort)),
		Page:        parseInt(v.Get(ParamPage)),
		Limit:       parseInt(v.Get(ParamLimit)),
	}
	for _, f := range filter.Fields {
		if values := SplitList(v[string(f)]...); len(values) > 0 {
			_ = p.Filters.Add(f, values...)
		}
	}
	return New(p)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
