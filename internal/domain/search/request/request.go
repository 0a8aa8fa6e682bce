package request

import (
	"strings"
	"unicode/utf8"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/sorting"
)

// Search parameter limits.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage bounds deep pagination so the offset stays within engine limits.
	MaxPage = 1000
	// MaxQueryLength is the maximum free-text length in runes; longer input is truncated.
	MaxQueryLength = 512
	// MaxLookupValues caps an id/sku batch lookup.
	MaxLookupValues = 250
)

// LookupKind selects the exact-match field for a batch lookup.
type LookupKind string

// Lookup kinds.
const (
	LookupID  LookupKind = "id"
	LookupSKU LookupKind = "sku"
)

// IDLookup is an exact-match batch fetch by id or sku.
type IDLookup struct {
	kind   LookupKind
	values []string
}

// Kind returns the lookup field.
func (l IDLookup) Kind() LookupKind { return l.kind }

// Values returns the requested identifiers in input order.
func (l IDLookup) Values() []string { return l.values }

// Params carries raw search inputs before normalization.
type Params struct {
	FreeText    string
	IDs         []string
	SKUs        []string
	Filters     filter.Selection
	PriceMin    *float64
	PriceMax    *float64
	InStockOnly bool
	Sort        string
	Page        int
	Limit       int
}

// Request is a normalized search query.
type Request struct {
	freeText    string
	lookup      *IDLookup
	filters     filter.Selection
	priceRange  *filter.PriceRange
	inStockOnly bool
	sort        sorting.Sort
	page        int
	limit       int
}

// New normalizes search parameters. Invalid values fall back to the nearest
// safe default instead of failing: page<1 -> 1, limit<1 -> 20, limit>100 -> 100,
// unknown sort -> relevance. ids take precedence over skus; an empty id list
// is treated as no lookup. A lookup always returns its whole batch as page 1,
// so limit becomes the number of requested values.
func New(p Params) Request {
	r := Request{
		freeText:    normalizeText(p.FreeText),
		filters:     p.Filters,
		inStockOnly: p.InStockOnly,
		sort:        sorting.Parse(p.Sort),
		page:        p.Page,
		limit:       p.Limit,
	}

	if ids := SplitList(p.IDs...); len(ids) > 0 {
		r.lookup = &IDLookup{kind: LookupID, values: capValues(ids)}
	} else if skus := SplitList(p.SKUs...); len(skus) > 0 {
		r.lookup = &IDLookup{kind: LookupSKU, values: capValues(skus)}
	}

	if p.PriceMin != nil || p.PriceMax != nil {
		pr, err := filter.NewPriceRange(p.PriceMin, p.PriceMax)
		if err == nil {
			r.priceRange = &pr
		}
	}

	if r.page < 1 {
		r.page = DefaultPage
	}
	if r.page > MaxPage {
		r.page = MaxPage
	}
	if r.limit < 1 {
		r.limit = DefaultLimit
	}
	if r.limit > MaxLimit {
		r.limit = MaxLimit
	}

	if r.lookup != nil {
		r.page = 1
		r.limit = len(r.lookup.values)
	}

	return r
}

// ForID builds an exact single-id lookup. The id is used verbatim, so a value
// containing commas is looked up as one identifier. A blank id yields a
// match-all request; callers must reject it first.
func ForID(id string) Request {
	r := New(Params{})
	if id = strings.TrimSpace(id); id != "" {
		r.lookup = &IDLookup{kind: LookupID, values: []string{id}}
		r.limit = 1
	}
	return r
}

// FreeText returns the trimmed free-text query, empty for match-all.
func (r Request) FreeText() string { return r.freeText }

// Lookup returns the id/sku batch lookup or nil.
func (r Request) Lookup() *IDLookup { return r.lookup }

// Filters returns the selected facet filters.
func (r Request) Filters() filter.Selection { return r.filters }

// PriceRange returns the price bounds or nil.
func (r Request) PriceRange() *filter.PriceRange { return r.priceRange }

// InStockOnly reports whether out-of-stock products are excluded.
func (r Request) InStockOnly() bool { return r.inStockOnly }

// Sort returns the result ordering.
func (r Request) Sort() sorting.Sort { return r.sort }

// Page returns the 1-indexed page number.
func (r Request) Page() int { return r.page }

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// Offset returns the zero-based index of the first hit on the page.
func (r Request) Offset() int { return (r.page - 1) * r.limit }

// SplitList splits comma-separated inputs, trimming whitespace and dropping empty items.
func SplitList(raw ...string) []string {
	var out []string
	for _, chunk := range raw {
		for _, item := range strings.Split(chunk, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func normalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxQueryLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxQueryLength]))
}

func capValues(values []string) []string {
	if len(values) > MaxLookupValues {
		return values[:MaxLookupValues]
	}
	return values
}
