package search

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/result"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/suggest"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// normalize converts a native select response into a result page.
// Hit order is the engine's order; facet order is the engine's order.
func normalize(native *engine.Response, req *request.Request) (result.Response, error) {
	if native == nil {
		return result.Response{}, fmt.Errorf("empty engine response")
	}

	hl := native.Highlighting
	products := make([]result.ProductHit, 0, len(native.Response.Docs))
	for _, doc := range native.Response.Docs {
		hit := mapHit(doc)
		if entry, ok := hl[hit.ID]; ok {
			hit.Highlighting = mapHighlighting(entry)
		}
		products = append(products, hit)
	}

	resp := result.Response{
		Products:   products,
		Facets:     make(map[filter.Field][]result.FacetValue),
		Pagination: result.NewPagination(int(native.Response.NumFound), req.Page(), req.Limit()),
		Echo:       result.EchoOf(req),
	}

	if fc := native.FacetCounts; fc != nil {
		for _, f := range filter.Fields {
			if values := parseFacetPairs(fc.FacetFields[string(f)]); len(values) > 0 {
				resp.Facets[f] = values
			}
		}
		if rf, ok := fc.FacetRanges[engine.FieldPrice]; ok {
			resp.PriceRanges = parsePriceRanges(rf)
		}
	}

	return resp, nil
}

// normalizeSuggestions maps the restricted autocomplete projection.
func normalizeSuggestions(native *engine.Response) []suggest.Suggestion {
	out := make([]suggest.Suggestion, 0)
	if native == nil {
		return out
	}
	for _, doc := range native.Response.Docs {
		var s suggest.Suggestion
		s.ID, _ = rawString(doc[engine.FieldID])
		s.Name, _ = rawString(doc[engine.FieldName])
		s.Category, _ = rawString(doc[engine.FieldCategory])
		s.Price, _ = rawFloat(doc[engine.FieldPrice])
		out = append(out, s)
	}
	return out
}

func mapHit(doc map[string]json.RawMessage) result.ProductHit {
	var h result.ProductHit
	h.ID, _ = rawString(doc[engine.FieldID])
	h.SKU, _ = rawString(doc[engine.FieldSKU])
	h.Name, _ = rawString(doc[engine.FieldName])
	h.Description, _ = rawString(doc[engine.FieldDescription])
	h.Price, _ = rawFloat(doc[engine.FieldPrice])
	h.Currency, _ = rawString(doc[engine.FieldCurrency])
	h.Category, _ = rawString(doc[engine.FieldCategory])
	if stock, ok := rawFloat(doc[engine.FieldStock]); ok {
		h.Stock = int(stock)
	}
	h.Images = rawStrings(doc[engine.FieldImages])

	h.Attributes = make(map[string]string)
	for _, key := range result.AttributeKeys {
		if v, ok := rawString(doc[key]); ok && v != "" {
			h.Attributes[key] = v
		}
	}
	return h
}

func mapHighlighting(entry map[string][]string) *result.Highlighting {
	name := entry[engine.FieldName]
	desc := entry[engine.FieldDescription]
	if len(name) == 0 && len(desc) == 0 {
		return nil
	}
	return &result.Highlighting{Name: name, Description: desc}
}

// parseFacetPairs reads a flat [value, count, value, count, ...] array.
// Pairs with a non-positive or unreadable count are dropped.
func parseFacetPairs(flat []json.RawMessage) []result.FacetValue {
	var out []result.FacetValue
	for i := 0; i+1 < len(flat); i += 2 {
		value, ok := rawString(flat[i])
		if !ok {
			continue
		}
		count, ok := rawFloat(flat[i+1])
		if !ok || count <= 0 {
			continue
		}
		out = append(out, result.FacetValue{Value: value, Count: int(count)})
	}
	return out
}

// parsePriceRanges reads a range facet into labelled buckets, skipping empty
// ones. The "after" count becomes an open-ended bucket when the engine sent it.
func parsePriceRanges(rf engine.RangeFacet) []result.PriceBucket {
	gapF, ok := rawFloat(rf.Gap)
	if !ok || gapF <= 0 {
		return nil
	}
	gap := decimal.NewFromFloat(gapF)

	var out []result.PriceBucket
	for i := 0; i+1 < len(rf.Counts); i += 2 {
		startF, ok := rawFloat(rf.Counts[i])
		if !ok {
			continue
		}
		count, ok := rawFloat(rf.Counts[i+1])
		if !ok || count <= 0 {
			continue
		}
		lo := decimal.NewFromFloat(startF)
		hi := lo.Add(gap)
		out = append(out, result.PriceBucket{
			Label: "$" + lo.String() + " - $" + hi.String(),
			Min:   lo.InexactFloat64(),
			Max:   hi.InexactFloat64(),
			Count: int(count),
		})
	}

	if rf.After != nil && *rf.After > 0 {
		if endF, ok := rawFloat(rf.End); ok {
			end := decimal.NewFromFloat(endF)
			out = append(out, result.PriceBucket{
				Label: "$" + end.String() + "+",
				Min:   end.InexactFloat64(),
				Max:   end.InexactFloat64(),
				Open:  true,
				Count: int(*rf.After),
			})
		}
	}
	return out
}

// rawString decodes a string, the first element of a string array, or a scalar.
func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return rawString(list[0])
	}
	return "", false
}

// rawFloat decodes a number, a numeric string, or the first element of an array.
func rawFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, perr := strconv.ParseFloat(s, 64)
		return v, perr == nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return rawFloat(list[0])
	}
	return 0, false
}

// rawStrings decodes a string array or a single string.
func rawStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	if s, ok := rawString(raw); ok && s != "" {
		return []string{s}
	}
	return []string{}
}
