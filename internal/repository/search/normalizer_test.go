package search

import (
	"encoding/json"
	"testing"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

const solrFixture = `{
  "responseHeader": {"status": 0, "QTime": 3},
  "response": {
    "numFound": 41,
    "start": 0,
    "docs": [
      {
        "id": "p-1",
        "sku": "OAK-1",
        "name": "Oak Board",
        "description": "Kiln dried oak",
        "price": 19.5,
        "currency": "USD",
        "category": "Wood",
        "stock": 12,
        "images": ["https://cdn/1.jpg", "https://cdn/2.jpg"],
        "woodType": "Oak",
        "finish": "Raw",
        "grade": ["Select"]
      },
      {
        "id": "p-2",
        "sku": "HAM-2",
        "name": "Claw Hammer",
        "price": "24.00",
        "category": "Tools",
        "stock": 0,
        "brand": "Stanley",
        "packSize": 1
      }
    ]
  },
  "facet_counts": {
    "facet_fields": {
      "category": ["Wood", 30, "Tools", 11, "Hardware", 0],
      "brand": ["Stanley", 5],
      "material": []
    },
    "facet_ranges": {
      "price": {
        "counts": ["0.0", 4, "50.0", 0, "100.0", 7],
        "gap": 50.0,
        "start": 0.0,
        "end": 500.0
      }
    }
  },
  "highlighting": {
    "p-1": {"name": ["<mark>Oak</mark> Board"]},
    "p-2": {}
  }
}`

func decodeFixture(t *testing.T) *engine.Response {
	t.Helper()
	var r engine.Response
	if err := json.Unmarshal([]byte(solrFixture), &r); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &r
}

func TestNormalize_Hits(t *testing.T) {
	req := request.New(request.Params{FreeText: "oak", Limit: 20})
	resp, err := normalize(decodeFixture(t), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(resp.Products))
	}

	p := resp.Products[0]
	if p.ID != "p-1" || p.SKU != "OAK-1" || p.Name != "Oak Board" || p.Price != 19.5 ||
		p.Currency != "USD" || p.Category != "Wood" || p.Stock != 12 {
		t.Errorf("unexpected hit: %+v", p)
	}
	if len(p.Images) != 2 {
		t.Errorf("Images = %v", p.Images)
	}
	if p.Attributes["woodType"] != "Oak" || p.Attributes["finish"] != "Raw" || p.Attributes["grade"] != "Select" {
		t.Errorf("Attributes = %v", p.Attributes)
	}
	if p.Highlighting == nil || len(p.Highlighting.Name) != 1 || p.Highlighting.Name[0] != "<mark>Oak</mark> Board" {
		t.Errorf("Highlighting = %+v", p.Highlighting)
	}
	if p.Highlighting.Description != nil {
		t.Errorf("Description highlight should be absent: %v", p.Highlighting.Description)
	}
}

func TestNormalize_MissingAttributesAreAbsent(t *testing.T) {
	req := request.New(request.Params{})
	resp, _ := normalize(decodeFixture(t), &req)
	p := resp.Products[1]

	for _, key := range []string{"woodType", "finish", "dimensions", "grade", "material"} {
		if _, ok := p.Attributes[key]; ok {
			t.Errorf("attribute %q must be absent, got %q", key, p.Attributes[key])
		}
	}
	if p.Attributes["brand"] != "Stanley" || p.Attributes["packSize"] != "1" {
		t.Errorf("Attributes = %v", p.Attributes)
	}
	if p.Price != 24 {
		t.Errorf("string price not decoded: %v", p.Price)
	}
	if p.Highlighting != nil {
		t.Errorf("empty highlight entry should be nil, got %+v", p.Highlighting)
	}
	if p.Images == nil || len(p.Images) != 0 {
		t.Errorf("Images = %#v, want empty slice", p.Images)
	}
}

func TestNormalize_FacetsDropZeroAndKeepOrder(t *testing.T) {
	req := request.New(request.Params{})
	resp, _ := normalize(decodeFixture(t), &req)

	cat := resp.Facets[filter.Category]
	if len(cat) != 2 || cat[0].Value != "Wood" || cat[0].Count != 30 || cat[1].Value != "Tools" {
		t.Errorf("category facet = %+v", cat)
	}
	if _, ok := resp.Facets[filter.Material]; ok {
		t.Error("empty facet field must be omitted")
	}
	for field, values := range resp.Facets {
		for _, v := range values {
			if v.Count <= 0 {
				t.Errorf("%s: zero-count value %q emitted", field, v.Value)
			}
		}
	}
}

func TestNormalize_PriceRanges(t *testing.T) {
	req := request.New(request.Params{})
	resp, _ := normalize(decodeFixture(t), &req)

	got := resp.PriceRanges
	if len(got) != 2 {
		t.Fatalf("PriceRanges = %+v", got)
	}
	if got[0].Label != "$0 - $50" || got[0].Min != 0 || got[0].Max != 50 || got[0].Count != 4 {
		t.Errorf("bucket 0 = %+v", got[0])
	}
	if got[1].Label != "$100 - $150" || got[1].Count != 7 {
		t.Errorf("bucket 1 = %+v", got[1])
	}
}

func TestNormalize_Pagination(t *testing.T) {
	req := request.New(request.Params{Page: 2, Limit: 20})
	resp, _ := normalize(decodeFixture(t), &req)
	pg := resp.Pagination
	if pg.Total != 41 || pg.Page != 2 || pg.Limit != 20 || pg.TotalPages != 3 {
		t.Errorf("Pagination = %+v", pg)
	}
}

func TestNormalize_EchoFromRequestNotEngine(t *testing.T) {
	req := request.New(request.Params{
		Filters: selection(t, map[filter.Field][]string{filter.Category: {"Nothing"}}),
		Sort:    "name_desc",
	})
	empty := &engine.Response{}
	resp, err := normalize(empty, &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Products) != 0 || resp.Pagination.Total != 0 || resp.Pagination.TotalPages != 0 {
		t.Errorf("unexpected empty response: %+v", resp)
	}
	if resp.Echo.Sort != "name_desc" || resp.Echo.Filters[filter.Category][0] != "Nothing" {
		t.Errorf("Echo = %+v", resp.Echo)
	}
	if resp.Products == nil {
		t.Error("Products should be an empty slice, not nil")
	}
}

func TestNormalize_NilResponse(t *testing.T) {
	req := request.New(request.Params{})
	if _, err := normalize(nil, &req); err == nil {
		t.Fatal("expected error for nil response")
	}
}

func TestParseFacetPairs_Malformed(t *testing.T) {
	got := parseFacetPairs(rawList(t, "A", 2, "B", "x", "C", -1, "D", 1, "dangling"))
	if len(got) != 2 || got[0].Value != "A" || got[1].Value != "D" {
		t.Errorf("parseFacetPairs = %+v", got)
	}
}

func TestParseFacetPairs_NumericValues(t *testing.T) {
	got := parseFacetPairs(rawList(t, 2, 3))
	if len(got) != 1 || got[0].Value != "2" || got[0].Count != 3 {
		t.Errorf("parseFacetPairs = %+v", got)
	}
}

func TestParsePriceRanges_OverflowAndFractionalGap(t *testing.T) {
	after := int64(3)
	rf := engine.RangeFacet{
		Counts: rawList(t, "0.0", 1, "12.5", 2),
		Gap:    raw(t, 12.5),
		Start:  raw(t, 0),
		End:    raw(t, 25),
		After:  &after,
	}
	got := parsePriceRanges(rf)
	if len(got) != 3 {
		t.Fatalf("buckets = %+v", got)
	}
	if got[1].Label != "$12.5 - $25" || got[1].Max != 25 {
		t.Errorf("bucket 1 = %+v", got[1])
	}
	if got[2].Label != "$25+" || !got[2].Open || got[2].Count != 3 {
		t.Errorf("overflow bucket = %+v", got[2])
	}
}

func TestParsePriceRanges_ZeroAfterOmitted(t *testing.T) {
	zero := int64(0)
	rf := engine.RangeFacet{Counts: rawList(t, "0", 1), Gap: raw(t, 50), End: raw(t, 500), After: &zero}
	if got := parsePriceRanges(rf); len(got) != 1 {
		t.Errorf("buckets = %+v", got)
	}
}

func TestParsePriceRanges_MissingGap(t *testing.T) {
	rf := engine.RangeFacet{Counts: rawList(t, "0", 1)}
	if got := parsePriceRanges(rf); got != nil {
		t.Errorf("buckets = %+v, want nil", got)
	}
}

func TestNormalizeSuggestions(t *testing.T) {
	native := &engine.Response{Response: engine.DocList{Docs: []map[string]json.RawMessage{
		{"id": raw(t, "p-1"), "name": raw(t, "Oak Board"), "category": raw(t, "Wood"), "price": raw(t, 19.5)},
		{"id": raw(t, "p-2"), "name": raw(t, "Oak Dowel")},
	}}}
	got := normalizeSuggestions(native)
	if len(got) != 2 || got[0].Name != "Oak Board" || got[0].Price != 19.5 || got[1].Category != "" {
		t.Errorf("suggestions = %+v", got)
	}
	if empty := normalizeSuggestions(nil); empty == nil || len(empty) != 0 {
		t.Errorf("nil response should yield an empty slice, got %#v", empty)
	}
}
