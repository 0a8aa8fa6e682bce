package search

import (
	"strings"
	"testing"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

func compile(t *testing.T, rawQuery string) engine.Params {
	t.Helper()
	req := mustRequest(t, rawQuery)
	return NewCompiler(DefaultCompilerConfig()).Compile(&req)
}

func TestCompile_MatchAllByDefault(t *testing.T) {
	p := compile(t, "")
	if p.Get("q") != "*:*" {
		t.Errorf("q = %q, want *:*", p.Get("q"))
	}
	if p.Has("defType") || p.Has("qf") || p.Has("mm") {
		t.Error("match-all must not carry relevance parameters")
	}
	if p.Has("fq") {
		t.Errorf("unexpected fq: %v", p.All("fq"))
	}
	if p.Get("sort") != "score desc" {
		t.Errorf("sort = %q", p.Get("sort"))
	}
	if p.Get("start") != "0" || p.Get("rows") != "20" {
		t.Errorf("start=%s rows=%s", p.Get("start"), p.Get("rows"))
	}
	if p.Get("wt") != "json" {
		t.Errorf("wt = %q", p.Get("wt"))
	}
}

func TestCompile_FreeTextUsesWeightedRelevanceQuery(t *testing.T) {
	p := compile(t, "q=oak+board")
	if p.Get("q") != "oak board" {
		t.Errorf("q = %q", p.Get("q"))
	}
	if p.Get("defType") != "edismax" {
		t.Errorf("defType = %q", p.Get("defType"))
	}
	qf := p.Get("qf")
	if !strings.HasPrefix(qf, "name^5 ") {
		t.Errorf("qf should weight name highest: %q", qf)
	}
	for _, f := range []string{"description^2", "category^2", "woodType^2", "brand^2"} {
		if !strings.Contains(qf, f) {
			t.Errorf("qf missing %s: %q", f, qf)
		}
	}
	if p.Get("pf") != "name^10 description^4" {
		t.Errorf("pf = %q", p.Get("pf"))
	}
	if p.Get("mm") != "75%" {
		t.Errorf("mm = %q", p.Get("mm"))
	}
}

func TestCompile_FreeTextEscapesSyntax(t *testing.T) {
	req := request.New(request.Params{FreeText: `2x4 (treated) "pine" a:b -c`})
	p := NewCompiler(DefaultCompilerConfig()).Compile(&req)
	want := `2x4 \(treated\) \"pine\" a\:b \-c`
	if p.Get("q") != want {
		t.Errorf("q = %q, want %q", p.Get("q"), want)
	}
}

func TestCompile_FreeTextBooleanKeywordsAreTerms(t *testing.T) {
	p := compile(t, "q=oak+NOT+pine+AND+ash+OR+elm+ANDROID")
	if got := p.Get("q"); got != "oak not pine and ash or elm ANDROID" {
		t.Errorf("q = %q", got)
	}
}

func TestCompile_WhitespaceOnlyFreeTextIsMatchAll(t *testing.T) {
	p := compile(t, "q=+++")
	if p.Get("q") != "*:*" {
		t.Errorf("q = %q", p.Get("q"))
	}
}

func TestCompile_IDLookupTakesPrecedence(t *testing.T) {
	p := compile(t, "q=oak&ids=a,b,c&skus=S1&limit=2")
	if p.Get("q") != `id:("a" OR "b" OR "c")` {
		t.Errorf("q = %q", p.Get("q"))
	}
	if p.Has("defType") {
		t.Error("id lookup must not use the relevance parser")
	}
	if p.Get("rows") != "3" {
		t.Errorf("rows = %q, want the id count", p.Get("rows"))
	}
}

func TestCompile_SKULookup(t *testing.T) {
	p := compile(t, "skus=S-1,S-2")
	if p.Get("q") != `sku:("S-1" OR "S-2")` {
		t.Errorf("q = %q", p.Get("q"))
	}
	if p.Get("rows") != "2" {
		t.Errorf("rows = %q", p.Get("rows"))
	}
}

func TestCompile_LookupIgnoresRequestedPage(t *testing.T) {
	p := compile(t, "ids=p00,p01,p02&page=2&limit=1")
	if p.Get("start") != "0" || p.Get("rows") != "3" {
		t.Errorf("start = %q rows = %q, want 0 and 3", p.Get("start"), p.Get("rows"))
	}
}

func TestCompile_EmptyIDListFallsBackToMatchAll(t *testing.T) {
	for _, q := range []string{"ids=", "ids=,,", "ids=+,+"} {
		p := compile(t, q)
		if p.Get("q") != "*:*" {
			t.Errorf("%s: q = %q, want *:*", q, p.Get("q"))
		}
		if p.Get("rows") != "20" {
			t.Errorf("%s: rows = %q", q, p.Get("rows"))
		}
	}
}

func TestCompile_LookupValuesAreQuoted(t *testing.T) {
	req := request.New(request.Params{IDs: []string{`we"ird\id`}})
	p := NewCompiler(DefaultCompilerConfig()).Compile(&req)
	if p.Get("q") != `id:("we\"ird\\id")` {
		t.Errorf("q = %q", p.Get("q"))
	}
}

func TestCompile_FilterClauses(t *testing.T) {
	p := compile(t, "category=Wood,Tools&brand=Stanley&material=")
	fq := p.All("fq")
	want := []string{
		`category:("Wood" OR "Tools")`,
		`brand:("Stanley")`,
	}
	if len(fq) != len(want) {
		t.Fatalf("fq = %v, want %v", fq, want)
	}
	for i := range want {
		if fq[i] != want[i] {
			t.Errorf("fq[%d] = %q, want %q", i, fq[i], want[i])
		}
	}
}

func TestCompile_FilterValuesEscaped(t *testing.T) {
	req := request.New(request.Params{
		Filters: selection(t, map[filter.Field][]string{filter.Type: {`1/2" Ply`}}),
	})
	p := NewCompiler(DefaultCompilerConfig()).Compile(&req)
	if got := p.Get("fq"); got != `type:("1/2\" Ply")` {
		t.Errorf("fq = %q", got)
	}
}

func TestCompile_PriceRange(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"priceMin=50&priceMax=100", "price:[50 TO 100]"},
		{"priceMin=12.5", "price:[12.5 TO *]"},
		{"priceMax=99.99", "price:[* TO 99.99]"},
		{"priceMin=100&priceMax=50", "price:[50 TO 100]"},
	}
	for _, tt := range tests {
		p := compile(t, tt.query)
		if got := p.Get("fq"); got != tt.want {
			t.Errorf("%s: fq = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestCompile_InStock(t *testing.T) {
	p := compile(t, "inStock=true")
	if got := p.Get("fq"); got != "stock:[1 TO *]" {
		t.Errorf("fq = %q", got)
	}
	if compile(t, "inStock=false").Has("fq") {
		t.Error("inStock=false must not add a clause")
	}
}

func TestCompile_FacetsAlwaysDeclared(t *testing.T) {
	for _, q := range []string{"", "category=Wood", "ids=a"} {
		p := compile(t, q)
		if p.Get("facet") != "true" || p.Get("facet.mincount") != "1" {
			t.Errorf("%q: facet=%q mincount=%q", q, p.Get("facet"), p.Get("facet.mincount"))
		}
		fields := p.All("facet.field")
		if len(fields) != len(filter.Fields) {
			t.Errorf("%q: facet.field = %v", q, fields)
		}
		if p.Get("facet.range") != "price" ||
			p.Get("f.price.facet.range.start") != "0" ||
			p.Get("f.price.facet.range.end") != "500" ||
			p.Get("f.price.facet.range.gap") != "50" {
			t.Errorf("%q: unexpected range facet params", q)
		}
		if p.Has("f.price.facet.range.other") {
			t.Errorf("%q: overflow bucket requested by default", q)
		}
	}
}

func TestCompile_OverflowBucketOptIn(t *testing.T) {
	cfg := DefaultCompilerConfig()
	cfg.PriceFacet.IncludeOverflow = true
	req := request.New(request.Params{})
	p := NewCompiler(cfg).Compile(&req)
	if p.Get("f.price.facet.range.other") != "after" {
		t.Errorf("other = %q", p.Get("f.price.facet.range.other"))
	}
}

func TestCompile_SortMapping(t *testing.T) {
	tests := map[string]string{
		"":                 "score desc",
		"sort=relevance":   "score desc",
		"sort=price_asc":   "price asc",
		"sort=price_desc":  "price desc",
		"sort=name_asc":    "name_sort asc",
		"sort=name_desc":   "name_sort desc",
		"sort=rating_desc": "score desc",
	}
	for q, want := range tests {
		if got := compile(t, q).Get("sort"); got != want {
			t.Errorf("%q: sort = %q, want %q", q, got, want)
		}
	}
}

func TestCompile_Pagination(t *testing.T) {
	p := compile(t, "page=3&limit=15")
	if p.Get("start") != "30" || p.Get("rows") != "15" {
		t.Errorf("start=%s rows=%s", p.Get("start"), p.Get("rows"))
	}
}

func TestCompile_Highlighting(t *testing.T) {
	cfg := DefaultCompilerConfig()
	cfg.HighlightPre, cfg.HighlightPost = "<b>", "</b>"
	req := request.New(request.Params{Sort: "price_asc"})
	p := NewCompiler(cfg).Compile(&req)
	if p.Get("hl") != "true" || p.Get("hl.fl") != "name,description" {
		t.Errorf("hl=%q hl.fl=%q", p.Get("hl"), p.Get("hl.fl"))
	}
	if p.Get("hl.simple.pre") != "<b>" || p.Get("hl.simple.post") != "</b>" {
		t.Errorf("markers = %q %q", p.Get("hl.simple.pre"), p.Get("hl.simple.post"))
	}
}

func TestCompile_ClauseOrder(t *testing.T) {
	p := compile(t, "q=oak&category=Wood&sort=price_asc")
	var keys []string
	for _, kv := range p {
		if len(keys) == 0 || keys[len(keys)-1] != kv.Key {
			keys = append(keys, kv.Key)
		}
	}
	order := []string{"q", "fq", "facet", "sort", "start", "rows", "hl", "wt"}
	pos := 0
	for _, k := range keys {
		if pos < len(order) && k == order[pos] {
			pos++
		}
	}
	if pos != len(order) {
		t.Errorf("clause order %v does not follow %v", keys, order)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	a := compile(t, "q=oak&category=Wood,Tools&brand=Stanley&priceMin=5&inStock=true")
	b := compile(t, "q=oak&category=Wood,Tools&brand=Stanley&priceMin=5&inStock=true")
	if a.Encode() != b.Encode() {
		t.Errorf("compilation is not deterministic:\n%s\n%s", a.Encode(), b.Encode())
	}
}

func TestCompileSuggest(t *testing.T) {
	p := NewCompiler(DefaultCompilerConfig()).CompileSuggest("oa")
	if p.Get("q") != "oa" || p.Get("defType") != "edismax" {
		t.Errorf("q=%q defType=%q", p.Get("q"), p.Get("defType"))
	}
	if p.Get("qf") != "name_autocomplete^3 name^2 sku^1" {
		t.Errorf("qf = %q", p.Get("qf"))
	}
	if p.Get("fl") != "id,name,category,price" || p.Get("rows") != "8" {
		t.Errorf("fl=%q rows=%q", p.Get("fl"), p.Get("rows"))
	}
	for _, k := range []string{"facet", "hl", "fq", "sort"} {
		if p.Has(k) {
			t.Errorf("suggest params must not include %s", k)
		}
	}
}

func TestNewCompiler_ZeroConfigTakesDefaults(t *testing.T) {
	c := NewCompiler(CompilerConfig{})
	cfg := c.Config()
	if cfg.HighlightPre != "<mark>" || cfg.PriceFacet.Gap != 50 || cfg.SuggestRows != 8 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
