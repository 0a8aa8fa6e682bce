package search

import (
	"strconv"
	"strings"

	"github.com/buildy-mcbuild/storefront/internal/domain/search/filter"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/sorting"
	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// Solr request parameter names.
const (
	paramQ             = "q"
	paramDefType       = "defType"
	paramQF            = "qf"
	paramPF            = "pf"
	paramMM            = "mm"
	paramFQ            = "fq"
	paramFL            = "fl"
	paramSort          = "sort"
	paramStart         = "start"
	paramRows          = "rows"
	paramWT            = "wt"
	paramFacet         = "facet"
	paramFacetField    = "facet.field"
	paramFacetMin      = "facet.mincount"
	paramFacetLimit    = "facet.limit"
	paramFacetRange    = "facet.range"
	paramHL            = "hl"
	paramHLFields      = "hl.fl"
	paramHLPre         = "hl.simple.pre"
	paramHLPost        = "hl.simple.post"
	paramHLSnippets    = "hl.snippets"
	paramHLFragsize    = "hl.fragsize"
	matchAll           = "*:*"
	queryParser        = "edismax"
	responseFormat     = "json"
	minimumShouldMatch = "75%"
)

// Field weights for the relevance query. Name dominates, then the
// descriptive fields, then the remaining attributes.
const (
	textQueryFields   = "name^5 description^2 category^2 woodType^2 brand^2 material^1 finish^1 grade^1 type^1"
	textPhraseFields  = "name^10 description^4"
	suggestQueryField = "name_autocomplete^3 name^2 sku^1"
	suggestFieldList  = "id,name,category,price"
	highlightFields   = "name,description"
)

// PriceFacet configures the fixed-width price range facet.
type PriceFacet struct {
	Start           float64
	End             float64
	Gap             float64
	IncludeOverflow bool
}

// CompilerConfig holds tunables for query compilation.
type CompilerConfig struct {
	HighlightPre  string
	HighlightPost string
	PriceFacet    PriceFacet
	SuggestRows   int
}

// DefaultCompilerConfig returns the storefront defaults: $0-$500 in $50
// buckets with no overflow bucket, <mark> highlighting, 8 suggestions.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		HighlightPre:  "<mark>",
		HighlightPost: "</mark>",
		PriceFacet:    PriceFacet{Start: 0, End: 500, Gap: 50},
		SuggestRows:   8,
	}
}

// Compiler translates search requests into Solr parameters.
// It is stateless and safe for concurrent use.
type Compiler struct {
	cfg CompilerConfig
}

// NewCompiler creates a Compiler. Zero-valued settings take the defaults.
func NewCompiler(cfg CompilerConfig) *Compiler {
	def := DefaultCompilerConfig()
	if cfg.HighlightPre == "" && cfg.HighlightPost == "" {
		cfg.HighlightPre, cfg.HighlightPost = def.HighlightPre, def.HighlightPost
	}
	if cfg.PriceFacet.Gap <= 0 || cfg.PriceFacet.End <= cfg.PriceFacet.Start {
		overflow := cfg.PriceFacet.IncludeOverflow
		cfg.PriceFacet = def.PriceFacet
		cfg.PriceFacet.IncludeOverflow = overflow
	}
	if cfg.SuggestRows <= 0 {
		cfg.SuggestRows = def.SuggestRows
	}
	return &Compiler{cfg: cfg}
}

// Config returns the effective configuration.
func (c *Compiler) Config() CompilerConfig { return c.cfg }

// Compile builds the select parameters for a search request. Clause order:
// primary query, filter queries, facets, sort, paging, highlighting, format.
func (c *Compiler) Compile(req *request.Request) engine.Params {
	var p engine.Params

	switch l := req.Lookup(); {
	case l != nil && len(l.Values()) > 0:
		field := engine.FieldID
		if l.Kind() == request.LookupSKU {
			field = engine.FieldSKU
		}
		p.Add(paramQ, anyOf(field, l.Values()))
	case req.FreeText() != "":
		p.Add(paramQ, escapeQuery(req.FreeText()))
		p.Add(paramDefType, queryParser)
		p.Add(paramQF, textQueryFields)
		p.Add(paramPF, textPhraseFields)
		p.Add(paramMM, minimumShouldMatch)
	default:
		p.Add(paramQ, matchAll)
	}

	for _, f := range req.Filters().Active() {
		p.Add(paramFQ, anyOf(string(f), req.Filters().Values(f)))
	}
	if pr := req.PriceRange(); pr != nil {
		p.Add(paramFQ, rangeClause(engine.FieldPrice, pr.Min(), pr.Max()))
	}
	if req.InStockOnly() {
		one := 1.0
		p.Add(paramFQ, rangeClause(engine.FieldStock, &one, nil))
	}

	c.addFacets(&p)

	p.Add(paramSort, sortClause(req.Sort()))
	p.Add(paramStart, strconv.Itoa(req.Offset()))
	p.Add(paramRows, strconv.Itoa(req.Limit()))

	p.Add(paramHL, "true")
	p.Add(paramHLFields, highlightFields)
	p.Add(paramHLPre, c.cfg.HighlightPre)
	p.Add(paramHLPost, c.cfg.HighlightPost)
	p.Add(paramHLSnippets, "1")
	p.Add(paramHLFragsize, "0")

	p.Add(paramWT, responseFormat)
	return p
}

// CompileSuggest builds the autocomplete parameters for a prefix.
func (c *Compiler) CompileSuggest(prefix string) engine.Params {
	var p engine.Params
	p.Add(paramQ, escapeQuery(prefix))
	p.Add(paramDefType, queryParser)
	p.Add(paramQF, suggestQueryField)
	p.Add(paramFL, suggestFieldList)
	p.Add(paramRows, strconv.Itoa(c.cfg.SuggestRows))
	p.Add(paramWT, responseFormat)
	return p
}

func (c *Compiler) addFacets(p *engine.Params) {
	pf := c.cfg.PriceFacet
	p.Add(paramFacet, "true")
	p.Add(paramFacetMin, "1")
	p.Add(paramFacetLimit, "-1")
	for _, f := range filter.Fields {
		p.Add(paramFacetField, string(f))
	}
	p.Add(paramFacetRange, engine.FieldPrice)
	p.Add(rangeParam("start"), formatNumber(pf.Start))
	p.Add(rangeParam("end"), formatNumber(pf.End))
	p.Add(rangeParam("gap"), formatNumber(pf.Gap))
	if pf.IncludeOverflow {
		p.Add(rangeParam("other"), "after")
	}
}

func rangeParam(name string) string {
	return "f." + engine.FieldPrice + ".facet.range." + name
}

func sortClause(s sorting.Sort) string {
	switch s {
	case sorting.PriceAsc:
		return engine.FieldPrice + " asc"
	case sorting.PriceDesc:
		return engine.FieldPrice + " desc"
	case sorting.NameAsc:
		return engine.FieldNameSort + " asc"
	case sorting.NameDesc:
		return engine.FieldNameSort + " desc"
	default:
		return engine.FieldScore + " desc"
	}
}

// anyOf builds field:("v1" OR "v2"). Callers guarantee values is non-empty.
func anyOf(field string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return field + ":(" + strings.Join(quoted, " OR ") + ")"
}

func rangeClause(field string, lo, hi *float64) string {
	return field + ":[" + bound(lo) + " TO " + bound(hi) + "]"
}

func bound(v *float64) string {
	if v == nil {
		return "*"
	}
	return formatNumber(*v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote wraps a value in a phrase literal. Inside quotes only the backslash
// and the quote character are special.
func quote(v string) string {
	return `"` + phraseEscaper.Replace(v) + `"`
}

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeQuery neutralizes Lucene syntax in free text so user input is
// matched as terms, never parsed as operators. edismax reads uppercase
// AND/OR/NOT as boolean keywords, so those words are lowercased.
func escapeQuery(s string) string {
	words := strings.Fields(queryEscaper.Replace(s))
	for i, w := range words {
		switch w {
		case "AND", "OR", "NOT":
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`+`, `\+`,
	`-`, `\-`,
	`&`, `\&`,
	`|`, `\|`,
	`!`, `\!`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`^`, `\^`,
	`"`, `\"`,
	`~`, `\~`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
	`/`, `\/`,
)
