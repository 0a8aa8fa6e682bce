package memory

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// Solr defaults applied when a parameter is absent.
const (
	defaultRows       = 10
	defaultFacetLimit = 100
	defaultHLPre      = "<em>"
	defaultHLPost     = "</em>"
	maxRangeBuckets   = 10000
)

func (idx *index) execute(p engine.Params) (*engine.Response, error) {
	matched := idx.all.Clone()
	var (
		scores map[uint32]float64
		terms  []string
	)

	q := strings.TrimSpace(p.Get("q"))
	switch {
	case q == "" || q == "*:*":
	case p.Get("defType") == "edismax":
		tq := newTextQuery(q, p.Get("qf"), p.Get("pf"), p.Get("mm"))
		terms = tq.terms
		matched, scores = idx.matchText(tq, matched)
	default:
		c, err := parseClause(q)
		if err != nil {
			return nil, err
		}
		matched.And(idx.eval(c))
	}

	for _, fq := range p.All("fq") {
		c, err := parseClause(fq)
		if err != nil {
			return nil, err
		}
		matched.And(idx.eval(c))
	}

	ids := matched.ToArray()
	keys, err := parseSort(p.Get("sort"))
	if err != nil {
		return nil, err
	}
	idx.sortDocs(ids, keys, scores)

	start := intParam(p, "start", 0)
	rows := intParam(p, "rows", defaultRows)
	window := paginate(ids, start, rows)

	resp := &engine.Response{
		Response: engine.DocList{
			NumFound: int64(len(ids)),
			Start:    int64(start),
			Docs:     make([]map[string]json.RawMessage, 0, len(window)),
		},
	}
	fl := parseFieldList(p.Get("fl"))
	for _, docID := range window {
		doc, err := idx.docs[docID].project(fl, scores[docID])
		if err != nil {
			return nil, err
		}
		resp.Response.Docs = append(resp.Response.Docs, doc)
	}

	if p.Get("facet") == "true" {
		fc, err := idx.facets(p, matched)
		if err != nil {
			return nil, err
		}
		resp.FacetCounts = fc
	}
	if p.Get("hl") == "true" {
		resp.Highlighting = idx.highlight(window, terms, p)
	}
	return resp, nil
}

func intParam(p engine.Params, key string, def int) int {
	raw := p.Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func paginate(ids []uint32, start, rows int) []uint32 {
	if start < 0 {
		start = 0
	}
	if start >= len(ids) || rows <= 0 {
		return nil
	}
	end := start + rows
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}

type sortKey struct {
	field string
	desc  bool
}

// parseSort reads "price asc, name_sort desc". Empty means score desc.
func parseSort(raw string) ([]sortKey, error) {
	if strings.TrimSpace(raw) == "" {
		return []sortKey{{field: engine.FieldScore, desc: true}}, nil
	}
	var keys []sortKey
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, badRequest("can't determine sort order %q", part)
		}
		switch strings.ToLower(fields[1]) {
		case "asc":
			keys = append(keys, sortKey{field: fields[0]})
		case "desc":
			keys = append(keys, sortKey{field: fields[0], desc: true})
		default:
			return nil, badRequest("unknown sort direction %q", fields[1])
		}
	}
	return keys, nil
}

// sortDocs orders ids in place. Ties keep index order; documents missing a
// sort value go last in either direction.
func (idx *index) sortDocs(ids []uint32, keys []sortKey, scores map[uint32]float64) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		for _, k := range keys {
			c, decided := idx.compare(a, b, k, scores)
			if decided {
				return c
			}
		}
		return false
	})
}

// compare reports whether a sorts before b under k, and whether k decides it.
func (idx *index) compare(a, b uint32, k sortKey, scores map[uint32]float64) (less, decided bool) {
	if k.field == engine.FieldScore {
		sa, sb := scores[a], scores[b]
		if sa == sb {
			return false, false
		}
		return (sa < sb) != k.desc, true
	}

	da, db := idx.docs[a], idx.docs[b]
	if na, okA := da.nums[k.field]; okA || hasNum(db, k.field) {
		nb, okB := db.nums[k.field]
		switch {
		case okA && !okB:
			return true, true
		case !okA && okB:
			return false, true
		case na == nb:
			return false, false
		}
		return (na < nb) != k.desc, true
	}

	sa, okA := firstString(da, k.field)
	sb, okB := firstString(db, k.field)
	switch {
	case !okA && !okB:
		return false, false
	case okA && !okB:
		return true, true
	case !okA && okB:
		return false, true
	case sa == sb:
		return false, false
	}
	return (sa < sb) != k.desc, true
}

func hasNum(d storedDoc, field string) bool {
	_, ok := d.nums[field]
	return ok
}

func firstString(d storedDoc, field string) (string, bool) {
	if v := d.strs[field]; len(v) > 0 {
		return v[0], true
	}
	return "", false
}

func (idx *index) facets(p engine.Params, matched *roaring.Bitmap) (*engine.FacetCounts, error) {
	mincount := intParam(p, "facet.mincount", 0)
	limit := intParam(p, "facet.limit", defaultFacetLimit)

	fc := &engine.FacetCounts{
		FacetFields: make(map[string][]json.RawMessage),
		FacetRanges: make(map[string]engine.RangeFacet),
	}

	for _, field := range p.All("facet.field") {
		type entry struct {
			value string
			count uint64
		}
		var entries []entry
		for value, bm := range idx.exact[field] {
			n := matched.AndCardinality(bm)
			if int64(n) < int64(mincount) { //nolint:gosec // counts are bounded by the index size
				continue
			}
			entries = append(entries, entry{value: value, count: n})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].value < entries[j].value
		})
		if limit >= 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		flat := make([]json.RawMessage, 0, 2*len(entries))
		for _, e := range entries {
			flat = append(flat, mustJSON(e.value), mustJSON(e.count))
		}
		fc.FacetFields[field] = flat
	}

	for _, field := range p.All("facet.range") {
		rf, err := idx.rangeFacet(field, p, matched, mincount)
		if err != nil {
			return nil, err
		}
		fc.FacetRanges[field] = rf
	}
	return fc, nil
}

func rangeParam(p engine.Params, field, name string) string {
	if v := p.Get("f." + field + ".facet.range." + name); v != "" {
		return v
	}
	return p.Get("facet.range." + name)
}

// rangeFacet buckets matched values into [start+k*gap, start+(k+1)*gap).
// Like Solr without hardend, the last bucket is widened to a whole gap.
func (idx *index) rangeFacet(field string, p engine.Params, matched *roaring.Bitmap, mincount int) (engine.RangeFacet, error) {
	start, errS := strconv.ParseFloat(rangeParam(p, field, "start"), 64)
	end, errE := strconv.ParseFloat(rangeParam(p, field, "end"), 64)
	gap, errG := strconv.ParseFloat(rangeParam(p, field, "gap"), 64)
	sum := start + end + gap
	if errS != nil || errE != nil || errG != nil || math.IsNaN(sum) || math.IsInf(sum, 0) || gap <= 0 || end <= start {
		return engine.RangeFacet{}, badRequest("invalid range facet on %s", field)
	}

	n := int(math.Ceil((end - start) / gap))
	if n > maxRangeBuckets {
		return engine.RangeFacet{}, badRequest("range facet on %s exceeds %d buckets", field, maxRangeBuckets)
	}
	hardEnd := start + float64(n)*gap
	counts := make([]int64, n)
	var after int64

	it := matched.Iterator()
	for it.HasNext() {
		v, ok := idx.docs[it.Next()].nums[field]
		if !ok || v < start {
			continue
		}
		if v >= hardEnd {
			after++
			continue
		}
		b := min(int((v-start)/gap), n-1)
		counts[b]++
	}

	flat := make([]json.RawMessage, 0, 2*n)
	for k, c := range counts {
		if c < int64(mincount) {
			continue
		}
		lo := start + float64(k)*gap
		flat = append(flat, mustJSON(strconv.FormatFloat(lo, 'f', -1, 64)), mustJSON(c))
	}

	rf := engine.RangeFacet{
		Counts: flat,
		Gap:    mustJSON(gap),
		Start:  mustJSON(start),
		End:    mustJSON(hardEnd),
	}
	switch rangeParam(p, field, "other") {
	case "after", "all":
		rf.After = &after
	}
	return rf, nil
}

// highlight returns an entry per returned document, with marked-up values
// for fields containing a query term.
func (idx *index) highlight(window []uint32, terms []string, p engine.Params) map[string]map[string][]string {
	pre, post := p.Get("hl.simple.pre"), p.Get("hl.simple.post")
	if pre == "" && post == "" {
		pre, post = defaultHLPre, defaultHLPost
	}
	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[t] = struct{}{}
	}
	fields := strings.FieldsFunc(p.Get("hl.fl"), func(r rune) bool { return r == ',' || r == ' ' })

	out := make(map[string]map[string][]string, len(window))
	for _, docID := range window {
		d := idx.docs[docID]
		entry := make(map[string][]string)
		if len(termSet) > 0 {
			for _, f := range fields {
				if hasNum(d, f) {
					continue
				}
				for _, v := range d.strs[f] {
					if marked, ok := markTerms(v, termSet, pre, post); ok {
						entry[f] = append(entry[f], marked)
					}
				}
			}
		}
		out[d.id] = entry
	}
	return out
}

func markTerms(s string, terms map[string]struct{}, pre, post string) (string, bool) {
	var b strings.Builder
	hit := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) {
			b.WriteString(s[i : i+size])
			i += size
			continue
		}
		j := i
		for j < len(s) {
			r2, sz := utf8.DecodeRuneInString(s[j:])
			if !isWordRune(r2) {
				break
			}
			j += sz
		}
		word := s[i:j]
		if _, ok := terms[fold(word)]; ok {
			b.WriteString(pre)
			b.WriteString(word)
			b.WriteString(post)
			hit = true
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String(), hit
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
