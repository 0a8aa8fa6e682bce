package memory

import (
	"math"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// clause is a parsed filter clause: *:*, field:("a" OR "b"), field:"a",
// field:a or field:[lo TO hi].
type clause struct {
	matchAll bool
	field    string
	values   []string
	rng      *numRange
}

type numRange struct {
	lo, hi *float64
}

func (r numRange) contains(v float64) bool {
	return (r.lo == nil || v >= *r.lo) && (r.hi == nil || v <= *r.hi)
}

func parseClause(s string) (clause, error) {
	s = strings.TrimSpace(s)
	if s == "*:*" {
		return clause{matchAll: true}, nil
	}
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return clause{}, badRequest("unsupported clause %q", s)
	}
	c := clause{field: s[:colon]}
	rest := strings.TrimSpace(s[colon+1:])

	switch {
	case rest == "":
		return clause{}, badRequest("empty value in clause %q", s)
	case rest[0] == '(':
		if !strings.HasSuffix(rest, ")") {
			return clause{}, badRequest("unbalanced parentheses in %q", s)
		}
		values, err := parseDisjunction(rest[1 : len(rest)-1])
		if err != nil {
			return clause{}, err
		}
		c.values = values
	case rest[0] == '[':
		r, err := parseRange(rest)
		if err != nil {
			return clause{}, err
		}
		c.rng = &r
	default:
		value, tail, err := readTerm(rest)
		if err != nil {
			return clause{}, err
		}
		if strings.TrimSpace(tail) != "" {
			return clause{}, badRequest("unexpected %q in clause %q", tail, s)
		}
		c.values = []string{value}
	}
	return c, nil
}

// parseDisjunction reads `"a" OR "b" OR c`.
func parseDisjunction(s string) ([]string, error) {
	var values []string
	rest := strings.TrimSpace(s)
	for rest != "" {
		value, tail, err := readTerm(rest)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		rest = strings.TrimSpace(tail)
		if rest == "" {
			break
		}
		if !strings.HasPrefix(rest, "OR ") {
			return nil, badRequest("expected OR before %q", rest)
		}
		rest = strings.TrimSpace(rest[len("OR "):])
	}
	if len(values) == 0 {
		return nil, badRequest("empty disjunction")
	}
	return values, nil
}

// readTerm reads a quoted phrase or a bare escaped term and returns the remainder.
func readTerm(s string) (value, rest string, err error) {
	var b strings.Builder
	if s[0] == '"' {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				if i+1 < len(s) {
					i++
					b.WriteByte(s[i])
				}
			case '"':
				return b.String(), s[i+1:], nil
			default:
				b.WriteByte(s[i])
			}
		}
		return "", "", badRequest("unterminated phrase %q", s)
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case ' ':
			return b.String(), s[i:], nil
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), "", nil
}

func parseRange(s string) (numRange, error) {
	if !strings.HasSuffix(s, "]") {
		return numRange{}, badRequest("unsupported range %q", s)
	}
	parts := strings.Split(s[1:len(s)-1], " TO ")
	if len(parts) != 2 {
		return numRange{}, badRequest("malformed range %q", s)
	}
	lo, err := parseBound(parts[0])
	if err != nil {
		return numRange{}, err
	}
	hi, err := parseBound(parts[1])
	if err != nil {
		return numRange{}, err
	}
	return numRange{lo: lo, hi: hi}, nil
}

func parseBound(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "*" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, badRequest("invalid range bound %q", s)
	}
	return &f, nil
}

func (idx *index) eval(c clause) *roaring.Bitmap {
	switch {
	case c.matchAll:
		return idx.all.Clone()
	case c.rng != nil:
		out := roaring.New()
		for i, d := range idx.docs {
			if v, ok := d.nums[c.field]; ok && c.rng.contains(v) {
				out.Add(uint32(i)) //nolint:gosec // bounded by buildIndex
			}
		}
		return out
	default:
		out := roaring.New()
		byValue := idx.exact[c.field]
		for _, v := range c.values {
			if bm, ok := byValue[v]; ok {
				out.Or(bm)
			}
		}
		return out
	}
}

type weightedField struct {
	field  string
	weight float64
}

// parseWeighted reads "name^5 description^2 sku".
func parseWeighted(s string) []weightedField {
	var out []weightedField
	for _, part := range strings.Fields(s) {
		field, boost, found := strings.Cut(part, "^")
		w := 1.0
		if found {
			if f, err := strconv.ParseFloat(boost, 64); err == nil {
				w = f
			}
		}
		out = append(out, weightedField{field: field, weight: w})
	}
	return out
}

// textQuery is a parsed edismax request.
type textQuery struct {
	terms    []string
	qf       []weightedField
	pf       []weightedField
	required int
}

func newTextQuery(q, qf, pf, mm string) textQuery {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range tokenize(unescape(q)) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	fields := parseWeighted(qf)
	if len(fields) == 0 {
		fields = []weightedField{{field: engine.FieldName, weight: 1}}
	}
	return textQuery{
		terms:    terms,
		qf:       fields,
		pf:       parseWeighted(pf),
		required: minimumMatch(mm, len(terms)),
	}
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// minimumMatch resolves an mm value ("75%", "-25%", "2", "-1") for n optional clauses.
// At least one clause must always match.
func minimumMatch(mm string, n int) int {
	if n == 0 {
		return 0
	}
	mm = strings.TrimSpace(mm)
	required := n
	if mm != "" {
		if pct, ok := strings.CutSuffix(mm, "%"); ok {
			if p, err := strconv.ParseFloat(pct, 64); err == nil {
				if p < 0 {
					required = n - int(math.Floor(float64(n)*-p/100))
				} else {
					required = int(math.Floor(float64(n) * p / 100))
				}
			}
		} else if v, err := strconv.Atoi(mm); err == nil {
			if v < 0 {
				required = n + v
			} else {
				required = v
			}
		}
	}
	return max(1, min(required, n))
}

// matchText returns the candidates matching at least tq.required terms and their scores.
func (idx *index) matchText(tq textQuery, candidates *roaring.Bitmap) (*roaring.Bitmap, map[uint32]float64) {
	hits := make(map[uint32]int)
	scores := make(map[uint32]float64)

	for _, term := range tq.terms {
		termDocs := roaring.New()
		for _, wf := range tq.qf {
			bm := idx.termDocs(wf.field, term)
			if bm == nil {
				continue
			}
			bm = roaring.And(bm, candidates)
			it := bm.Iterator()
			for it.HasNext() {
				scores[it.Next()] += wf.weight
			}
			termDocs.Or(bm)
		}
		it := termDocs.Iterator()
		for it.HasNext() {
			hits[it.Next()]++
		}
	}

	matched := roaring.New()
	for docID, n := range hits {
		if n >= tq.required {
			matched.Add(docID)
		}
	}

	if len(tq.terms) > 1 {
		it := matched.Iterator()
		for it.HasNext() {
			docID := it.Next()
			for _, wf := range tq.pf {
				if containsSequence(idx.docs[docID].tokens[wf.field], tq.terms) {
					scores[docID] += wf.weight
				}
			}
		}
	}
	return matched, scores
}

// termDocs returns the postings for term in field. The autocomplete field
// behaves like an edge n-gram of name: any name token starting with term matches.
func (idx *index) termDocs(field, term string) *roaring.Bitmap {
	if field != engine.FieldNameAutocomplete {
		return idx.postings[field][term]
	}
	union := roaring.New()
	for tok, bm := range idx.postings[engine.FieldName] {
		if strings.HasPrefix(tok, term) {
			union.Or(bm)
		}
	}
	return union
}

func containsSequence(tokens, seq []string) bool {
	if len(seq) == 0 || len(tokens) < len(seq) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j := range seq {
			if tokens[i+j] != seq[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
