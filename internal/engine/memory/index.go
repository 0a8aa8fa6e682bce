package memory

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/text/cases"

	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// index is an immutable snapshot. Doc ids are positions in docs.
type index struct {
	docs     []storedDoc
	all      *roaring.Bitmap
	exact    map[string]map[string]*roaring.Bitmap // field -> raw value -> docs
	postings map[string]map[string]*roaring.Bitmap // field -> folded token -> docs
}

type storedDoc struct {
	src    engine.Document
	id     string
	strs   map[string][]string
	nums   map[string]float64
	tokens map[string][]string
}

func buildIndex(docs []engine.Document) *index {
	idx := &index{
		docs:     make([]storedDoc, 0, len(docs)),
		all:      roaring.New(),
		exact:    make(map[string]map[string]*roaring.Bitmap),
		postings: make(map[string]map[string]*roaring.Bitmap),
	}
	for i, d := range docs {
		docID := uint32(i) //nolint:gosec // catalog sizes stay far below 2^32
		sd := newStoredDoc(d)
		idx.all.Add(docID)
		for field, values := range sd.strs {
			for _, v := range values {
				addPosting(idx.exact, field, v, docID)
			}
		}
		for field, toks := range sd.tokens {
			for _, t := range toks {
				addPosting(idx.postings, field, t, docID)
			}
		}
		idx.docs = append(idx.docs, sd)
	}
	return idx
}

func (idx *index) sources() []engine.Document {
	out := make([]engine.Document, len(idx.docs))
	for i, d := range idx.docs {
		out[i] = d.src
	}
	return out
}

func addPosting(m map[string]map[string]*roaring.Bitmap, field, key string, docID uint32) {
	byKey, ok := m[field]
	if !ok {
		byKey = make(map[string]*roaring.Bitmap)
		m[field] = byKey
	}
	bm, ok := byKey[key]
	if !ok {
		bm = roaring.New()
		byKey[key] = bm
	}
	bm.Add(docID)
}

func newStoredDoc(d engine.Document) storedDoc {
	sd := storedDoc{
		src:    d,
		id:     d.ID(),
		strs:   make(map[string][]string),
		nums:   make(map[string]float64),
		tokens: make(map[string][]string),
	}
	for field, v := range d {
		switch val := v.(type) {
		case string:
			sd.strs[field] = []string{val}
			sd.tokens[field] = tokenize(val)
		case []string:
			sd.strs[field] = val
			for _, s := range val {
				sd.tokens[field] = append(sd.tokens[field], tokenize(s)...)
			}
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					sd.strs[field] = append(sd.strs[field], s)
					sd.tokens[field] = append(sd.tokens[field], tokenize(s)...)
				}
			}
		default:
			if f, ok := toFloat(v); ok {
				sd.nums[field] = f
				sd.strs[field] = []string{strconv.FormatFloat(f, 'f', -1, 64)}
			}
		}
	}
	if _, ok := sd.strs[engine.FieldNameSort]; !ok {
		if names := sd.strs[engine.FieldName]; len(names) > 0 {
			sd.strs[engine.FieldNameSort] = []string{fold(names[0])}
		}
	}
	return sd
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// tokenize folds case and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool { return !isWordRune(r) })
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// project renders a stored document, limited to fl when set.
func (d storedDoc) project(fl fieldList, score float64) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(d.src))
	for field, v := range d.src {
		if !fl.includes(field) {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, badRequest("field %s of %s: %v", field, d.id, err)
		}
		out[field] = b
	}
	if fl.score {
		b, _ := json.Marshal(score)
		out[engine.FieldScore] = b
	}
	return out, nil
}

// fieldList is a parsed fl parameter; nil fields means every stored field.
type fieldList struct {
	fields map[string]bool
	score  bool
}

func parseFieldList(raw string) fieldList {
	var fl fieldList
	wildcard := false
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		switch f {
		case "*":
			wildcard = true
		case engine.FieldScore:
			fl.score = true
		default:
			if fl.fields == nil {
				fl.fields = make(map[string]bool)
			}
			fl.fields[f] = true
		}
	}
	if wildcard {
		fl.fields = nil
	}
	return fl
}

func (fl fieldList) includes(field string) bool {
	return fl.fields == nil || fl.fields[field]
}
