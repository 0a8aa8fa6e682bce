package filter

import (
	"fmt"
	"strings"
)

// Field is a facetable product attribute that can be filtered on.
type Field string

// Filterable fields.
const (
	Category Field = "category"
	WoodType Field = "woodType"
	Brand    Field = "brand"
	Material Field = "material"
	Grade    Field = "grade"
	Finish   Field = "finish"
	Type     Field = "type"
)

// Fields lists every filterable field in canonical order.
var Fields = []Field{Category, WoodType, Brand, Material, Grade, Finish, Type}

// IsValid reports whether f is one of the filterable fields.
func (f Field) IsValid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// ParseField converts a raw name into a Field.
func ParseField(s string) (Field, bool) {
	f := Field(s)
	return f, f.IsValid()
}

// Selection maps each filter field to its selected values.
// Values within a field are OR-combined, fields are AND-combined.
type Selection struct {
	values map[Field][]string
}

// NewSelection creates an empty Selection.
func NewSelection() Selection {
	return Selection{values: make(map[Field][]string)}
}

// Add appends values to a field. Blank values and duplicates are dropped,
// insertion order is kept.
func (s *Selection) Add(f Field, values ...string) error {
	if !f.IsValid() {
		return fmt.Errorf("unknown filter field %q", f)
	}
	if s.values == nil {
		s.values = make(map[Field][]string)
	}
	existing := s.values[f]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || contains(existing, v) {
			continue
		}
		existing = append(existing, v)
	}
	if len(existing) > 0 {
		s.values[f] = existing
	}
	return nil
}

// Values returns the selected values for a field.
func (s Selection) Values(f Field) []string { return s.values[f] }

// Active returns the populated fields in canonical order.
func (s Selection) Active() []Field {
	var out []Field
	for _, f := range Fields {
		if len(s.values[f]) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// IsEmpty reports whether no field has a selected value.
func (s Selection) IsEmpty() bool { return len(s.Active()) == 0 }

// Map returns a copy of the populated fields and their values.
func (s Selection) Map() map[Field][]string {
	out := make(map[Field][]string, len(s.values))
	for _, f := range s.Active() {
		out[f] = append([]string(nil), s.values[f]...)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

// PriceRange is an inclusive price interval; a nil bound is open on that side.
type PriceRange struct {
	min *float64
	max *float64
}

// NewPriceRange validates and creates a PriceRange.
// At least one bound is required. Reversed bounds are swapped.
func NewPriceRange(lo, hi *float64) (PriceRange, error) {
	if lo == nil && hi == nil {
		return PriceRange{}, fmt.Errorf("at least one price bound is required")
	}
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}
	return PriceRange{min: lo, max: hi}, nil
}

// Min returns the lower inclusive bound.
func (r PriceRange) Min() *float64 { return r.min }

// Max returns the upper inclusive bound.
func (r PriceRange) Max() *float64 { return r.max }
