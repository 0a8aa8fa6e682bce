package sorting

// Sort is the requested result ordering.
type Sort string

// Sort constants.
const (
	// Relevance orders by engine score, best first.
	Relevance Sort = "relevance"
	PriceAsc  Sort = "price_asc"
	PriceDesc Sort = "price_desc"
	NameAsc   Sort = "name_asc"
	NameDesc  Sort = "name_desc"
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	switch s {
	case Relevance, PriceAsc, PriceDesc, NameAsc, NameDesc:
		return true
	}
	return false
}

// Parse maps a raw value to a Sort, falling back to Relevance.
func Parse(raw string) Sort {
	s := Sort(raw)
	if !s.IsValid() {
		return Relevance
	}
	return s
}
