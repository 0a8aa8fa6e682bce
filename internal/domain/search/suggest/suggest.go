package suggest

// Autocomplete tuning.
const (
	// MinPrefixLength is the shortest prefix, in runes, that reaches the engine.
	MinPrefixLength = 2
	DefaultRows     = 8
)

// Suggestion is a single autocomplete entry.
type Suggestion struct {
	ID       string
	Name     string
	Category string
	Price    float64
}

// Result is an autocomplete outcome. A non-empty Diagnostic marks a degraded
// response whose suggestion list is empty.
type Result struct {
	Suggestions []Suggestion
	Diagnostic  string
}

// Empty returns a result with no suggestions.
func Empty() Result {
	return Result{Suggestions: []Suggestion{}}
}

// Degraded returns an empty result carrying a diagnostic.
func Degraded(diagnostic string) Result {
	return Result{Suggestions: []Suggestion{}, Diagnostic: diagnostic}
}

// IsDegraded reports whether the engine call failed.
func (r Result) IsDegraded() bool { return r.Diagnostic != "" }
