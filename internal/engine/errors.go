package engine

import "fmt"

// Op constants name engine operations for error context.
const (
	OpSelect = "select"
	OpPing   = "ping"
	OpUpdate = "update"
)

// Error wraps an engine failure with the operation and, when the engine
// answered, its HTTP status and message.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": engine error"
	}
}

func (e *Error) Unwrap() error { return e.Err }
