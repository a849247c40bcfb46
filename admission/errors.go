package admission

import "fmt"

// ValidationError reports input rejected before any state was changed.
type ValidationError struct {
	Field string

	// Index is the position of the offending counter, or -1 if the error is
	// not about a single counter.
	Index  int
	Value  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s[%d] = %d: %s",
			e.Field, e.Index, e.Value, e.Reason)
	}

	return fmt.Sprintf("invalid %s = %d: %s", e.Field, e.Value, e.Reason)
}
