package engineconfig

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation errors, matching the
// teacher's pattern so callers get every problem in one pass instead of
// one error at a time.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "engineconfig: validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("engineconfig: validation failed: %s", e.Errors[0])
	}
	return fmt.Sprintf("engineconfig: validation failed with %d errors:\n  - %s",
		len(e.Errors), strings.Join(e.Errors, "\n  - "))
}

// Addf appends a formatted error message.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Add appends an error message.
func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// HasErrors reports whether any errors were collected.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns e as an error if it holds any errors, otherwise nil.
func (e *ValidationError) ToError() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
