package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field name, or a path such as "nodes[2].data.weight"
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Key, e.Reason, e.Value)
}

// Invalid builds a ValidationError.
func Invalid(key, reason string, value any) *ValidationError {
	return &ValidationError{Key: key, Reason: reason, Value: value}
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Aggregate returns nil for no errors, the error itself for one,
// and an *AggregateError otherwise.
func Aggregate(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &AggregateError{Errors: errs}
}

// ValidationErrors flattens err into its individual *ValidationError values.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		var out []*ValidationError
		for _, e := range aggr.Errors {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}

// IsValidation reports whether err carries at least one validation failure.
func IsValidation(err error) bool {
	return len(ValidationErrors(err)) > 0
}
