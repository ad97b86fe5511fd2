package dataset

import (
	"fmt"
	"strings"
)

// SchemaError indicates a requested column is not part of the loaded table.
type SchemaError struct {
	Column string
	Known  []string
}

func (e *SchemaError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown column %q", e.Column)
	}
	return fmt.Sprintf("unknown column %q (known: %s)", e.Column, strings.Join(e.Known, ", "))
}

// ConfigurationError indicates an invalid parameter such as k <= 0 or an empty column set.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// InsufficientDataError indicates fewer usable rows than an operation needs.
type InsufficientDataError struct {
	What string
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	what := e.What
	if what == "" {
		what = "operation"
	}
	return fmt.Sprintf("insufficient data for %s: need at least %d usable rows, have %d", what, e.Need, e.Have)
}

// LoadError reports a malformed input record. Line is 1-based and counts the header.
type LoadError struct {
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }
