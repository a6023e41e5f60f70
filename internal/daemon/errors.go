package daemon

import (
	"errors"
	"fmt"
)

// Configuration errors
var (
	ErrInvalidConfigType = errors.New("invalid config type")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ErrorCollector accumulates errors from a sequence of cleanup steps
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new ErrorCollector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Add records err, prefixed with what, if it is not nil
func (ec *ErrorCollector) Add(what string, err error) {
	if err == nil {
		return
	}
	if what != "" {
		err = fmt.Errorf("%s: %w", what, err)
	}
	ec.errors = append(ec.errors, err)
}

// HasErrors returns true if any errors have been collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// Count returns the number of errors collected
func (ec *ErrorCollector) Count() int {
	return len(ec.errors)
}

// Result returns nil, the single error, or all errors joined. The result
// matches every collected error with errors.Is.
func (ec *ErrorCollector) Result() error {
	switch len(ec.errors) {
	case 0:
		return nil
	case 1:
		return ec.errors[0]
	default:
		return errors.Join(ec.errors...)
	}
}
