package dataset

import (
	"fmt"
	"strings"
)

// DataLoadError is returned when a source cannot become a Handle.
type DataLoadError struct {
	Source string // file path or "<reader>"
	Reason string
	Err    error // underlying cause, may be nil
}

func (e *DataLoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Cause returns the underlying error for github.com/pkg/errors.
func (e *DataLoadError) Cause() error { return e.Err }

func (e *DataLoadError) Unwrap() error { return e.Err }

// UnknownColumnError is returned by column accessors for a name the dataset
// does not have.
type UnknownColumnError struct {
	Column    string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q (have %s)", e.Column, strings.Join(e.Available, ", "))
}
