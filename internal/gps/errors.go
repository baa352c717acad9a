package gps

import (
	"errors"
	"fmt"
)

// Row-level error kinds. A row failing with any of these is dropped by the
// log reader; the rest of the file is still processed.
var (
	ErrMalformedCoordinate = errors.New("malformed coordinate")
	ErrMalformedTime       = errors.New("malformed time")
	ErrMalformedSpeed      = errors.New("malformed speed")
	ErrMalformedHeading    = errors.New("malformed heading")
	ErrMalformedSentence   = errors.New("malformed sentence")
	ErrShortRow            = errors.New("short row")
)

// RowError describes why a single log row was rejected.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Kind returns the sentinel the row error wraps, or nil for unknown causes.
func Kind(err error) error {
	for _, k := range []error{
		ErrMalformedCoordinate,
		ErrMalformedTime,
		ErrMalformedSpeed,
		ErrMalformedHeading,
		ErrMalformedSentence,
		ErrShortRow,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
