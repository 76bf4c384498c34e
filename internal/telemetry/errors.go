package telemetry

import (
	"errors"
	"fmt"
)

// ErrFormat is wrapped by every FormatError so callers can test with errors.Is.
var ErrFormat = errors.New("malformed telemetry feed")

// FormatError reports a feed that cannot be replayed. Row is 1-based and zero
// when the problem is in the header.
type FormatError struct {
	Column string
	Row    int
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("telemetry feed: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("telemetry feed: row %d column %q value %q: %s", e.Row, e.Column, e.Value, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}
