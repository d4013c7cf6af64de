package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigNotFound is returned when no critical-line configuration is stored for a key.
var ErrConfigNotFound = errors.New("critical-line config not found")

// ErrDocumentClosed is returned for events delivered after end of stream.
var ErrDocumentClosed = errors.New("document already closed")

// ConfigParseError reports malformed critical-line text.
type ConfigParseError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("critical-line config: %s at offset %d in %q", e.Reason, e.Pos, e.Input)
}

// RegionOverlapError reports two regions whose boundaries cannot nest.
type RegionOverlapError struct {
	First  string
	Second string
	Reason string
}

func (e *RegionOverlapError) Error() string {
	return fmt.Sprintf("region overlap between %s and %s: %s", e.First, e.Second, e.Reason)
}

// ProtocolError reports an event sequence the producer should never emit.
type ProtocolError struct {
	Event  string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error on %s: %s: %v", e.Event, e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error on %s: %s", e.Event, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// AggregateError collects several independent errors, e.g. one per rule.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errors }
