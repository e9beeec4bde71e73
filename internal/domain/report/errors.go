package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrAuthRequired   = errors.New("you must be signed in to submit a report")
	ErrReportNotFound = errors.New("report not found")
)

// ValidationError collects every failed field of a submission
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records the first message for a field
func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// BackendError is a failure reported by the database or object storage.
// Message is the backend's own message and is shown to clients unchanged.
type BackendError struct {
	Op      string
	Message string
	Err     error
}

func (e *BackendError) Error() string { return e.Message }

func (e *BackendError) Unwrap() error { return e.Err }

func newBackendError(op string, err error) *BackendError {
	msg := err.Error()
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		msg = pqErr.Message
	}
	return &BackendError{Op: op, Message: msg, Err: err}
}

// DecodeError is returned when a stored row cannot be turned into a Report
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Field, e.Reason)
}
