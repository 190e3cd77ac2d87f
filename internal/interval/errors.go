package interval

import (
	"fmt"
	"strings"
)

// Error kinds reported by ErrorKind. Callers classify failures with these
// instead of matching on message text.
const (
	KindValidation = "validation"
	KindPayload    = "payload"
)

// ErrorClassifier is implemented by errors that declare their classification.
type ErrorClassifier interface {
	ErrorKind() string
}

// ValidationError reports malformed input such as an axis with lo > hi.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if strings.TrimSpace(e.Field) == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// ErrorKind implements ErrorClassifier.
func (e *ValidationError) ErrorKind() string { return KindValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PayloadError reports a merge or transform that could not combine the
// payloads of an interval pair. Right is the zero Interval for single-interval
// operations such as Map.
type PayloadError struct {
	Op    string
	Left  Interval
	Right Interval
	Err   error
}

func (e *PayloadError) Error() string {
	var b strings.Builder
	b.WriteString("payload error")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": left=")
	b.WriteString(e.Left.Bounds.String())
	if !e.Right.IsZero() {
		b.WriteString(" right=")
		b.WriteString(e.Right.Bounds.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PayloadError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *PayloadError) ErrorKind() string { return KindPayload }
