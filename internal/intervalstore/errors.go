package intervalstore

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a track name with no stored track.
var ErrNotFound = errors.New("track not found")

// NotFoundError names the missing track.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("track %q: %v", e.Name, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ErrorKind classifies the error for exit code mapping.
func (e *NotFoundError) ErrorKind() string { return "not_found" }
