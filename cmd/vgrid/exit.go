package main

import (
	"errors"

	"vgrid/internal/interval"
)

const (
	exitFailure    = 1
	exitValidation = 2
)

// exitCode maps classified errors onto process exit codes.
func exitCode(err error) int {
	var classifier interval.ErrorClassifier
	if errors.As(err, &classifier) && classifier.ErrorKind() == interval.KindValidation {
		return exitValidation
	}
	return exitFailure
}
