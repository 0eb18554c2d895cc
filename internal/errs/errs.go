// Package errs carries the pipeline's failure taxonomy. A stage error is
// either permanent (corrupt file, empty content; never retried), an invalid
// transition (a task that would skip a stage; logged and dropped), or
// transient (everything else; retried with backoff).
package errs

import (
	"errors"
	"fmt"
)

// ErrPermanent marks an unrecoverable failure; do not retry.
var ErrPermanent = errors.New("permanent failure")

// ErrInvalidTransition marks a task whose target stage is ahead of the
// upload's current status. This is a defect signal, not a user-visible
// processing failure.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// Permanentf builds a permanent failure with a human-readable message.
func Permanentf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrPermanent)...)
}

func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
