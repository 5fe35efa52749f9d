package core

import (
	"github.com/cockroachdb/errors"
)

// Error categories. Errors returned by carbon are marked with exactly one of these and
// can be classified with errors.Is.
var (
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrSelectionFailure      = errors.New("no suitable physical device")
	ErrQueueResolution       = errors.New("queue family resolution failed")
	ErrCreationFailure       = errors.New("object creation failed")
	ErrStateViolation        = errors.New("invalid object state")
)

// CreationFailed wraps a driver error from a create or allocate call.
func CreationFailed(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrCreationFailure)
}

// StateViolation reports misuse of an object's lifecycle contract.
func StateViolation(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrStateViolation)
}

func capabilityUnavailable(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCapabilityUnavailable)
}
