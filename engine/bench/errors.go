package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrCapability reports that the device lacks a feature a mode needs.
	ErrCapability = errors.New("capability unavailable")
	// ErrAllocation reports a failure creating a buffer, texture or pipeline.
	ErrAllocation = errors.New("resource allocation failed")
	// ErrSubmission reports a failure while recording or submitting a frame.
	ErrSubmission = errors.New("frame submission failed")
	// ErrUnknownMode reports a mode value outside the declared set.
	ErrUnknownMode = errors.New("unknown render mode")
)

// CapabilityError names the mode that cannot run and the missing feature.
type CapabilityError struct {
	Mode    Mode
	Feature string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: mode %s requires %s", ErrCapability, e.Mode, e.Feature)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapability
}
