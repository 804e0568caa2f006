// Package errors provides the sentinel error definitions for the cache
// engine, plus category checks and wrapping utilities.
//
// Failures in this system are structural (misconfiguration or pre-existing
// state on disk), never transient, so there is no retry classification:
// every error propagates to the caller untouched.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Reporter configuration errors. Raised when table assembly is
	// requested for a kind whose reporter set is empty: an empty result
	// would be ambiguous between "no reporters defined" and "no eligible
	// steps in this window", so assembly fails loudly instead.
	ErrNoModelReporters = errors.New("no model reporters configured")
	ErrNoAgentReporters = errors.New("no agent reporters configured")

	// Persistence errors.
	ErrPathCollision = errors.New("output path already exists")

	// Replay errors.
	ErrBucketMissing  = errors.New("cache bucket not found")
	ErrStepNotSampled = errors.New("step not selected by sample rate")
	ErrStepNotCached  = errors.New("no cached observations for step")

	// Validation errors.
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingField  = errors.New("missing required field")

	// Session state errors.
	ErrSessionClosed = errors.New("session is closed")
	ErrRunFinished   = errors.New("run already finished")
	ErrWrongMode     = errors.New("operation not valid in this mode")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsNoReporters returns true if err indicates an empty reporter set.
func IsNoReporters(err error) bool {
	return errors.Is(err, ErrNoModelReporters) ||
		errors.Is(err, ErrNoAgentReporters)
}

// IsCollision returns true if err is a path collision. Collisions are
// always fatal: the only recovery is clearing or renaming the output
// directory and starting a fresh run from step 0.
func IsCollision(err error) bool {
	return errors.Is(err, ErrPathCollision)
}

// IsValidation returns true if err is a configuration validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField)
}

// IsReplayMiss returns true if err indicates the requested step has no
// cached data (missing bucket file or uncached step within a bucket).
func IsReplayMiss(err error) bool {
	return errors.Is(err, ErrBucketMissing) ||
		errors.Is(err, ErrStepNotCached)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewCollision creates a path collision error naming the offending path.
func NewCollision(path string) error {
	return fmt.Errorf("%q: %w", path, ErrPathCollision)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewInvalidValue creates an invalid value error.
func NewInvalidValue(field string, value interface{}, reason string) error {
	return fmt.Errorf("invalid %s '%v': %s: %w", field, value, reason, ErrInvalidConfig)
}
