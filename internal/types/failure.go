package types

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failure produced by the resolution or
// orchestration layer.
type FailureKind string

const (
	// FailureCloneFailed indicates the clone operation did not complete.
	FailureCloneFailed FailureKind = "clone_failed"
	// FailureCloneTimeout indicates the clone exceeded its wall-clock bound.
	FailureCloneTimeout FailureKind = "clone_timeout"
	// FailureFormatterLaunchFailed indicates the formatter executable could not be started.
	FailureFormatterLaunchFailed FailureKind = "formatter_launch_failed"
	// FailureFormatterFailed indicates the formatter exited with a non-zero status.
	FailureFormatterFailed FailureKind = "formatter_failed"
	// FailureFormatterTimeout indicates the formatter exceeded its wall-clock bound.
	FailureFormatterTimeout FailureKind = "formatter_timeout"
	// FailureInvalidInput indicates a request was rejected before any I/O.
	FailureInvalidInput FailureKind = "invalid_input"
)

// Failure is a classified error carried across the service boundaries. The
// Kind stays machine readable while Message holds the human-readable cause.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

// Error renders the failure as a single human-readable string.
func (failure *Failure) Error() string {
	return failure.Message
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (failure *Failure) Unwrap() error {
	return failure.Cause
}

// NewFailure constructs a Failure with a formatted message.
func NewFailure(kind FailureKind, cause error, messageFormat string, arguments ...any) *Failure {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(messageFormat, arguments...),
		Cause:   cause,
	}
}

// FailureKindOf returns the kind carried by err when err is a Failure and
// reports whether a classification was present.
func FailureKindOf(err error) (FailureKind, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind, true
	}
	return "", false
}
