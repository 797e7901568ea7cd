package callflow

import (
	"errors"
	"fmt"
)

// Kind separates failures the caller should see as a bad request from
// everything else.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// ResponseParseError means the model output was not the JSON object the
// prompt asked for, even after cleaning.
type ResponseParseError struct {
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("Failed to parse response as JSON: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// Failure is the only error type returned by the orchestrators. Message is
// safe to show to the caller; Err keeps the full cause for logging.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

const (
	msgCallScriptFailed = "An error occurred while processing the request"
	msgEmailFailed      = "An error occurred while processing the email request"
)

func newFailure(err error, generic string) *Failure {
	var pe *ResponseParseError
	if errors.As(err, &pe) {
		return &Failure{Kind: KindValidation, Message: pe.Error(), Err: err}
	}
	return &Failure{Kind: KindProcessing, Message: generic, Err: err}
}

// KindOf reports the failure kind of err, or 0 when err is not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
