package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrPrecondition       = errors.New("precondition failed")
	ErrUpstreamGeneration = errors.New("upstream generation failed")
	ErrJobTerminal        = errors.New("job already finished")
	ErrCancelled          = errors.New("job cancelled")
	ErrInterrupted        = errors.New("job interrupted")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned synchronously when a request is malformed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PreconditionError fails a job whose required context is missing.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// UpstreamGenerationError wraps provider failures and unusable responses.
type UpstreamGenerationError struct {
	Stage string
	Err   error
}

func NewUpstreamError(stage string, err error) *UpstreamGenerationError {
	return &UpstreamGenerationError{Stage: stage, Err: err}
}

func (e *UpstreamGenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s generation failed", e.Stage)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *UpstreamGenerationError) Unwrap() []error {
	return []error{ErrUpstreamGeneration, e.Err}
}

// GenericFailureMessage is stored for failures that carry no public detail.
const GenericFailureMessage = "campaign generation failed"

// publicReason is implemented by errors that can describe themselves to API
// clients without leaking response bodies or credentials.
type publicReason interface {
	PublicReason() string
}

// PublicMessage returns the text recorded on a failed job. Wrapped detail
// such as provider bodies or storage errors never appears in it.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrCancelled):
		return ErrCancelled.Error()
	case errors.Is(err, ErrInterrupted):
		return ErrInterrupted.Error()
	}
	var pre *PreconditionError
	if errors.As(err, &pre) {
		return pre.Message
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var up *UpstreamGenerationError
	if errors.As(err, &up) {
		msg := up.Stage + " generation failed"
		var reason publicReason
		if errors.As(up.Err, &reason) {
			if r := reason.PublicReason(); r != "" {
				msg += ": " + r
			}
		}
		return msg
	}
	return GenericFailureMessage
}
