package services

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external service error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrCancelled marks a run stopped on request. It is an outcome, not a
// failure class, and is never wrapped with stage context.
var ErrCancelled = errors.New("cancelled")

// Kind is the failure class reported to users and logs.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindBackend       Kind = "backend"
	KindParse         Kind = "parse"
	KindTimeout       Kind = "timeout"
	KindNotFound      Kind = "not_found"
	KindCancelled     Kind = "cancelled"
	KindUnknown       Kind = "unknown"
)

// Error carries the failing stage and operation alongside a class marker.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Err != nil {
		return e.Marker.Error() + ": " + detail + ": " + e.Err.Error()
	}
	return e.Marker.Error() + ": " + detail
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// ErrorDetails summarizes a classified error.
type ErrorDetails struct {
	Kind    Kind
	Stage   string
	Message string
}

// Details extracts the class, failing stage, and human message from err.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: Classify(err)}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		details.Stage = svcErr.Stage
		details.Message = svcErr.Message
	}
	if details.Message == "" {
		details.Message = err.Error()
	}
	return details
}

// Classify maps err onto the failure taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindParse
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExternalTool), errors.Is(err, ErrTransient):
		return KindBackend
	default:
		return KindUnknown
	}
}

var userMessages = map[Kind]string{
	KindConfiguration: "Setup needed: a required service key or setting is missing.",
	KindBackend:       "The content service could not complete the request. Please try again.",
	KindParse:         "The content service returned something unexpected. Please try again.",
	KindTimeout:       "The content service took too long to respond. Please try again.",
	KindNotFound:      "The requested item could not be found.",
	KindCancelled:     "Generation cancelled.",
	KindUnknown:       "Something went wrong. Please try again.",
}

// UserMessage returns the short catalog message for err's class.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return userMessages[Classify(err)]
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
