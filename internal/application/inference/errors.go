package inference

import (
	"errors"
	"fmt"
)

// Code classifies a failed prediction
type Code string

const (
	CodeInvalidPayload   Code = "INVALID_PAYLOAD"
	CodeInferenceFailure Code = "INFERENCE_FAILURE"
)

var (
	// ErrInvalidPayload matches any error caused by the request body or its features
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInferenceFailure matches any error raised by the model during prediction
	ErrInferenceFailure = errors.New("inference failure")
)

// Error is a classified prediction error
type Error struct {
	Code    Code
	Message string
	Details interface{}
	cause   error
}

// InvalidPayload returns a client error
func InvalidPayload(message string, cause error) *Error {
	return &Error{Code: CodeInvalidPayload, Message: message, cause: cause}
}

// InferenceFailure returns a server error
func InferenceFailure(message string, cause error) *Error {
	return &Error{Code: CodeInferenceFailure, Message: message, cause: cause}
}

// WithDetails attaches details shown to clients
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes both the class sentinel and the underlying cause to errors.Is
func (e *Error) Unwrap() []error {
	var class error
	switch e.Code {
	case CodeInvalidPayload:
		class = ErrInvalidPayload
	case CodeInferenceFailure:
		class = ErrInferenceFailure
	}

	errs := make([]error, 0, 2)
	if class != nil {
		errs = append(errs, class)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// AsError extracts a classified error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
