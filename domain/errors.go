package domain

import (
	"errors"
	"fmt"
)

type ErrorKind uint8

const (
	// KindInternal covers faults that are neither transport nor service
	// errors. Details stay in the logs.
	KindInternal ErrorKind = iota
	// KindUnreachable means the inference service could not be contacted.
	KindUnreachable
	// KindModelUnavailable means the service does not have the model.
	KindModelUnavailable
	// KindStream means the service answered with an error, possibly after
	// some text was already produced.
	KindStream
	// KindCanceled means the caller went away. Nothing is reported.
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindStream:
		return "stream"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// ServiceError is a classified failure of an inference provider.
type ServiceError struct {
	Kind     ErrorKind
	Provider string
	Endpoint string
	Model    string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s %s (model %s): %v", e.Provider, e.Kind, e.Model, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Diagnostic is the text shown to the user in place of the rest of the answer.
func (e *ServiceError) Diagnostic() string {
	switch e.Kind {
	case KindUnreachable:
		return fmt.Sprintf("Error: Could not connect to the inference service at %s. Make sure %s is running and the '%s' model is downloaded.",
			e.Endpoint, e.Provider, e.Model)
	case KindModelUnavailable:
		return fmt.Sprintf("Error: The model '%s' is not available on %s. Download it before sending a prompt.", e.Model, e.Provider)
	case KindStream:
		return fmt.Sprintf("Error: %s failed while generating the response: %v", e.Provider, e.Err)
	case KindCanceled:
		return ""
	default:
		return "Error: An unexpected internal fault interrupted the response."
	}
}

// AsServiceError returns err as a *ServiceError, wrapping anything that is not
// already classified as KindInternal.
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return &ServiceError{Kind: KindInternal, Err: err}
}
