package paapi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOperation is wrapped by the ValidationError returned for an
// operation tag that is not one of the supported operations.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrUnknownMarketplace is returned when a marketplace host is not in the
// supported marketplace table.
var ErrUnknownMarketplace = errors.New("unknown marketplace")

// ErrorKind classifies why a single invocation failed.
type ErrorKind string

const (
	// KindNone means no error.
	KindNone ErrorKind = ""
	// KindValidation is a missing or malformed parameter. Never retried.
	KindValidation ErrorKind = "validation"
	// KindAPI is an error list returned by PAAPI itself.
	KindAPI ErrorKind = "api"
	// KindTransport is a failure of the client collaborator (signing,
	// network, undecodable response).
	KindTransport ErrorKind = "transport"
)

// ValidationError reports a parameter that is missing or out of range.
// The Message is safe to surface to the caller verbatim.
type ValidationError struct {
	// Field is the parameter name, if the error concerns a single field.
	Field string

	// Message is the client-facing error message.
	Message string

	// Err is an optional underlying sentinel (e.g. ErrUnknownOperation).
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// APIError is one entry of the Errors list returned by PAAPI.
type APIError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// String renders the error as "Code: <code>, Message: <message>".
func (e APIError) String() string {
	return fmt.Sprintf("Code: %s, Message: %s", e.Code, e.Message)
}

// APIErrors is a non-empty error list returned by PAAPI.
type APIErrors []APIError

// Error joins every entry with "; ", preserving order.
func (e APIErrors) Error() string {
	parts := make([]string, len(e))
	for i, apiErr := range e {
		parts[i] = apiErr.String()
	}
	return strings.Join(parts, "; ")
}

// TransportError wraps a failure raised by the PAAPI client collaborator.
type TransportError struct {
	Operation Operation
	Err       error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if target := e.Operation.Target(); target != "" {
		return fmt.Sprintf("paapi %s: %v", target, e.Err)
	}
	return fmt.Sprintf("paapi: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Errors that are neither validation nor API errors
// are treated as transport failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var apiErrs APIErrors
	if errors.As(err, &apiErrs) {
		return KindAPI
	}
	return KindTransport
}
