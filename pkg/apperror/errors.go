// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels, and additional details. It also
// includes utilities for converting to and from gRPC status errors, so a
// future RPC facade in front of the planner gets error mapping for free.
package apperror

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Input validation
	CodeInputValidation ErrorCode = "INPUT_VALIDATION"

	// Geo provider failures
	CodeGeocoding         ErrorCode = "GEOCODING"
	CodeRouting           ErrorCode = "ROUTING"
	CodeTransientProvider ErrorCode = "TRANSIENT_PROVIDER"

	// Regulatory
	CodeHOSViolation ErrorCode = "HOS_VIOLATION"

	// Engine-bug signals
	CodeInvalidSequence ErrorCode = "INVALID_SEQUENCE"

	// General
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a severe error that might require immediate human intervention.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message, an
// optional field, additional details, an underlying cause, and a severity.
type Error struct {
	Code     ErrorCode
	Message  string
	Field    string
	Details  map[string]any
	Cause    error
	Severity Severity
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, allowing error-chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GRPCStatus converts the application error into a gRPC status.Status.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Message)
}

func (e *Error) grpcCode() codes.Code {
	switch e.Code {
	case CodeInputValidation, CodeInvalidArgument:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeTransientProvider:
		return codes.Unavailable
	case CodeHOSViolation:
		return codes.FailedPrecondition
	case CodeInvalidSequence:
		return codes.Internal
	default:
		return codes.Internal
	}
}

// New creates a new application error with SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]any), Severity: SeverityError}
}

// NewWithField creates a new application error tied to a specific field.
func NewWithField(code ErrorCode, message, field string) *Error {
	e := New(code, message)
	e.Field = field
	return e
}

// Wrap creates a new application error wrapping an existing cause.
func Wrap(cause error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithDetails adds a key-value pair to the error's details map.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithSeverity sets the severity level of the error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks if err is an *Error with a matching ErrorCode.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error, defaulting to CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ToGRPC converts any error into a gRPC status error.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.GRPCStatus().Err()
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

// Retryable reports whether err's code is the sort the external task
// runner should retry with bounded backoff: transient provider failures
// and unclassified internal errors, never regulatory or structural errors.
func Retryable(err error) bool {
	switch Code(err) {
	case CodeTransientProvider, CodeInternal:
		return true
	default:
		return false
	}
}

// ValidationErrors aggregates multiple compliance findings, split by
// Severity into Errors and Warnings. Whether a finding is a regulatory
// violation or a structural inconsistency is carried by its Code
// (CodeHOSViolation or CodeInvalidSequence), not by this split.
type ValidationErrors struct {
	Errors   []*Error
	Warnings []*Error
}

// NewValidationErrors returns an empty collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]*Error, 0), Warnings: make([]*Error, 0)}
}

// Add appends err to Errors or Warnings based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// HasErrors reports whether any non-warning finding was collected.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// IsValid reports whether no errors (warnings notwithstanding) were collected.
func (v *ValidationErrors) IsValid() bool {
	return !v.HasErrors()
}

// Merge folds other's findings into v.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// ErrorMessages returns the string form of every collected error.
func (v *ValidationErrors) ErrorMessages() []string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}
