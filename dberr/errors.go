// Package dberr holds the error kinds shared by the compilers, the placeholder
// rewriter and the client. Callers test for a kind with errors.Is.
package dberr

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSpec reports a malformed condition, order, join, select or limit shape.
	ErrInvalidSpec = errors.New("invalid spec")
	// ErrUnknownOperator reports an operator token that cannot be emitted.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrUnknownParameter reports a bind against a name the statement never registered.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrPositionMismatch reports positional binding with the wrong number or index of values.
	ErrPositionMismatch = errors.New("position mismatch")
	// ErrEscapeFailure reports that a string literal could not be escaped.
	ErrEscapeFailure = errors.New("escape failure")
	// ErrEngineFailure is matched by every EngineError.
	ErrEngineFailure = errors.New("engine failure")
	// ErrUnsupported is matched by every UnsupportedFeatureError.
	ErrUnsupported = errors.New("unsupported feature")

	// ErrInvalidDirection reports an ORDER BY direction token that is neither ASC nor DESC.
	ErrInvalidDirection error = &specKind{msg: "invalid order direction"}
	// ErrInvalidJoinOperator reports an unknown join kind token.
	ErrInvalidJoinOperator error = &specKind{msg: "invalid join operator"}
)

// specKind is a refinement of ErrInvalidSpec.
type specKind struct {
	msg string
}

func (e *specKind) Error() string {
	return e.msg
}

func (e *specKind) Is(target error) bool {
	return target == ErrInvalidSpec
}

// Spec wraps kind (normally ErrInvalidSpec or one of its refinements) with a formatted message.
func Spec(kind error, format string, args ...any) error {
	return errors.Wrapf(kind, format, args...)
}

// EngineError is an opaque failure reported by the driver layer.
// Code and Message keep what the driver reported; the original error is the cause.
type EngineError struct {
	Op      string
	Query   string
	Code    string
	Message string
	cause   error
}

// NewEngineError wraps cause. Code and message are taken from the caller since
// only the client knows which driver produced the error.
func NewEngineError(op, query, code, message string, cause error) *EngineError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &EngineError{Op: op, Query: query, Code: code, Message: message, cause: cause}
}

func (e *EngineError) Error() string {
	header := "Error"
	if e.Op != "" {
		header = e.Op + " error"
	}
	code := ""
	if e.Code != "" {
		code = fmt.Sprintf(" (code %s)", e.Code)
	}
	query := ""
	if e.Query != "" {
		query = ": " + e.Query
	}
	return fmt.Sprintf("%s '%s'%s%s", header, e.Message, code, query)
}

func (e *EngineError) Unwrap() error {
	return e.cause
}

// Cause returns the driver error, for github.com/pkg/errors.Cause.
func (e *EngineError) Cause() error {
	return e.cause
}

func (e *EngineError) Is(target error) bool {
	return target == ErrEngineFailure
}

// UnsupportedFeatureError indicates a feature not supported by the dialect.
type UnsupportedFeatureError struct {
	Feature string
	Dialect string
	Hint    string
}

func (e UnsupportedFeatureError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s is not supported: %s", e.Dialect, e.Feature, e.Hint)
	}
	return fmt.Sprintf("%s: %s is not supported", e.Dialect, e.Feature)
}

func (e UnsupportedFeatureError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewUnsupportedFeatureError creates a new unsupported feature error.
func NewUnsupportedFeatureError(dialect, feature string, hint ...string) error {
	err := UnsupportedFeatureError{Feature: feature, Dialect: dialect}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return errors.WithStack(err)
}
