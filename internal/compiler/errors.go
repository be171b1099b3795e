package compiler

import (
	"errors"
	"fmt"
)

// Compile validation error codes (E200-E299)
const (
	// Definition validity (E201-E209)
	ErrSyntheticNotPublic  = "E201" // synthetic service must be public
	ErrSyntheticPrototype  = "E202" // synthetic service cannot be prototype-scoped
	ErrMissingClass        = "E203" // definition has no class
	ErrFactoryWithoutClass = "E204" // factory-built definition has no class
	ErrInvalidTagAttribute = "E205" // tag attribute is not a scalar
	ErrUnknownScope        = "E206" // definition scope is not declared

	// Reference validity (E210-E219)
	ErrAbstractReference = "E210" // reference to an abstract definition
	ErrScopeWidening     = "E211" // strict reference into a narrower scope
	ErrScopeCrossing     = "E212" // strict reference into an unrelated scope

	// Inheritance (E220-E229)
	ErrMissingParent   = "E220" // parent definition does not exist
	ErrCircularParent  = "E221" // definition inherits from itself
	ErrInvalidOverride = "E222" // argument override index out of range

	// Pipeline (E230-E239)
	ErrUnknownPassType = "E230" // pass registered for an unknown phase
)

// ValidationError is a compile-time failure tied to one service.
type ValidationError struct {
	Code      string `json:"code"`
	ServiceID string `json:"service_id"`
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.ServiceID, e.Message)
}

// ErrorCode returns the stable error code.
func (e *ValidationError) ErrorCode() string { return e.Code }

func invalid(code, id, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, ServiceID: id, Message: fmt.Sprintf(format, args...)}
}

// ScopeWideningError reports a strict reference from a service to a service
// of a narrower scope, which would outlive the narrower instance.
type ScopeWideningError struct {
	SourceID    string
	SourceScope string
	DestID      string
	DestScope   string
}

func (e *ScopeWideningError) Error() string {
	return fmt.Sprintf("[%s] %s: scope widening injection detected: service %q of scope %q references service %q of narrower scope %q; "+
		"move %q to scope %q, or make the reference non-strict",
		ErrScopeWidening, e.SourceID, e.SourceID, e.SourceScope, e.DestID, e.DestScope, e.SourceID, e.DestScope)
}

// ErrorCode returns ErrScopeWidening.
func (e *ScopeWideningError) ErrorCode() string { return ErrScopeWidening }

// ScopeCrossingError reports a strict reference between unrelated scopes.
type ScopeCrossingError struct {
	SourceID    string
	SourceScope string
	DestID      string
	DestScope   string
}

func (e *ScopeCrossingError) Error() string {
	return fmt.Sprintf("[%s] %s: scope crossing injection detected: service %q of scope %q references service %q of unrelated scope %q",
		ErrScopeCrossing, e.SourceID, e.SourceID, e.SourceScope, e.DestID, e.DestScope)
}

// ErrorCode returns ErrScopeCrossing.
func (e *ScopeCrossingError) ErrorCode() string { return ErrScopeCrossing }

// IsScopeError reports whether err is a scope widening or crossing error.
func IsScopeError(err error) bool {
	var w *ScopeWideningError
	var c *ScopeCrossingError
	return errors.As(err, &w) || errors.As(err, &c)
}

// IsValidationError reports whether err carries the validation code.
func IsValidationError(err error, code string) bool {
	var v *ValidationError
	return errors.As(err, &v) && v.Code == code
}
