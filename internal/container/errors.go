package container

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for container failures.
const (
	ErrCodeServiceNotFound   = "E311"
	ErrCodeCircularReference = "E312"
	ErrCodeInactiveScope     = "E313"
	ErrCodeInvalidConfig     = "E314"
	ErrCodeFrozen            = "E315"
	ErrCodeInstantiation     = "E316"
)

// ServiceNotFoundError reports a lookup of an unknown service.
type ServiceNotFoundError struct {
	ID string

	// SourceID is the service whose definition referenced ID.
	SourceID string

	Alternatives []string
}

func (e *ServiceNotFoundError) Error() string {
	var b strings.Builder
	if e.SourceID != "" {
		fmt.Fprintf(&b, "service %q has a dependency on a non-existent service %q", e.SourceID, e.ID)
	} else {
		fmt.Fprintf(&b, "non-existent service %q", e.ID)
	}
	if len(e.Alternatives) == 1 {
		fmt.Fprintf(&b, "; did you mean %q?", e.Alternatives[0])
	} else if len(e.Alternatives) > 1 {
		quoted := make([]string, len(e.Alternatives))
		for i, a := range e.Alternatives {
			quoted[i] = fmt.Sprintf("%q", a)
		}
		fmt.Fprintf(&b, "; did you mean one of %s?", strings.Join(quoted, ", "))
	}
	return b.String()
}

// ErrorCode returns ErrCodeServiceNotFound.
func (e *ServiceNotFoundError) ErrorCode() string { return ErrCodeServiceNotFound }

// CircularReferenceError reports a service that depends on itself, either
// through definitions, aliases or nested construction. Path ends with the
// repeated identifier.
type CircularReferenceError struct {
	ID   string
	Path []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference detected for service %q, path: %q", e.ID, strings.Join(e.Path, " -> "))
}

// ErrorCode returns ErrCodeCircularReference.
func (e *CircularReferenceError) ErrorCode() string { return ErrCodeCircularReference }

// InactiveScopeError reports use of a scope that is not active.
type InactiveScopeError struct {
	Scope string

	// ID is the service that needed the scope, if any.
	ID string
}

func (e *InactiveScopeError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("cannot create service %q of inactive scope %q", e.ID, e.Scope)
	}
	return fmt.Sprintf("scope %q is not active", e.Scope)
}

// ErrorCode returns ErrCodeInactiveScope.
func (e *InactiveScopeError) ErrorCode() string { return ErrCodeInactiveScope }

// ConfigError reports malformed registration input: reserved or unknown
// scopes, self-referencing aliases, unknown extensions.
type ConfigError struct {
	ID      string
	Message string
}

func (e *ConfigError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s", e.ID, e.Message)
	}
	return e.Message
}

// ErrorCode returns ErrCodeInvalidConfig.
func (e *ConfigError) ErrorCode() string { return ErrCodeInvalidConfig }

// FrozenError reports a mutation of a compiled container.
type FrozenError struct {
	Op string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("cannot %s on a frozen container", e.Op)
}

// ErrorCode returns ErrCodeFrozen.
func (e *FrozenError) ErrorCode() string { return ErrCodeFrozen }

// InstantiationError reports a failure to construct or configure a service.
type InstantiationError struct {
	ID      string
	Class   string
	Message string
	Err     error
}

func (e *InstantiationError) Error() string {
	subject := e.ID
	if subject == "" {
		subject = "inline service"
	}
	if e.Class != "" {
		subject = fmt.Sprintf("%s (%s)", subject, e.Class)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", subject, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", subject, e.Message)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

// ErrorCode returns ErrCodeInstantiation.
func (e *InstantiationError) ErrorCode() string { return ErrCodeInstantiation }

// IsNotFound reports whether err is a ServiceNotFoundError.
func IsNotFound(err error) bool {
	var nf *ServiceNotFoundError
	return errors.As(err, &nf)
}

// IsCircularReference reports whether err is a CircularReferenceError.
func IsCircularReference(err error) bool {
	var cr *CircularReferenceError
	return errors.As(err, &cr)
}

// IsFrozen reports whether err is a FrozenError.
func IsFrozen(err error) bool {
	var fe *FrozenError
	return errors.As(err, &fe)
}
