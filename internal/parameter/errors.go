package parameter

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for parameter failures.
const (
	ErrCodeNotFound          = "E301"
	ErrCodeCircularReference = "E302"
	ErrCodeInvalidType       = "E303"
	ErrCodeFrozen            = "E304"
)

// NotFoundError reports a lookup of an unknown parameter.
type NotFoundError struct {
	Key string

	// SourceID is the service whose definition needed the parameter.
	SourceID string

	// SourceKey is the parameter whose value needed the parameter.
	SourceKey string

	// Alternatives lists similarly named parameters.
	Alternatives []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	switch {
	case e.SourceID != "":
		fmt.Fprintf(&b, "service %q depends on non-existent parameter %q", e.SourceID, e.Key)
	case e.SourceKey != "":
		fmt.Fprintf(&b, "parameter %q depends on non-existent parameter %q", e.SourceKey, e.Key)
	default:
		fmt.Fprintf(&b, "non-existent parameter %q", e.Key)
	}
	if len(e.Alternatives) == 1 {
		fmt.Fprintf(&b, "; did you mean %q?", e.Alternatives[0])
	} else if len(e.Alternatives) > 1 {
		fmt.Fprintf(&b, "; did you mean one of %s?", quoteAll(e.Alternatives))
	}
	return b.String()
}

// ErrorCode returns ErrCodeNotFound.
func (e *NotFoundError) ErrorCode() string { return ErrCodeNotFound }

// CircularReferenceError reports a parameter that requires itself.
// Path lists the parameters visited, ending with the repeated one.
type CircularReferenceError struct {
	Path []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference detected for parameter %q (%s)", e.Path[0], strings.Join(e.Path, " > "))
}

// ErrorCode returns ErrCodeCircularReference.
func (e *CircularReferenceError) ErrorCode() string { return ErrCodeCircularReference }

// TypeError reports a structured parameter embedded in a longer string.
type TypeError struct {
	Key   string
	Type  string
	Value string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("a string value must be composed of strings and/or numbers, but found parameter %q of type %s inside string value %q", e.Key, e.Type, e.Value)
}

// ErrorCode returns ErrCodeInvalidType.
func (e *TypeError) ErrorCode() string { return ErrCodeInvalidType }

// FrozenError reports a mutation of a frozen bag.
type FrozenError struct {
	Op string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("impossible to call %s() on a frozen parameter bag", e.Op)
}

// ErrorCode returns ErrCodeFrozen.
func (e *FrozenError) ErrorCode() string { return ErrCodeFrozen }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
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

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
