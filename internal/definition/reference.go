package definition

import "fmt"

// InvalidBehavior controls what happens when a reference points to a
// service that does not exist.
type InvalidBehavior int

const (
	// ExceptionOnInvalidReference fails the lookup (or the compilation).
	ExceptionOnInvalidReference InvalidBehavior = iota + 1

	// NullOnInvalidReference substitutes nil for the missing service.
	NullOnInvalidReference

	// IgnoreOnInvalidReference substitutes nil, and drops a method call or
	// property assignment that needs the missing service.
	IgnoreOnInvalidReference
)

// String returns the configuration keyword of the behavior.
func (b InvalidBehavior) String() string {
	switch b {
	case ExceptionOnInvalidReference:
		return "exception"
	case NullOnInvalidReference:
		return "null"
	case IgnoreOnInvalidReference:
		return "ignore"
	default:
		return fmt.Sprintf("InvalidBehavior(%d)", int(b))
	}
}

// Built-in scope names. Neither can be declared by callers.
const (
	ScopeContainer = "container"
	ScopePrototype = "prototype"
)

// Reference points from one definition to another service.
type Reference struct {
	ID      string
	Invalid InvalidBehavior

	// Strict enables scope compatibility checks for this reference.
	Strict bool
}

// NewReference returns a strict reference that fails when id is missing.
func NewReference(id string) *Reference {
	return NewReferenceWith(id, ExceptionOnInvalidReference, true)
}

// NewReferenceWith returns a reference with explicit invalid behavior and
// strictness.
func NewReferenceWith(id string, invalid InvalidBehavior, strict bool) *Reference {
	if invalid == 0 {
		invalid = ExceptionOnInvalidReference
	}
	return &Reference{ID: NormalizeID(id), Invalid: invalid, Strict: strict}
}

// String returns the target identifier.
func (r *Reference) String() string {
	return r.ID
}

// Alias is a named redirect to another service identifier.
type Alias struct {
	ID     string
	Public bool
}

// NewAlias returns an alias targeting id.
func NewAlias(id string, public bool) *Alias {
	return &Alias{ID: NormalizeID(id), Public: public}
}

// String returns the target identifier.
func (a *Alias) String() string {
	return a.ID
}
