package compiler

import (
	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// CheckDefinitionValidityPass validates each definition on its own.
//
// Synthetic services must be public and cannot be prototypes. Every other
// non-abstract definition needs a class, even when a factory builds it.
// Tag attributes must be scalars and named scopes must be declared.
type CheckDefinitionValidityPass struct{}

// Process implements container.CompilerPass.
func (p *CheckDefinitionValidityPass) Process(b *container.Builder) error {
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		if err := checkDefinition(b, id, defs[id]); err != nil {
			return err
		}
	}
	return nil
}

func checkDefinition(b *container.Builder, id string, d *definition.Definition) error {
	if d.Synthetic && !d.Public {
		return invalid(ErrSyntheticNotPublic, id, "a synthetic service must be public")
	}
	if d.Synthetic && d.Scope == definition.ScopePrototype {
		return invalid(ErrSyntheticPrototype, id, "a synthetic service cannot be of scope %q", definition.ScopePrototype)
	}

	if !d.Abstract && !d.Synthetic && d.Class == "" {
		if d.FactoryClass != "" || d.FactoryService != "" {
			return invalid(ErrFactoryWithoutClass, id, "please add the class even if the service is constructed by a factory, "+
				"it is needed to check method calls at compile time")
		}
		return invalid(ErrMissingClass, id, "the definition has no class; mark it synthetic if it is set at runtime, "+
			"abstract if it only serves as a parent, or specify a class")
	}

	if d.Scope != definition.ScopeContainer && d.Scope != definition.ScopePrototype && !b.HasScope(d.Scope) {
		return invalid(ErrUnknownScope, id, "scope %q is not declared", d.Scope)
	}

	for _, name := range d.TagNames() {
		for _, attrs := range d.Tag(name) {
			for _, attr := range sortedKeys(attrs) {
				if !isScalar(attrs[attr]) {
					return invalid(ErrInvalidTagAttribute, id, "attribute %q of tag %q must be a scalar, got %T", attr, name, attrs[attr])
				}
			}
		}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
