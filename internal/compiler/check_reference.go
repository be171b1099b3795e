package compiler

import (
	"slices"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// CheckReferenceValidityPass validates the references of argument, method
// call and property positions.
//
// No reference may target an abstract definition. A strict reference from
// a service that is not a prototype must not target a narrower scope
// (widening) or a scope outside its ancestor chain (crossing). Prototype
// counts as narrower than every other scope.
type CheckReferenceValidityPass struct{}

// Process implements container.CompilerPass.
func (p *CheckReferenceValidityPass) Process(b *container.Builder) error {
	allScopes := sortedKeys(b.Scopes())
	children := b.ScopeChildren()

	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		d := defs[id]
		if d.Synthetic || d.Abstract {
			continue
		}

		var narrower, ancestors []string
		switch d.Scope {
		case definition.ScopeContainer:
			narrower = append(slices.Clone(allScopes), definition.ScopePrototype)
		case definition.ScopePrototype:
		default:
			narrower = append(slices.Clone(children[d.Scope]), definition.ScopePrototype)
			ancestors = b.ScopeAncestors(d.Scope)
		}

		err := walkDefinition(d, func(v any) error {
			ref, ok := v.(*definition.Reference)
			if !ok {
				return nil
			}
			target := plainDefinition(b, ref.ID)
			if target != nil && target.Abstract {
				return invalid(ErrAbstractReference, id, "references abstract definition %q; abstract definitions cannot be the target of references", ref.ID)
			}
			return checkScope(id, d.Scope, ref, target, narrower, ancestors)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func checkScope(id, scope string, ref *definition.Reference, target *definition.Definition, narrower, ancestors []string) error {
	if scope == definition.ScopePrototype || !ref.Strict || target == nil || target.Scope == scope {
		return nil
	}
	if slices.Contains(narrower, target.Scope) {
		return &ScopeWideningError{SourceID: id, SourceScope: scope, DestID: ref.ID, DestScope: target.Scope}
	}
	if !slices.Contains(ancestors, target.Scope) {
		return &ScopeCrossingError{SourceID: id, SourceScope: scope, DestID: ref.ID, DestScope: target.Scope}
	}
	return nil
}
