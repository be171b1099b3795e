package compiler

import (
	"errors"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

// ResolveInvalidReferencesPass applies the invalid behavior of every
// reference.
//
// A reference to an existing service becomes a plain failing reference.
// A reference to a missing service becomes nil under the null behavior.
// Under the ignore behavior it becomes nil in constructor arguments, and
// the whole method call or property assignment holding it is dropped.
type ResolveInvalidReferencesPass struct{}

// Process implements container.CompilerPass.
func (p *ResolveInvalidReferencesPass) Process(b *container.Builder) error {
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		d := defs[id]
		if d.Synthetic || d.Abstract {
			continue
		}

		args, err := mapList(d.Arguments, invalidReferenceFunc(b, false))
		if err != nil {
			return err
		}
		d.Arguments = args

		calls := d.Calls[:0]
		for _, call := range d.Calls {
			callArgs, err := mapList(call.Arguments, invalidReferenceFunc(b, true))
			if errors.Is(err, errSkip) {
				continue
			}
			if err != nil {
				return err
			}
			calls = append(calls, definition.MethodCall{Method: call.Method, Arguments: callArgs})
		}
		d.Calls = calls

		for _, name := range sortedKeys(d.Properties) {
			v, err := mapValue(d.Properties[name], invalidReferenceFunc(b, true))
			if errors.Is(err, errSkip) {
				delete(d.Properties, name)
				continue
			}
			if err != nil {
				return err
			}
			d.Properties[name] = v
		}
	}
	return nil
}

func invalidReferenceFunc(b *container.Builder, dropOnIgnore bool) leafFunc {
	return func(v any) (any, error) {
		ref, ok := v.(*definition.Reference)
		if !ok {
			return v, nil
		}
		exists := b.Has(ref.ID)
		switch {
		case exists && ref.Invalid != definition.ExceptionOnInvalidReference:
			return definition.NewReferenceWith(ref.ID, definition.ExceptionOnInvalidReference, ref.Strict), nil
		case !exists && ref.Invalid == definition.NullOnInvalidReference:
			return nil, nil
		case !exists && ref.Invalid == definition.IgnoreOnInvalidReference:
			if dropOnIgnore {
				return nil, errSkip
			}
			return nil, nil
		default:
			return ref, nil
		}
	}
}

// CheckExceptionOnInvalidReferenceBehaviorPass fails on any remaining
// reference to a missing service, including references inside inline
// definitions.
type CheckExceptionOnInvalidReferenceBehaviorPass struct{}

// Process implements container.CompilerPass.
func (p *CheckExceptionOnInvalidReferenceBehaviorPass) Process(b *container.Builder) error {
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		if err := checkReferencesExist(b, id, defs[id]); err != nil {
			return err
		}
	}
	return nil
}

func checkReferencesExist(b *container.Builder, sourceID string, d *definition.Definition) error {
	return walkDefinition(d, func(v any) error {
		switch v := v.(type) {
		case *definition.Definition:
			return checkReferencesExist(b, sourceID, v)
		case *definition.Reference:
			if v.Invalid == definition.ExceptionOnInvalidReference && !b.Has(v.ID) {
				candidates := append(b.DefinitionIDs(), b.AliasIDs()...)
				return &container.ServiceNotFoundError{ID: v.ID, SourceID: sourceID, Alternatives: parameter.Suggest(v.ID, candidates)}
			}
		}
		return nil
	})
}
