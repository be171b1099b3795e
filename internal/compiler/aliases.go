package compiler

import (
	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// ResolveReferencesToAliasesPass points every reference, factory service
// and alias at the definition its alias chain ends at.
type ResolveReferencesToAliasesPass struct{}

// Process implements container.CompilerPass.
func (p *ResolveReferencesToAliasesPass) Process(b *container.Builder) error {
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		d := defs[id]
		if d.Synthetic || d.Abstract {
			continue
		}
		if err := resolveDefinitionAliases(b, d); err != nil {
			return err
		}
	}

	for _, id := range b.AliasIDs() {
		a, err := b.Alias(id)
		if err != nil {
			return err
		}
		target, err := resolveAliasID(b, a.ID)
		if err != nil {
			return err
		}
		if target != a.ID {
			if err := b.SetAlias(id, definition.NewAlias(target, a.Public)); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveDefinitionAliases(b *container.Builder, d *definition.Definition) error {
	if d.FactoryService != "" {
		target, err := resolveAliasID(b, definition.NormalizeID(d.FactoryService))
		if err != nil {
			return err
		}
		d.FactoryService = target
	}
	if d.Configurator != nil && d.Configurator.Service != nil {
		ref, err := resolveReferenceAlias(b, d.Configurator.Service)
		if err != nil {
			return err
		}
		d.Configurator.Service = ref
	}

	return mapDefinition(d, func(v any) (any, error) {
		switch v := v.(type) {
		case *definition.Reference:
			return resolveReferenceAlias(b, v)
		case *definition.Definition:
			return v, resolveDefinitionAliases(b, v)
		default:
			return v, nil
		}
	})
}

func resolveReferenceAlias(b *container.Builder, ref *definition.Reference) (*definition.Reference, error) {
	target, err := resolveAliasID(b, ref.ID)
	if err != nil {
		return nil, err
	}
	if target == ref.ID {
		return ref, nil
	}
	return definition.NewReferenceWith(target, ref.Invalid, ref.Strict), nil
}

// RemovePrivateAliasesPass removes aliases that are not public. References
// through them have already been resolved.
type RemovePrivateAliasesPass struct {
	compilerRef
}

// Process implements container.CompilerPass.
func (p *RemovePrivateAliasesPass) Process(b *container.Builder) error {
	for _, id := range b.AliasIDs() {
		a, err := b.Alias(id)
		if err != nil {
			return err
		}
		if a.Public {
			continue
		}
		b.RemoveAlias(id)
		p.addLog(p.current().LoggingFormatter().FormatRemoveService(p, id, "private alias"))
	}
	return nil
}

// ReplaceAliasByActualDefinitionPass moves each private definition that
// is reachable through a public alias to the alias identifier, making it
// public and rewriting every reference to it. The scan restarts after
// each replacement since the builder changed under it.
type ReplaceAliasByActualDefinitionPass struct {
	compilerRef
}

// Process implements container.CompilerPass.
func (p *ReplaceAliasByActualDefinitionPass) Process(b *container.Builder) error {
	for {
		replaced, err := p.replaceOne(b)
		if err != nil || !replaced {
			return err
		}
	}
}

func (p *ReplaceAliasByActualDefinitionPass) replaceOne(b *container.Builder) (bool, error) {
	for _, id := range b.AliasIDs() {
		a, err := b.Alias(id)
		if err != nil {
			return false, err
		}
		target := a.ID
		d := plainDefinition(b, target)
		if d == nil {
			if b.Has(target) {
				continue
			}
			return false, &container.ServiceNotFoundError{ID: target, SourceID: id}
		}
		if d.Public {
			continue
		}

		d.Public = true
		if err := b.SetDefinition(id, d); err != nil {
			return false, err
		}
		b.RemoveDefinition(target)
		if err := p.updateReferences(b, target, id); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (p *ReplaceAliasByActualDefinitionPass) updateReferences(b *container.Builder, oldID, newID string) error {
	for _, id := range b.AliasIDs() {
		a, err := b.Alias(id)
		if err != nil {
			return err
		}
		if a.ID == oldID {
			if err := b.SetAlias(id, definition.NewAlias(newID, a.Public)); err != nil {
				return err
			}
		}
	}

	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		if err := p.updateDefinition(id, defs[id], oldID, newID); err != nil {
			return err
		}
	}
	return nil
}

func (p *ReplaceAliasByActualDefinitionPass) updateDefinition(sourceID string, d *definition.Definition, oldID, newID string) error {
	if d.FactoryService == oldID {
		d.FactoryService = newID
	}
	if d.Configurator != nil && d.Configurator.Service != nil && d.Configurator.Service.ID == oldID {
		ref := d.Configurator.Service
		d.Configurator.Service = definition.NewReferenceWith(newID, ref.Invalid, ref.Strict)
	}
	return mapDefinition(d, func(v any) (any, error) {
		switch v := v.(type) {
		case *definition.Reference:
			if v.ID != oldID {
				return v, nil
			}
			p.addLog(p.current().LoggingFormatter().FormatUpdateReference(p, sourceID, oldID, newID))
			return definition.NewReferenceWith(newID, v.Invalid, v.Strict), nil
		case *definition.Definition:
			return v, p.updateDefinition(sourceID, v, oldID, newID)
		default:
			return v, nil
		}
	})
}
