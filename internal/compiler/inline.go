package compiler

import (
	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// InlineServiceDefinitionsPass replaces references to private services by
// the definitions themselves.
//
// A prototype is always inlined, as a copy. Any other target is inlined
// only when it is private and has at most one distinct referencing
// service, sharing its scope, and is then shared by the referencing
// definition. A definition is never inlined into itself.
type InlineServiceDefinitionsPass struct {
	compilerRef
}

// Process implements container.CompilerPass.
func (p *InlineServiceDefinitionsPass) Process(b *container.Builder) error {
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		if err := p.inline(b, id, defs[id]); err != nil {
			return err
		}
	}
	return nil
}

func (p *InlineServiceDefinitionsPass) inline(b *container.Builder, currentID string, d *definition.Definition) error {
	return mapDefinition(d, func(v any) (any, error) {
		switch v := v.(type) {
		case *definition.Definition:
			return v, p.inline(b, currentID, v)
		case *definition.Reference:
			target := plainDefinition(b, v.ID)
			if target == nil || target == d || !p.inlinable(b, currentID, v.ID, target) {
				return v, nil
			}
			p.addLog(p.current().LoggingFormatter().FormatInlineService(p, v.ID, currentID))
			if target.Scope == definition.ScopePrototype {
				return target.Clone(), nil
			}
			return target, nil
		default:
			return v, nil
		}
	})
}

func (p *InlineServiceDefinitionsPass) inlinable(b *container.Builder, currentID, id string, d *definition.Definition) bool {
	if d.Scope == definition.ScopePrototype {
		return id != currentID
	}
	if d.Public || id == currentID {
		return false
	}

	graph := p.current().ServiceReferenceGraph()
	if !graph.HasNode(id) {
		return true
	}
	sources := graph.Sources(id)
	switch len(sources) {
	case 0:
		return true
	case 1:
		source := plainDefinition(b, sources[0])
		return source != nil && source.Scope == d.Scope
	default:
		return false
	}
}
