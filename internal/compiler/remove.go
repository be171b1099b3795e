package compiler

import (
	"github.com/roach88/kiln/internal/container"
)

// RemoveUnusedDefinitionsPass removes private definitions nothing refers
// to.
//
// A private definition referenced only by a single alias takes the alias'
// place. One referenced by nothing is removed, and the enclosing
// RepeatedPass is asked for another iteration since its own references
// may now be unused.
type RemoveUnusedDefinitionsPass struct {
	compilerRef

	repeated *RepeatedPass
}

// SetRepeatedPass implements RepeatedPassAware.
func (p *RemoveUnusedDefinitionsPass) SetRepeatedPass(r *RepeatedPass) {
	p.repeated = r
}

// Process implements container.CompilerPass.
func (p *RemoveUnusedDefinitionsPass) Process(b *container.Builder) error {
	graph := p.current().ServiceReferenceGraph()
	formatter := p.current().LoggingFormatter()

	changed := false
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		d := defs[id]
		if d.Public || !b.HasDefinition(id) {
			continue
		}

		var aliases []string
		referenced := false
		if n, ok := graph.Node(id); ok {
			seen := make(map[NodeID]bool)
			for _, e := range graph.InEdges(n) {
				if seen[e.Source] {
					continue
				}
				seen[e.Source] = true
				if graph.IsAlias(e.Source) {
					aliases = append(aliases, graph.ServiceID(e.Source))
				} else {
					referenced = true
				}
			}
		}
		if referenced {
			continue
		}

		switch len(aliases) {
		case 0:
			b.RemoveDefinition(id)
			p.addLog(formatter.FormatRemoveService(p, id, "unused"))
			changed = true
		case 1:
			d.Public = true
			if err := b.SetDefinition(aliases[0], d); err != nil {
				return err
			}
			b.RemoveDefinition(id)
			p.addLog(formatter.FormatRemoveService(p, id, "replaces alias "+aliases[0]))
		}
	}

	if changed && p.repeated != nil {
		p.repeated.SetRepeat()
	}
	return nil
}

// RemoveAbstractDefinitionsPass removes abstract definitions, which only
// serve as parents.
type RemoveAbstractDefinitionsPass struct {
	compilerRef
}

// Process implements container.CompilerPass.
func (p *RemoveAbstractDefinitionsPass) Process(b *container.Builder) error {
	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		if defs[id].Abstract {
			b.RemoveDefinition(id)
			p.addLog(p.current().LoggingFormatter().FormatRemoveService(p, id, "abstract"))
		}
	}
	return nil
}
