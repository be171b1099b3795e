package compiler

import (
	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// AnalyzeServiceReferencesPass rebuilds the compiler's reference graph.
//
// Every reference found in a definition becomes an edge from the
// definition to the alias-resolved target, and every alias an edge from
// the alias to its target. References inside inline definitions belong
// to the definition holding them. A factory service counts as a
// constructor reference.
//
// With onlyConstructorArguments set, method calls, properties and
// configurators are not analyzed: those dependencies are satisfied after
// the instance is cached, so cycles through them are legal.
type AnalyzeServiceReferencesPass struct {
	compilerRef

	onlyConstructorArguments bool
}

// NewAnalyzeServiceReferencesPass returns an analysis pass.
func NewAnalyzeServiceReferencesPass(onlyConstructorArguments bool) *AnalyzeServiceReferencesPass {
	return &AnalyzeServiceReferencesPass{onlyConstructorArguments: onlyConstructorArguments}
}

// Process implements container.CompilerPass.
func (p *AnalyzeServiceReferencesPass) Process(b *container.Builder) error {
	graph := p.current().ServiceReferenceGraph()
	graph.Clear()

	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		d := defs[id]
		if d.Synthetic || d.Abstract {
			continue
		}
		if err := p.analyze(b, graph, id, d, d, true); err != nil {
			return err
		}
	}

	for _, id := range b.AliasIDs() {
		a, err := b.Alias(id)
		if err != nil {
			return err
		}
		graph.Connect(id, a, a.ID, specValue(b, a.ID), a)
	}
	return nil
}

// analyze adds the edges of current, which is owner itself or inline in
// owner. Inline definitions are analyzed in full.
func (p *AnalyzeServiceReferencesPass) analyze(b *container.Builder, graph *ServiceReferenceGraph, id string, owner, current *definition.Definition, top bool) error {
	connect := func(ref *definition.Reference) error {
		target, err := resolveAliasID(b, ref.ID)
		if err != nil {
			return err
		}
		graph.Connect(id, owner, target, specValue(b, target), ref)
		return nil
	}
	visit := func(v any) error {
		switch v := v.(type) {
		case *definition.Reference:
			return connect(v)
		case *definition.Definition:
			return p.analyze(b, graph, id, owner, v, false)
		}
		return nil
	}

	if current.FactoryService != "" {
		if err := connect(definition.NewReference(current.FactoryService)); err != nil {
			return err
		}
	}
	if err := walkValue(current.Arguments, visit); err != nil {
		return err
	}
	if top && p.onlyConstructorArguments {
		return nil
	}

	for _, call := range current.Calls {
		if err := walkValue(call.Arguments, visit); err != nil {
			return err
		}
	}
	if err := walkValue(current.Properties, visit); err != nil {
		return err
	}
	if current.Configurator != nil && current.Configurator.Service != nil {
		return connect(current.Configurator.Service)
	}
	return nil
}

// specValue returns the plain definition of id, or nil.
func specValue(b *container.Builder, id string) any {
	if d := plainDefinition(b, id); d != nil {
		return d
	}
	return nil
}
