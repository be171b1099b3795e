package compiler

import (
	"slices"
	"strings"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// ResolveDefinitionTemplatesPass replaces every child definition by the
// plain definition obtained by merging it over its parent.
//
// Parents that are children themselves are resolved first. Class, factory,
// configurator, file and visibility are inherited unless the child changed
// them; arguments are appended or overridden by index; properties are
// merged; method calls are appended after the parent's. Scope, abstract,
// synthetic and tags always come from the child.
type ResolveDefinitionTemplatesPass struct {
	compilerRef
}

// Process implements container.CompilerPass.
func (p *ResolveDefinitionTemplatesPass) Process(b *container.Builder) error {
	for _, id := range b.DefinitionIDs() {
		// Fetch again: resolving an earlier child may have resolved this one.
		spec, err := b.Spec(id)
		if err != nil {
			return err
		}
		child, ok := spec.(*definition.ChildDefinition)
		if !ok {
			continue
		}
		if _, err := p.resolve(b, id, child, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *ResolveDefinitionTemplatesPass) resolve(b *container.Builder, id string, child *definition.ChildDefinition, resolving []string) (*definition.Definition, error) {
	if slices.Contains(resolving, id) {
		path := append(resolving, id)
		return nil, invalid(ErrCircularParent, id, "circular parent chain: %s", strings.Join(path, " -> "))
	}
	resolving = append(resolving, id)

	if !b.HasDefinition(child.Parent) {
		return nil, invalid(ErrMissingParent, id, "the parent definition %q does not exist", child.Parent)
	}
	parentSpec, err := b.Spec(child.Parent)
	if err != nil {
		return nil, err
	}

	var parent *definition.Definition
	switch ps := parentSpec.(type) {
	case *definition.ChildDefinition:
		if parent, err = p.resolve(b, child.Parent, ps, resolving); err != nil {
			return nil, err
		}
	case *definition.Definition:
		parent = ps
	}

	p.addLog(p.current().LoggingFormatter().FormatResolveInheritance(p, id, child.Parent))

	def := parent.Clone()
	def.Tags = nil

	if child.Changed(definition.AttrClass) {
		def.Class = child.Class
	}
	if child.Changed(definition.AttrFactoryClass) {
		def.FactoryClass = child.FactoryClass
	}
	if child.Changed(definition.AttrFactoryMethod) {
		def.FactoryMethod = child.FactoryMethod
	}
	if child.Changed(definition.AttrFactoryService) {
		def.FactoryService = child.FactoryService
	}
	if child.Changed(definition.AttrConfigurator) {
		def.Configurator = child.Configurator
	}
	if child.Changed(definition.AttrFile) {
		def.File = child.File
	}
	if child.Changed(definition.AttrPublic) {
		def.Public = child.Public
	}

	def.Arguments = append(def.Arguments, child.Arguments...)
	overrides := child.ArgumentOverrides()
	indexes := make([]int, 0, len(overrides))
	for i := range overrides {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)
	for _, i := range indexes {
		if err := def.ReplaceArgument(i, overrides[i]); err != nil {
			return nil, invalid(ErrInvalidOverride, id, "cannot override argument %d: %v", i, err)
		}
	}

	for name, v := range child.Properties {
		def.SetProperty(name, v)
	}
	def.Calls = append(def.Calls, child.Calls...)

	def.Scope = child.Scope
	def.Abstract = child.Abstract
	def.Synthetic = child.Synthetic
	for _, name := range child.TagNames() {
		for _, attrs := range child.Tag(name) {
			def.AddTag(name, attrs)
		}
	}

	if err := b.SetDefinition(id, def); err != nil {
		return nil, err
	}
	return def, nil
}
