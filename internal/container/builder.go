package container

import (
	"fmt"
	"sort"

	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

// Builder is a Container that also owns the mutable registry compiled
// into it.
type Builder struct {
	*Container

	definitions      map[string]definition.Spec
	extensions       []Extension
	extensionConfigs map[string][]map[string]any
	passes           []PassEntry

	classes   *ClassRegistry
	callables map[string]func(svc any) error
	fileHook  func(path string) error
}

var _ definitionSource = (*Builder)(nil)

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	o := buildOptions(opts)
	b := &Builder{
		Container:        newContainer(o),
		definitions:      make(map[string]definition.Spec),
		extensionConfigs: make(map[string][]map[string]any),
		classes:          o.classes,
		callables:        make(map[string]func(svc any) error),
	}
	b.source = b
	return b
}

// Register stores a new definition of class under id and returns it for
// further configuration. It panics if the builder is frozen; use
// SetDefinition to handle that case.
func (b *Builder) Register(id, class string) *definition.Definition {
	d := definition.New(class)
	if err := b.SetDefinition(id, d); err != nil {
		panic(err)
	}
	return d
}

// SetDefinition stores spec under id, replacing any alias of that name.
func (b *Builder) SetDefinition(id string, spec definition.Spec) error {
	if b.frozen {
		return &FrozenError{Op: "set a definition"}
	}
	id = definition.NormalizeID(id)
	if base := spec.Base(); base.Scope == "" {
		base.Scope = definition.ScopeContainer
	}
	delete(b.aliases, id)
	b.definitions[id] = spec
	return nil
}

// AddDefinitions stores every entry of specs.
func (b *Builder) AddDefinitions(specs map[string]definition.Spec) error {
	for _, id := range sortedKeys(specs) {
		if err := b.SetDefinition(id, specs[id]); err != nil {
			return err
		}
	}
	return nil
}

// SetDefinitions replaces every definition by specs.
func (b *Builder) SetDefinitions(specs map[string]definition.Spec) error {
	if b.frozen {
		return &FrozenError{Op: "set definitions"}
	}
	b.definitions = make(map[string]definition.Spec, len(specs))
	return b.AddDefinitions(specs)
}

// HasDefinition reports whether id has a definition.
func (b *Builder) HasDefinition(id string) bool {
	_, ok := b.definitions[definition.NormalizeID(id)]
	return ok
}

func (b *Builder) hasDefinition(id string) bool {
	_, ok := b.definitions[id]
	return ok
}

// Spec returns the definition or child definition stored under id.
func (b *Builder) Spec(id string) (definition.Spec, error) {
	id = definition.NormalizeID(id)
	spec, ok := b.definitions[id]
	if !ok {
		return nil, &ServiceNotFoundError{ID: id, Alternatives: parameter.Suggest(id, b.DefinitionIDs())}
	}
	return spec, nil
}

// Definition returns the plain definition stored under id. It fails for
// child definitions that have not been resolved yet.
func (b *Builder) Definition(id string) (*definition.Definition, error) {
	spec, err := b.Spec(id)
	if err != nil {
		return nil, err
	}
	d, ok := spec.(*definition.Definition)
	if !ok {
		return nil, &ConfigError{ID: definition.NormalizeID(id), Message: "child definition has not been resolved"}
	}
	return d, nil
}

// FindDefinition returns the definition id resolves to through aliases.
func (b *Builder) FindDefinition(id string) (*definition.Definition, error) {
	target, err := b.resolveAlias(definition.NormalizeID(id))
	if err != nil {
		return nil, err
	}
	return b.Definition(target)
}

// Definitions returns the plain definitions keyed by id. The map is a copy;
// the definitions are live.
func (b *Builder) Definitions() map[string]*definition.Definition {
	out := make(map[string]*definition.Definition, len(b.definitions))
	for id, spec := range b.definitions {
		if d, ok := spec.(*definition.Definition); ok {
			out[id] = d
		}
	}
	return out
}

// Specs returns every stored spec keyed by id.
func (b *Builder) Specs() map[string]definition.Spec {
	out := make(map[string]definition.Spec, len(b.definitions))
	for id, spec := range b.definitions {
		out[id] = spec
	}
	return out
}

// DefinitionIDs returns every definition identifier, sorted.
func (b *Builder) DefinitionIDs() []string {
	return sortedKeys(b.definitions)
}

// RemoveDefinition deletes the definition id.
func (b *Builder) RemoveDefinition(id string) {
	delete(b.definitions, definition.NormalizeID(id))
}

// SetAlias makes alias redirect to target, replacing any definition of
// that name.
func (b *Builder) SetAlias(alias string, target *definition.Alias) error {
	if b.frozen {
		return &FrozenError{Op: "set an alias"}
	}
	alias = definition.NormalizeID(alias)
	if alias == target.ID {
		return &ConfigError{ID: alias, Message: "an alias cannot reference itself, got a circular reference"}
	}
	delete(b.definitions, alias)
	b.aliases[alias] = target
	return nil
}

// AddAliases stores every entry of aliases.
func (b *Builder) AddAliases(aliases map[string]*definition.Alias) error {
	for _, id := range sortedKeys(aliases) {
		if err := b.SetAlias(id, aliases[id]); err != nil {
			return err
		}
	}
	return nil
}

// SetAliases replaces every alias by aliases.
func (b *Builder) SetAliases(aliases map[string]*definition.Alias) error {
	if b.frozen {
		return &FrozenError{Op: "set aliases"}
	}
	b.aliases = make(map[string]*definition.Alias, len(aliases))
	return b.AddAliases(aliases)
}

// HasAlias reports whether id is an alias.
func (b *Builder) HasAlias(id string) bool {
	_, ok := b.aliases[definition.NormalizeID(id)]
	return ok
}

// Alias returns the alias id.
func (b *Builder) Alias(id string) (*definition.Alias, error) {
	id = definition.NormalizeID(id)
	a, ok := b.aliases[id]
	if !ok {
		return nil, &ServiceNotFoundError{ID: id, Alternatives: parameter.Suggest(id, sortedKeys(b.aliases))}
	}
	return a, nil
}

// Aliases returns a copy of the alias map.
func (b *Builder) Aliases() map[string]*definition.Alias {
	out := make(map[string]*definition.Alias, len(b.aliases))
	for id, a := range b.aliases {
		out[id] = a
	}
	return out
}

// AliasIDs returns every alias identifier, sorted.
func (b *Builder) AliasIDs() []string {
	return sortedKeys(b.aliases)
}

// RemoveAlias deletes the alias id.
func (b *Builder) RemoveAlias(id string) {
	delete(b.aliases, definition.NormalizeID(id))
}

// Set stores a service instance. Once the builder is frozen only
// synthetic services may be set.
func (b *Builder) Set(id string, svc any) error {
	return b.SetInScope(id, svc, definition.ScopeContainer)
}

// SetInScope stores a service instance in scope.
func (b *Builder) SetInScope(id string, svc any, scope string) error {
	nid := definition.NormalizeID(id)
	d, _ := b.definitions[nid].(*definition.Definition)
	synthetic := d != nil && d.Synthetic
	if b.frozen && !synthetic {
		return &FrozenError{Op: "set a service"}
	}
	if !b.frozen {
		delete(b.aliases, nid)
		if !synthetic {
			delete(b.definitions, nid)
		}
	}
	return b.Container.SetInScope(nid, svc, scope)
}

// RegisterExtension adds ext; extensions load in registration order.
func (b *Builder) RegisterExtension(ext Extension) {
	alias := ext.Alias()
	for i, e := range b.extensions {
		if e.Alias() == alias {
			b.extensions[i] = ext
			return
		}
	}
	b.extensions = append(b.extensions, ext)
}

// Extension returns the extension registered under alias.
func (b *Builder) Extension(alias string) (Extension, error) {
	for _, e := range b.extensions {
		if e.Alias() == alias {
			return e, nil
		}
	}
	return nil, &ConfigError{ID: alias, Message: "no extension is registered under this namespace"}
}

// HasExtension reports whether alias is registered.
func (b *Builder) HasExtension(alias string) bool {
	_, err := b.Extension(alias)
	return err == nil
}

// Extensions returns the registered extensions in registration order.
func (b *Builder) Extensions() []Extension {
	return append([]Extension(nil), b.extensions...)
}

// LoadFromExtension queues config for the extension alias. Queued blocks
// are handed to the extension when the builder compiles.
func (b *Builder) LoadFromExtension(alias string, config map[string]any) error {
	if b.frozen {
		return &FrozenError{Op: "load from an extension"}
	}
	if _, err := b.Extension(alias); err != nil {
		return err
	}
	if config == nil {
		config = map[string]any{}
	}
	b.extensionConfigs[alias] = append(b.extensionConfigs[alias], config)
	return nil
}

// ExtensionConfig returns the config blocks queued for alias.
func (b *Builder) ExtensionConfig(alias string) []map[string]any {
	return append([]map[string]any(nil), b.extensionConfigs[alias]...)
}

// PrependExtensionConfig queues config ahead of the blocks already
// queued for alias.
func (b *Builder) PrependExtensionConfig(alias string, config map[string]any) {
	b.extensionConfigs[alias] = append([]map[string]any{config}, b.extensionConfigs[alias]...)
}

// AddCompilerPass registers a pass to run in phase typ.
func (b *Builder) AddCompilerPass(pass CompilerPass, typ PassType) {
	if typ == "" {
		typ = PassBeforeOptimization
	}
	b.passes = append(b.passes, PassEntry{Pass: pass, Type: typ})
}

// CompilerPasses returns the passes registered with AddCompilerPass.
func (b *Builder) CompilerPasses() []PassEntry {
	return append([]PassEntry(nil), b.passes...)
}

// Classes returns the class registry used for instantiation.
func (b *Builder) Classes() *ClassRegistry {
	return b.classes
}

// RegisterCallable registers a configurator function addressed by name.
func (b *Builder) RegisterCallable(name string, fn func(svc any) error) {
	b.callables[name] = fn
}

// SetFileHook sets the function receiving a definition's file before the
// service is constructed.
func (b *Builder) SetFileHook(fn func(path string) error) {
	b.fileHook = fn
}

// Merge copies the definitions, aliases and queued extension configs of
// other into b. Parameters already set on b win over those of other.
func (b *Builder) Merge(other *Builder) error {
	if b.frozen {
		return &FrozenError{Op: "merge"}
	}
	if err := b.AddDefinitions(other.Specs()); err != nil {
		return err
	}
	if err := b.AddAliases(other.Aliases()); err != nil {
		return err
	}
	for name, v := range other.ParameterBag().All() {
		if !b.parameters.Has(name) {
			if err := b.parameters.Set(name, v); err != nil {
				return err
			}
		}
	}
	for _, ext := range b.extensions {
		alias := ext.Alias()
		b.extensionConfigs[alias] = append(b.extensionConfigs[alias], other.extensionConfigs[alias]...)
	}
	return nil
}

// FindTaggedServiceIDs returns, for every definition carrying tag, the
// attribute sets of its occurrences.
func (b *Builder) FindTaggedServiceIDs(tag string) map[string][]map[string]any {
	out := make(map[string][]map[string]any)
	for id, spec := range b.definitions {
		if attrs := spec.Base().Tag(tag); attrs != nil {
			out[id] = attrs
		}
	}
	return out
}

// Compile runs c over the builder, then resolves and freezes the
// parameters. Nothing is frozen when c fails.
func (b *Builder) Compile(c Compiler) error {
	if b.frozen {
		return &FrozenError{Op: "compile"}
	}
	if err := c.Compile(b); err != nil {
		return err
	}
	b.extensionConfigs = make(map[string][]map[string]any)
	if err := b.Freeze(); err != nil {
		return fmt.Errorf("freezing parameters: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
