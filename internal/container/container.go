package container

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

// Factory constructs one service. It receives the container so it can
// fetch its own dependencies.
type Factory func(c *Container) (any, error)

type factoryEntry struct {
	fn    Factory
	scope string
}

// definitionSource lets a Builder construct services the container knows
// nothing about.
type definitionSource interface {
	hasDefinition(id string) bool

	// create constructs id from its definition. found is false when id has
	// no definition.
	create(id string) (svc any, found bool, err error)
}

// Container resolves services and parameters.
//
// A Container is not safe for concurrent use.
type Container struct {
	parameters parameter.Bag
	services   map[string]any
	factories  map[string]factoryEntry
	aliases    map[string]*definition.Alias

	// loading is the stack of identifiers under construction.
	loading []string

	scopes         map[string]string
	scopeChildren  map[string][]string
	scopedServices map[string]map[string]any
	scopeStacks    map[string][]map[string]map[string]any

	source definitionSource
	frozen bool
	logger *slog.Logger
}

// Option configures a Container or Builder.
type Option func(*options)

type options struct {
	parameters parameter.Bag
	classes    *ClassRegistry
	logger     *slog.Logger
}

// WithParameters sets the parameter bag.
func WithParameters(bag parameter.Bag) Option {
	return func(o *options) { o.parameters = bag }
}

// WithClasses sets the class registry used to instantiate definitions.
func WithClasses(r *ClassRegistry) Option {
	return func(o *options) { o.classes = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parameters == nil {
		o.parameters = parameter.NewBag(nil)
	}
	if o.classes == nil {
		o.classes = NewClassRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New returns an empty container.
func New(opts ...Option) *Container {
	return newContainer(buildOptions(opts))
}

func newContainer(o options) *Container {
	return &Container{
		parameters:     o.parameters,
		services:       make(map[string]any),
		factories:      make(map[string]factoryEntry),
		aliases:        make(map[string]*definition.Alias),
		scopes:         make(map[string]string),
		scopeChildren:  make(map[string][]string),
		scopedServices: make(map[string]map[string]any),
		scopeStacks:    make(map[string][]map[string]map[string]any),
		logger:         o.logger,
	}
}

// ParameterBag returns the parameter bag.
func (c *Container) ParameterBag() parameter.Bag {
	return c.parameters
}

// Parameter returns the value of parameter name.
func (c *Container) Parameter(name string) (any, error) {
	return c.parameters.Get(name)
}

// HasParameter reports whether parameter name exists.
func (c *Container) HasParameter(name string) bool {
	return c.parameters.Has(name)
}

// SetParameter sets parameter name. It fails once the container is frozen.
func (c *Container) SetParameter(name string, value any) error {
	return c.parameters.Set(name, value)
}

// Freeze resolves every parameter and replaces the bag with a read-only
// snapshot.
func (c *Container) Freeze() error {
	if err := c.parameters.Resolve(); err != nil {
		return err
	}
	c.parameters = parameter.NewFrozenBag(c.parameters.All())
	c.frozen = true
	return nil
}

// IsFrozen reports whether Freeze has completed.
func (c *Container) IsFrozen() bool {
	return c.frozen
}

// Set stores a container-scoped service instance.
func (c *Container) Set(id string, svc any) error {
	return c.SetInScope(id, svc, definition.ScopeContainer)
}

// SetInScope stores a service instance in scope, which must be active.
func (c *Container) SetInScope(id string, svc any, scope string) error {
	if scope == definition.ScopePrototype {
		return &ConfigError{ID: id, Message: `cannot set services of scope "prototype"`}
	}
	id = definition.NormalizeID(id)
	if scope != definition.ScopeContainer {
		scoped, ok := c.scopedServices[scope]
		if !ok {
			return &InactiveScopeError{Scope: scope, ID: id}
		}
		scoped[id] = svc
	}
	c.services[id] = svc
	return nil
}

// SetFactory registers the constructor of id. Instances are shared within
// scope: "container" caches forever, "prototype" never caches, and a named
// scope caches until the scope is left.
func (c *Container) SetFactory(id string, scope string, fn Factory) error {
	if scope == "" {
		scope = definition.ScopeContainer
	}
	if scope != definition.ScopeContainer && scope != definition.ScopePrototype && !c.HasScope(scope) {
		return &ConfigError{ID: id, Message: fmt.Sprintf("scope %q does not exist", scope)}
	}
	c.factories[definition.NormalizeID(id)] = factoryEntry{fn: fn, scope: scope}
	return nil
}

// SetAlias makes alias resolve to target.
func (c *Container) SetAlias(alias, target string) error {
	alias = definition.NormalizeID(alias)
	a := definition.NewAlias(target, true)
	if alias == a.ID {
		return &ConfigError{ID: alias, Message: "an alias cannot reference itself"}
	}
	c.aliases[alias] = a
	return nil
}

// Has reports whether id resolves to a service, set or constructible.
func (c *Container) Has(id string) bool {
	id, err := c.resolveAlias(definition.NormalizeID(id))
	if err != nil {
		return false
	}
	if _, ok := c.services[id]; ok {
		return true
	}
	if _, ok := c.factories[id]; ok {
		return true
	}
	return c.source != nil && c.source.hasDefinition(id)
}

// Initialized reports whether an instance of id is currently cached.
func (c *Container) Initialized(id string) bool {
	id, err := c.resolveAlias(definition.NormalizeID(id))
	if err != nil {
		return false
	}
	_, ok := c.services[id]
	return ok
}

// ServiceIDs returns the identifiers of every set service, factory and
// definition known to the container, sorted.
func (c *Container) ServiceIDs() []string {
	seen := make(map[string]bool)
	for id := range c.services {
		seen[id] = true
	}
	for id := range c.factories {
		seen[id] = true
	}
	if b, ok := c.source.(*Builder); ok {
		for id := range b.definitions {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the service id, failing if it does not exist.
func (c *Container) Get(id string) (any, error) {
	return c.GetWithBehavior(id, definition.ExceptionOnInvalidReference)
}

// GetWithBehavior returns the service id. When id does not exist it fails
// for ExceptionOnInvalidReference and returns nil otherwise.
func (c *Container) GetWithBehavior(id string, invalid definition.InvalidBehavior) (any, error) {
	id, err := c.resolveAlias(definition.NormalizeID(id))
	if err != nil {
		return nil, err
	}

	if svc, ok := c.services[id]; ok {
		return svc, nil
	}

	if slices.Contains(c.loading, id) {
		return nil, &CircularReferenceError{ID: id, Path: append(slices.Clone(c.loading), id)}
	}

	if entry, ok := c.factories[id]; ok {
		return c.fromFactory(id, entry)
	}

	if c.source != nil {
		svc, found, err := c.source.create(id)
		if found {
			return svc, err
		}
	}

	if invalid == definition.ExceptionOnInvalidReference {
		return nil, &ServiceNotFoundError{ID: id, Alternatives: parameter.Suggest(id, c.ServiceIDs())}
	}
	return nil, nil
}

func (c *Container) fromFactory(id string, entry factoryEntry) (any, error) {
	if err := c.checkScope(id, entry.scope); err != nil {
		return nil, err
	}

	c.enter(id)
	svc, err := entry.fn(c)
	c.leave()
	if err != nil {
		return nil, err
	}

	c.store(id, entry.scope, svc)
	return svc, nil
}

// enter pushes id on the loading stack.
func (c *Container) enter(id string) {
	c.loading = append(c.loading, id)
	c.logger.Debug("constructing service", "id", id, "depth", len(c.loading))
}

// leave pops the loading stack.
func (c *Container) leave() {
	c.loading = c.loading[:len(c.loading)-1]
}

// checkScope fails when scope is a named scope that is not active.
func (c *Container) checkScope(id, scope string) error {
	if scope == definition.ScopeContainer || scope == definition.ScopePrototype {
		return nil
	}
	if !c.IsScopeActive(scope) {
		return &InactiveScopeError{Scope: scope, ID: id}
	}
	return nil
}

// store caches svc according to scope.
func (c *Container) store(id, scope string, svc any) {
	if id == "" || scope == definition.ScopePrototype {
		return
	}
	c.services[id] = svc
	if scope != definition.ScopeContainer {
		c.scopedServices[scope][id] = svc
	}
}

// unstore drops a cached instance whose setup failed.
func (c *Container) unstore(id, scope string) {
	if id == "" {
		return
	}
	delete(c.services, id)
	if scoped, ok := c.scopedServices[scope]; ok {
		delete(scoped, id)
	}
}

// resolveAlias follows alias chains to their final identifier.
func (c *Container) resolveAlias(id string) (string, error) {
	var path []string
	for {
		a, ok := c.aliases[id]
		if !ok {
			return id, nil
		}
		if slices.Contains(path, id) {
			return "", &CircularReferenceError{ID: path[0], Path: append(path, id)}
		}
		path = append(path, id)
		id = a.ID
	}
}
