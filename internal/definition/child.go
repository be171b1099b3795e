package definition

// Attribute names tracked as changed on a ChildDefinition.
const (
	AttrClass          = "class"
	AttrFactoryClass   = "factory_class"
	AttrFactoryMethod  = "factory_method"
	AttrFactoryService = "factory_service"
	AttrConfigurator   = "configurator"
	AttrFile           = "file"
	AttrPublic         = "public"
)

// ChildDefinition inherits every attribute of its Parent and overrides the
// ones changed through its setters.
//
// Arguments appended with AddArgument follow the parent's arguments.
// ReplaceArgument overrides a parent argument by index. Properties are
// merged over the parent's, and method calls are appended after the
// parent's. Scope, Abstract, Synthetic and Tags always come from the child.
type ChildDefinition struct {
	Definition

	Parent string

	changes   map[string]bool
	overrides map[int]any
}

// NewChildDefinition returns a child of the definition parent.
func NewChildDefinition(parent string) *ChildDefinition {
	return &ChildDefinition{
		Definition: Definition{Scope: ScopeContainer, Public: true},
		Parent:     NormalizeID(parent),
		changes:    make(map[string]bool),
		overrides:  make(map[int]any),
	}
}

// Base returns the child's own attributes.
func (c *ChildDefinition) Base() *Definition { return &c.Definition }

func (c *ChildDefinition) spec() {}

func (c *ChildDefinition) mark(attr string) {
	if c.changes == nil {
		c.changes = make(map[string]bool)
	}
	c.changes[attr] = true
}

// SetClass overrides the parent's class.
func (c *ChildDefinition) SetClass(class string) *ChildDefinition {
	c.Class = class
	c.mark(AttrClass)
	return c
}

// SetFactoryClass overrides the parent's factory class.
func (c *ChildDefinition) SetFactoryClass(class string) *ChildDefinition {
	c.FactoryClass = class
	c.mark(AttrFactoryClass)
	return c
}

// SetFactoryMethod overrides the parent's factory method.
func (c *ChildDefinition) SetFactoryMethod(method string) *ChildDefinition {
	c.FactoryMethod = method
	c.mark(AttrFactoryMethod)
	return c
}

// SetFactoryService overrides the parent's factory service.
func (c *ChildDefinition) SetFactoryService(id string) *ChildDefinition {
	c.FactoryService = id
	c.mark(AttrFactoryService)
	return c
}

// SetConfigurator overrides the parent's configurator.
func (c *ChildDefinition) SetConfigurator(cfg *Callable) *ChildDefinition {
	c.Configurator = cfg
	c.mark(AttrConfigurator)
	return c
}

// SetFile overrides the parent's file.
func (c *ChildDefinition) SetFile(file string) *ChildDefinition {
	c.File = file
	c.mark(AttrFile)
	return c
}

// SetPublic overrides the parent's visibility.
func (c *ChildDefinition) SetPublic(public bool) *ChildDefinition {
	c.Public = public
	c.mark(AttrPublic)
	return c
}

// ReplaceArgument overrides the inherited argument at index. Unlike
// Definition.ReplaceArgument the index is checked during resolution, when
// the parent's arguments are known.
func (c *ChildDefinition) ReplaceArgument(index int, v any) *ChildDefinition {
	if c.overrides == nil {
		c.overrides = make(map[int]any)
	}
	c.overrides[index] = v
	return c
}

// Changed reports whether attr was set on the child.
func (c *ChildDefinition) Changed(attr string) bool {
	return c.changes[attr]
}

// Changes returns the names of the changed attributes.
func (c *ChildDefinition) Changes() map[string]bool {
	out := make(map[string]bool, len(c.changes))
	for k, v := range c.changes {
		out[k] = v
	}
	return out
}

// ArgumentOverrides returns the sparse index -> value overrides.
func (c *ChildDefinition) ArgumentOverrides() map[int]any {
	out := make(map[int]any, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}
