package definition

import (
	"fmt"
	"sort"
)

// Spec is a service description stored by the builder: either a plain
// *Definition or a *ChildDefinition awaiting inheritance resolution.
type Spec interface {
	// Base returns the definition holding the spec's own attributes.
	Base() *Definition

	spec()
}

// MethodCall is a method invoked on a freshly constructed service.
type MethodCall struct {
	Method    string
	Arguments []any
}

// Callable configures a service after construction. Exactly one form is
// set: a registered Function, a Method on a referenced Service, or a
// static Method of a Class.
type Callable struct {
	Function string
	Service  *Reference
	Class    string
	Method   string
}

func (c *Callable) String() string {
	switch {
	case c == nil:
		return ""
	case c.Function != "":
		return c.Function
	case c.Service != nil:
		return fmt.Sprintf("@%s::%s", c.Service.ID, c.Method)
	default:
		return fmt.Sprintf("%s::%s", c.Class, c.Method)
	}
}

// Definition is the recipe for one service.
//
// Arguments, method call arguments and property values hold plain values
// (scalars, strings, []any, map[string]any), *Reference values and inline
// *Definition values.
type Definition struct {
	Class string

	// Factory: FactoryMethod on FactoryClass (static) or on the service
	// FactoryService.
	FactoryClass   string
	FactoryMethod  string
	FactoryService string

	Arguments    []any
	Calls        []MethodCall
	Properties   map[string]any
	Tags         map[string][]map[string]any
	File         string
	Configurator *Callable

	Scope     string
	Public    bool
	Synthetic bool
	Abstract  bool
}

// New returns a public, container-scoped definition.
func New(class string, args ...any) *Definition {
	return &Definition{
		Class:     class,
		Arguments: args,
		Scope:     ScopeContainer,
		Public:    true,
	}
}

// Base returns d.
func (d *Definition) Base() *Definition { return d }

func (d *Definition) spec() {}

// AddArgument appends a constructor argument.
func (d *Definition) AddArgument(v any) *Definition {
	d.Arguments = append(d.Arguments, v)
	return d
}

// ReplaceArgument sets the argument at index.
func (d *Definition) ReplaceArgument(index int, v any) error {
	if index < 0 || index >= len(d.Arguments) {
		return fmt.Errorf("argument index %d out of range [0, %d)", index, len(d.Arguments))
	}
	d.Arguments[index] = v
	return nil
}

// AddMethodCall appends a method call.
func (d *Definition) AddMethodCall(method string, args ...any) *Definition {
	d.Calls = append(d.Calls, MethodCall{Method: method, Arguments: args})
	return d
}

// RemoveMethodCall drops every call to method.
func (d *Definition) RemoveMethodCall(method string) *Definition {
	calls := d.Calls[:0]
	for _, c := range d.Calls {
		if c.Method != method {
			calls = append(calls, c)
		}
	}
	d.Calls = calls
	return d
}

// HasMethodCall reports whether method is called at least once.
func (d *Definition) HasMethodCall(method string) bool {
	for _, c := range d.Calls {
		if c.Method == method {
			return true
		}
	}
	return false
}

// SetProperty sets a property assigned after construction.
func (d *Definition) SetProperty(name string, v any) *Definition {
	if d.Properties == nil {
		d.Properties = make(map[string]any)
	}
	d.Properties[name] = v
	return d
}

// AddTag appends one occurrence of tag name with the given attributes.
func (d *Definition) AddTag(name string, attrs map[string]any) *Definition {
	if d.Tags == nil {
		d.Tags = make(map[string][]map[string]any)
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	d.Tags[name] = append(d.Tags[name], attrs)
	return d
}

// Tag returns every attribute set of tag name.
func (d *Definition) Tag(name string) []map[string]any {
	return d.Tags[name]
}

// HasTag reports whether the definition carries tag name.
func (d *Definition) HasTag(name string) bool {
	_, ok := d.Tags[name]
	return ok
}

// ClearTag removes tag name.
func (d *Definition) ClearTag(name string) *Definition {
	delete(d.Tags, name)
	return d
}

// TagNames returns the tag names in sorted order.
func (d *Definition) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for name := range d.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of d. Nested lists and maps are copied; references
// and inline definitions are shared.
func (d *Definition) Clone() *Definition {
	c := *d
	c.Arguments = cloneList(d.Arguments)
	if d.Calls != nil {
		c.Calls = make([]MethodCall, len(d.Calls))
		for i, call := range d.Calls {
			c.Calls[i] = MethodCall{Method: call.Method, Arguments: cloneList(call.Arguments)}
		}
	}
	c.Properties = cloneMap(d.Properties)
	if d.Tags != nil {
		c.Tags = make(map[string][]map[string]any, len(d.Tags))
		for name, occurrences := range d.Tags {
			list := make([]map[string]any, len(occurrences))
			for i, attrs := range occurrences {
				list[i] = cloneMap(attrs)
			}
			c.Tags[name] = list
		}
	}
	if d.Configurator != nil {
		cfg := *d.Configurator
		c.Configurator = &cfg
	}
	return &c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []any:
		return cloneList(v)
	case map[string]any:
		return cloneMap(v)
	default:
		return v
	}
}

func cloneList(list []any) []any {
	if list == nil {
		return nil
	}
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}
