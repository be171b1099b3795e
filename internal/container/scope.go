package container

import (
	"fmt"
	"sort"

	"github.com/roach88/kiln/internal/definition"
)

// Scope declares a named lifetime nested under Parent. An empty Parent
// means the container scope.
type Scope struct {
	Name   string
	Parent string
}

// AddScope declares a scope. The built-in names are reserved, names are
// unique, and the parent must already exist.
func (c *Container) AddScope(s Scope) error {
	name, parent := s.Name, s.Parent
	if parent == "" {
		parent = definition.ScopeContainer
	}
	if name == definition.ScopeContainer || name == definition.ScopePrototype {
		return &ConfigError{ID: name, Message: "scope name is reserved"}
	}
	if _, ok := c.scopes[name]; ok {
		return &ConfigError{ID: name, Message: "a scope with this name already exists"}
	}
	if parent != definition.ScopeContainer {
		if _, ok := c.scopes[parent]; !ok {
			return &ConfigError{ID: name, Message: fmt.Sprintf("parent scope %q does not exist, or is invalid", parent)}
		}
	}

	c.scopes[name] = parent
	c.scopeChildren[name] = nil
	for parent != definition.ScopeContainer {
		c.scopeChildren[parent] = append(c.scopeChildren[parent], name)
		parent = c.scopes[parent]
	}
	return nil
}

// HasScope reports whether name has been declared.
func (c *Container) HasScope(name string) bool {
	_, ok := c.scopes[name]
	return ok
}

// IsScopeActive reports whether name has been entered and not left.
func (c *Container) IsScopeActive(name string) bool {
	_, ok := c.scopedServices[name]
	return ok
}

// Scopes returns the declared scopes as name -> parent.
func (c *Container) Scopes() map[string]string {
	out := make(map[string]string, len(c.scopes))
	for k, v := range c.scopes {
		out[k] = v
	}
	return out
}

// ScopeChildren returns every scope's transitive descendants.
func (c *Container) ScopeChildren() map[string][]string {
	out := make(map[string][]string, len(c.scopeChildren))
	for k, v := range c.scopeChildren {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ScopeAncestors returns the parent chain of name, nearest first, ending
// with the container scope.
func (c *Container) ScopeAncestors(name string) []string {
	var out []string
	parent, ok := c.scopes[name]
	for ok {
		out = append(out, parent)
		parent, ok = c.scopes[parent]
	}
	return out
}

// EnterScope activates name. Re-entering an active scope stashes its
// instances and those of its descendants until the matching LeaveScope.
func (c *Container) EnterScope(name string) error {
	parent, ok := c.scopes[name]
	if !ok {
		return &ConfigError{ID: name, Message: "scope does not exist"}
	}
	if parent != definition.ScopeContainer && !c.IsScopeActive(parent) {
		return &InactiveScopeError{Scope: parent}
	}

	if current, active := c.scopedServices[name]; active {
		snapshot := map[string]map[string]any{name: current}
		delete(c.scopedServices, name)
		for _, child := range c.scopeChildren[name] {
			if services, ok := c.scopedServices[child]; ok {
				snapshot[child] = services
				delete(c.scopedServices, child)
			}
		}
		for _, services := range snapshot {
			for id := range services {
				delete(c.services, id)
			}
		}
		c.scopeStacks[name] = append(c.scopeStacks[name], snapshot)
	}

	c.scopedServices[name] = make(map[string]any)
	c.logger.Debug("entered scope", "scope", name, "depth", len(c.scopeStacks[name]))
	return nil
}

// LeaveScope deactivates name and its descendants, dropping their
// instances, then restores the snapshot stashed by the enclosing entry.
func (c *Container) LeaveScope(name string) error {
	current, ok := c.scopedServices[name]
	if !ok {
		return &InactiveScopeError{Scope: name}
	}

	dropped := []map[string]any{current}
	delete(c.scopedServices, name)
	for _, child := range c.scopeChildren[name] {
		if services, ok := c.scopedServices[child]; ok {
			dropped = append(dropped, services)
			delete(c.scopedServices, child)
		}
	}
	for _, services := range dropped {
		for id := range services {
			delete(c.services, id)
		}
	}

	stack := c.scopeStacks[name]
	if len(stack) > 0 {
		snapshot := stack[len(stack)-1]
		c.scopeStacks[name] = stack[:len(stack)-1]

		// Restore in a stable order so overlapping ids resolve the same way.
		scopes := make([]string, 0, len(snapshot))
		for scope := range snapshot {
			scopes = append(scopes, scope)
		}
		sort.Strings(scopes)
		for _, scope := range scopes {
			services := snapshot[scope]
			if _, active := c.scopedServices[scope]; !active {
				c.scopedServices[scope] = services
			}
			for id, svc := range services {
				c.services[id] = svc
			}
		}
	}

	c.logger.Debug("left scope", "scope", name)
	return nil
}
