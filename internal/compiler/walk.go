package compiler

import (
	"errors"
	"sort"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

// leafFunc replaces one value found inside a definition. Lists and maps
// are never passed; their elements are.
type leafFunc func(v any) (any, error)

// mapValue rebuilds v with every leaf replaced by fn. Lists and maps are
// copied.
func mapValue(v any, fn leafFunc) (any, error) {
	switch v := v.(type) {
	case []any:
		return mapList(v, fn)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := mapValue(item, fn)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return fn(v)
	}
}

func mapList(list []any, fn leafFunc) ([]any, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]any, len(list))
	for i, item := range list {
		r, err := mapValue(item, fn)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// mapDefinition rewrites the arguments, method call arguments and property
// values of d in place.
func mapDefinition(d *definition.Definition, fn leafFunc) error {
	args, err := mapList(d.Arguments, fn)
	if err != nil {
		return err
	}
	d.Arguments = args

	for i, call := range d.Calls {
		callArgs, err := mapList(call.Arguments, fn)
		if err != nil {
			return err
		}
		d.Calls[i].Arguments = callArgs
	}

	for name, v := range d.Properties {
		r, err := mapValue(v, fn)
		if err != nil {
			return err
		}
		d.Properties[name] = r
	}
	return nil
}

// walkValue calls fn for every leaf of v.
func walkValue(v any, fn func(v any) error) error {
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if err := walkValue(item, fn); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			if err := walkValue(v[k], fn); err != nil {
				return err
			}
		}
	default:
		return fn(v)
	}
	return nil
}

// walkDefinition calls fn for every leaf of the arguments, method call
// arguments and property values of d.
func walkDefinition(d *definition.Definition, fn func(v any) error) error {
	if err := walkValue(d.Arguments, fn); err != nil {
		return err
	}
	for _, call := range d.Calls {
		if err := walkValue(call.Arguments, fn); err != nil {
			return err
		}
	}
	return walkValue(d.Properties, fn)
}

// resolveAliasID follows aliases from id to the identifier they end at.
func resolveAliasID(b *container.Builder, id string) (string, error) {
	var path []string
	for b.HasAlias(id) {
		for _, seen := range path {
			if seen == id {
				return "", &container.CircularReferenceError{ID: path[0], Path: append(path, id)}
			}
		}
		path = append(path, id)
		a, err := b.Alias(id)
		if err != nil {
			return "", err
		}
		id = a.ID
	}
	return id, nil
}

// plainDefinition returns the definition of id, or nil when id is not a
// plain definition.
func plainDefinition(b *container.Builder, id string) *definition.Definition {
	d, err := b.Definition(id)
	if err != nil {
		return nil
	}
	return d
}

// errSkip drops the enclosing method call or property.
var errSkip = errors.New("skip")

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
