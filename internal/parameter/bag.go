package parameter

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/roach88/kiln/internal/definition"
)

// Bag is the parameter store used by containers.
type Bag interface {
	Get(name string) (any, error)
	Has(name string) bool
	Set(name string, value any) error
	Add(params map[string]any) error
	Remove(name string) error
	Clear() error

	// All returns a copy of every parameter keyed by normalized name.
	All() map[string]any

	// ResolveValue substitutes placeholders in v without unescaping %%.
	ResolveValue(v any) (any, error)

	// Resolve resolves and unescapes every parameter in place.
	Resolve() error
	IsResolved() bool
}

// ParameterBag is the mutable Bag implementation.
type ParameterBag struct {
	params   map[string]any
	resolved bool
}

var _ Bag = (*ParameterBag)(nil)

// NewBag returns a bag holding params.
func NewBag(params map[string]any) *ParameterBag {
	b := &ParameterBag{params: make(map[string]any, len(params))}
	for k, v := range params {
		b.params[definition.NormalizeID(k)] = v
	}
	return b
}

// Get returns the raw value of name.
func (b *ParameterBag) Get(name string) (any, error) {
	key := definition.NormalizeID(name)
	v, ok := b.params[key]
	if !ok {
		return nil, &NotFoundError{Key: key, Alternatives: b.alternatives(key)}
	}
	return v, nil
}

// Has reports whether name is set.
func (b *ParameterBag) Has(name string) bool {
	_, ok := b.params[definition.NormalizeID(name)]
	return ok
}

// Set stores value under name.
func (b *ParameterBag) Set(name string, value any) error {
	b.params[definition.NormalizeID(name)] = value
	return nil
}

// Add stores every entry of params, overwriting existing ones.
func (b *ParameterBag) Add(params map[string]any) error {
	for k, v := range params {
		b.params[definition.NormalizeID(k)] = v
	}
	return nil
}

// Remove deletes name.
func (b *ParameterBag) Remove(name string) error {
	delete(b.params, definition.NormalizeID(name))
	return nil
}

// Clear deletes every parameter.
func (b *ParameterBag) Clear() error {
	b.params = make(map[string]any)
	return nil
}

// All returns a shallow copy of the parameters.
func (b *ParameterBag) All() map[string]any {
	out := make(map[string]any, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (b *ParameterBag) Keys() []string {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsResolved reports whether Resolve has completed.
func (b *ParameterBag) IsResolved() bool {
	return b.resolved
}

// Resolve replaces every parameter by its resolved, unescaped value.
// Parameters are visited in name order so failures are deterministic.
func (b *ParameterBag) Resolve() error {
	if b.resolved {
		return nil
	}
	resolved := make(map[string]any, len(b.params))
	for _, key := range b.Keys() {
		v, err := b.resolveValue(b.params[key], []string{key})
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) && nf.SourceKey == "" && nf.SourceID == "" {
				nf.SourceKey = key
			}
			return err
		}
		resolved[key] = UnescapeValue(v)
	}
	b.params = resolved
	b.resolved = true
	return nil
}

// ResolveValue substitutes every placeholder in v, descending into lists
// and into both keys and values of maps.
func (b *ParameterBag) ResolveValue(v any) (any, error) {
	return b.resolveValue(v, nil)
}

func (b *ParameterBag) resolveValue(v any, resolving []string) (any, error) {
	switch v := v.(type) {
	case string:
		return b.resolveString(v, resolving)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := b.resolveValue(item, resolving)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			rk, err := b.resolveString(k, resolving)
			if err != nil {
				return nil, err
			}
			r, err := b.resolveValue(item, resolving)
			if err != nil {
				return nil, err
			}
			key, ok := rk.(string)
			if !ok {
				key, ok = scalarString(rk)
			}
			if !ok {
				name, _ := wholePlaceholder(k)
				return nil, &TypeError{Key: definition.NormalizeID(name), Type: fmt.Sprintf("%T", rk), Value: k}
			}
			out[key] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func (b *ParameterBag) resolveString(s string, resolving []string) (any, error) {
	if strings.IndexByte(s, '%') < 0 {
		return s, nil
	}

	if name, ok := wholePlaceholder(s); ok {
		key := definition.NormalizeID(name)
		next, err := enter(resolving, key)
		if err != nil {
			return nil, err
		}
		v, err := b.Get(key)
		if err != nil {
			return nil, err
		}
		if b.resolved {
			return v, nil
		}
		return b.resolveValue(v, next)
	}

	var out strings.Builder
	for _, seg := range scan(s) {
		if seg.name == "" {
			out.WriteString(seg.literal)
			continue
		}
		key := definition.NormalizeID(seg.name)
		next, err := enter(resolving, key)
		if err != nil {
			return nil, err
		}
		v, err := b.Get(key)
		if err != nil {
			return nil, err
		}
		str, ok := scalarString(v)
		if !ok {
			return nil, &TypeError{Key: key, Type: fmt.Sprintf("%T", v), Value: s}
		}
		if !b.resolved {
			r, err := b.resolveString(str, next)
			if err != nil {
				return nil, err
			}
			if str, ok = scalarString(r); !ok {
				return nil, &TypeError{Key: key, Type: fmt.Sprintf("%T", r), Value: s}
			}
		}
		out.WriteString(str)
	}
	return out.String(), nil
}

// enter returns resolving extended by key, or a CircularReferenceError if
// key is already being resolved.
func enter(resolving []string, key string) ([]string, error) {
	if slices.Contains(resolving, key) {
		path := append(slices.Clone(resolving), key)
		return nil, &CircularReferenceError{Path: path}
	}
	return append(slices.Clone(resolving), key), nil
}

// scalarString formats strings and numbers for embedding.
func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", v), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// alternatives lists parameter names close to key.
func (b *ParameterBag) alternatives(key string) []string {
	return Suggest(key, b.Keys())
}

// Suggest returns the candidates within a third of key's length (plus
// one) in edit distance, or containing key, in sorted order.
func Suggest(key string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if c == key {
			continue
		}
		if levenshtein.Distance(key, c, nil) <= max(1, len(key)/3)+1 || strings.Contains(c, key) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
