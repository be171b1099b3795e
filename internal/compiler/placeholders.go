package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

// ResolveParameterPlaceHoldersPass substitutes parameter placeholders in
// every definition and alias, then resolves the parameter bag itself.
// Escaped percent signs are kept until instantiation.
type ResolveParameterPlaceHoldersPass struct{}

// Process implements container.CompilerPass.
func (p *ResolveParameterPlaceHoldersPass) Process(b *container.Builder) error {
	bag := b.ParameterBag()

	defs := b.Definitions()
	for _, id := range sortedKeys(defs) {
		if err := resolveDefinitionPlaceholders(bag, defs[id]); err != nil {
			var nf *parameter.NotFoundError
			if errors.As(err, &nf) && nf.SourceID == "" && nf.SourceKey == "" {
				nf.SourceID = id
			}
			return err
		}
	}

	aliases := make(map[string]*definition.Alias)
	for id, a := range b.Aliases() {
		name, err := resolveString(bag, id)
		if err != nil {
			return err
		}
		target, err := resolveString(bag, a.ID)
		if err != nil {
			return err
		}
		aliases[name] = definition.NewAlias(target, a.Public)
	}
	if err := b.SetAliases(aliases); err != nil {
		return err
	}

	return bag.Resolve()
}

func resolveDefinitionPlaceholders(bag parameter.Bag, d *definition.Definition) error {
	var err error
	for _, field := range []*string{&d.Class, &d.File, &d.FactoryClass, &d.FactoryMethod, &d.FactoryService} {
		if *field, err = resolveString(bag, *field); err != nil {
			return err
		}
	}
	if d.Configurator != nil {
		if d.Configurator.Class, err = resolveString(bag, d.Configurator.Class); err != nil {
			return err
		}
		if d.Configurator.Method, err = resolveString(bag, d.Configurator.Method); err != nil {
			return err
		}
	}

	for i := range d.Calls {
		if d.Calls[i].Method, err = resolveString(bag, d.Calls[i].Method); err != nil {
			return err
		}
	}

	if d.Arguments, err = resolveList(bag, d.Arguments); err != nil {
		return err
	}
	for i := range d.Calls {
		if d.Calls[i].Arguments, err = resolveList(bag, d.Calls[i].Arguments); err != nil {
			return err
		}
	}
	for name, v := range d.Properties {
		if d.Properties[name], err = resolveArgument(bag, v); err != nil {
			return err
		}
	}
	return nil
}

func resolveList(bag parameter.Bag, list []any) ([]any, error) {
	v, err := resolveArgument(bag, list)
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]any), nil
}

// resolveArgument resolves placeholders in v like Bag.ResolveValue,
// including map keys, and descends into inline definitions.
func resolveArgument(bag parameter.Bag, v any) (any, error) {
	switch v := v.(type) {
	case string:
		return bag.ResolveValue(v)
	case []any:
		if v == nil {
			return nil, nil
		}
		out := make([]any, len(v))
		for i, item := range v {
			r, err := resolveArgument(bag, item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			key, err := resolveString(bag, k)
			if err != nil {
				return nil, err
			}
			r, err := resolveArgument(bag, item)
			if err != nil {
				return nil, err
			}
			out[key] = r
		}
		return out, nil
	case *definition.Definition:
		return v, resolveDefinitionPlaceholders(bag, v)
	default:
		return v, nil
	}
}

// resolveString resolves a string field; non-string results are
// formatted.
func resolveString(bag parameter.Bag, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	v, err := bag.ResolveValue(s)
	if err != nil {
		return "", err
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return fmt.Sprint(v), nil
}
