package compiler

import (
	"fmt"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/parameter"
)

// MergeExtensionConfigurationPass loads every extension with the config
// blocks queued for it.
//
// Extensions implementing container.PrependExtension run their Prepend
// first, so they can queue configuration for other extensions. Each
// extension then loads into a scratch builder seeded with the current
// parameters, which is merged back. Definitions, aliases and parameters
// that existed before the pass win over those produced by extensions.
type MergeExtensionConfigurationPass struct{}

// Process implements container.CompilerPass.
func (p *MergeExtensionConfigurationPass) Process(b *container.Builder) error {
	params := b.ParameterBag().All()
	specs := b.Specs()
	aliases := b.Aliases()

	for _, ext := range b.Extensions() {
		if pre, ok := ext.(container.PrependExtension); ok {
			if err := pre.Prepend(b); err != nil {
				return fmt.Errorf("prepending extension %q: %w", ext.Alias(), err)
			}
		}
	}

	for _, ext := range b.Extensions() {
		raw := b.ExtensionConfig(ext.Alias())
		if len(raw) == 0 {
			continue
		}

		configs := make([]map[string]any, len(raw))
		for i, cfg := range raw {
			resolved, err := b.ParameterBag().ResolveValue(cfg)
			if err != nil {
				return fmt.Errorf("resolving configuration of extension %q: %w", ext.Alias(), err)
			}
			configs[i] = resolved.(map[string]any)
		}

		tmp := container.NewBuilder(
			container.WithParameters(parameter.NewBag(b.ParameterBag().All())),
			container.WithClasses(b.Classes()),
		)
		if err := ext.Load(configs, tmp); err != nil {
			return fmt.Errorf("loading extension %q: %w", ext.Alias(), err)
		}
		if err := b.Merge(tmp); err != nil {
			return err
		}
	}

	if err := b.AddDefinitions(specs); err != nil {
		return err
	}
	if err := b.AddAliases(aliases); err != nil {
		return err
	}
	return b.ParameterBag().Add(params)
}
