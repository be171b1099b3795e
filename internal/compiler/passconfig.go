package compiler

import (
	"fmt"

	"github.com/roach88/kiln/internal/container"
)

// PassConfig holds the passes of every phase in execution order.
type PassConfig struct {
	merge          container.CompilerPass
	before         []container.CompilerPass
	optimize       []container.CompilerPass
	beforeRemoving []container.CompilerPass
	removing       []container.CompilerPass
	afterRemoving  []container.CompilerPass
}

// NewPassConfig returns the default pipeline.
func NewPassConfig() *PassConfig {
	return &PassConfig{
		merge: &MergeExtensionConfigurationPass{},
		before: []container.CompilerPass{
			&ResolveDefinitionTemplatesPass{},
			&ResolveParameterPlaceHoldersPass{},
			&CheckDefinitionValidityPass{},
		},
		optimize: []container.CompilerPass{
			NewRepeatedPass(
				&ResolveReferencesToAliasesPass{},
				&ResolveInvalidReferencesPass{},
				NewAnalyzeServiceReferencesPass(true),
				&CheckCircularReferencesPass{},
				&CheckReferenceValidityPass{},
				&RemovePrivateAliasesPass{},
			),
		},
		removing: []container.CompilerPass{
			NewRepeatedPass(
				NewAnalyzeServiceReferencesPass(false),
				&InlineServiceDefinitionsPass{},
				NewAnalyzeServiceReferencesPass(false),
				&RemoveUnusedDefinitionsPass{},
			),
		},
		afterRemoving: []container.CompilerPass{
			&ReplaceAliasByActualDefinitionPass{},
			&RemoveAbstractDefinitionsPass{},
			&CheckExceptionOnInvalidReferenceBehaviorPass{},
		},
	}
}

// Passes returns every pass in execution order. The after-removing passes
// appear twice: once in their own slot and once more at the very end.
func (p *PassConfig) Passes() []container.CompilerPass {
	var out []container.CompilerPass
	if p.merge != nil {
		out = append(out, p.merge)
	}
	out = append(out, p.before...)
	out = append(out, p.optimize...)
	out = append(out, p.beforeRemoving...)
	out = append(out, p.removing...)
	out = append(out, p.afterRemoving...)
	out = append(out, p.afterRemoving...)
	return out
}

// MergePass returns the pass run first.
func (p *PassConfig) MergePass() container.CompilerPass {
	return p.merge
}

// SetMergePass replaces the merge pass.
func (p *PassConfig) SetMergePass(pass container.CompilerPass) {
	p.merge = pass
}

// PhasePasses returns the passes of phase typ.
func (p *PassConfig) PhasePasses(typ container.PassType) ([]container.CompilerPass, error) {
	bag, err := p.bag(typ)
	if err != nil {
		return nil, err
	}
	return append([]container.CompilerPass(nil), *bag...), nil
}

// SetPhasePasses replaces the passes of phase typ.
func (p *PassConfig) SetPhasePasses(typ container.PassType, passes []container.CompilerPass) error {
	bag, err := p.bag(typ)
	if err != nil {
		return err
	}
	*bag = append([]container.CompilerPass(nil), passes...)
	return nil
}

// AddPass appends pass to phase typ. An empty typ means before
// optimization.
func (p *PassConfig) AddPass(pass container.CompilerPass, typ container.PassType) error {
	if typ == "" {
		typ = container.PassBeforeOptimization
	}
	bag, err := p.bag(typ)
	if err != nil {
		return err
	}
	*bag = append(*bag, pass)
	return nil
}

func (p *PassConfig) bag(typ container.PassType) (*[]container.CompilerPass, error) {
	switch typ {
	case container.PassBeforeOptimization:
		return &p.before, nil
	case container.PassOptimize:
		return &p.optimize, nil
	case container.PassBeforeRemoving:
		return &p.beforeRemoving, nil
	case container.PassRemove:
		return &p.removing, nil
	case container.PassAfterRemoving:
		return &p.afterRemoving, nil
	default:
		return nil, invalid(ErrUnknownPassType, string(typ), "invalid pass type %q", string(typ))
	}
}

func (p *PassConfig) clone() *PassConfig {
	return &PassConfig{
		merge:          p.merge,
		before:         append([]container.CompilerPass(nil), p.before...),
		optimize:       append([]container.CompilerPass(nil), p.optimize...),
		beforeRemoving: append([]container.CompilerPass(nil), p.beforeRemoving...),
		removing:       append([]container.CompilerPass(nil), p.removing...),
		afterRemoving:  append([]container.CompilerPass(nil), p.afterRemoving...),
	}
}

// String lists the pass names, for debugging.
func (p *PassConfig) String() string {
	names := make([]string, 0, len(p.Passes()))
	for _, pass := range p.Passes() {
		names = append(names, PassName(pass))
	}
	return fmt.Sprint(names)
}
