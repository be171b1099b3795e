package compiler

import (
	"github.com/roach88/kiln/internal/container"
)

// RepeatedPassAware is implemented by passes that may request another
// iteration of their enclosing RepeatedPass.
type RepeatedPassAware interface {
	SetRepeatedPass(r *RepeatedPass)
}

// RepeatedPass runs its passes in order, again and again, until an
// iteration completes without any of them calling SetRepeat.
type RepeatedPass struct {
	passes []container.CompilerPass
	repeat bool
}

// NewRepeatedPass groups passes.
func NewRepeatedPass(passes ...container.CompilerPass) *RepeatedPass {
	r := &RepeatedPass{passes: passes}
	for _, p := range passes {
		if aware, ok := p.(RepeatedPassAware); ok {
			aware.SetRepeatedPass(r)
		}
	}
	return r
}

// Passes returns the grouped passes.
func (r *RepeatedPass) Passes() []container.CompilerPass {
	return append([]container.CompilerPass(nil), r.passes...)
}

// SetRepeat requests another iteration.
func (r *RepeatedPass) SetRepeat() {
	r.repeat = true
}

// SetCompiler hands c to every grouped pass that wants it.
func (r *RepeatedPass) SetCompiler(c *Compiler) {
	for _, p := range r.passes {
		if aware, ok := p.(CompilerAware); ok {
			aware.SetCompiler(c)
		}
	}
}

// Process implements container.CompilerPass.
func (r *RepeatedPass) Process(b *container.Builder) error {
	for {
		r.repeat = false
		for _, p := range r.passes {
			if err := p.Process(b); err != nil {
				return err
			}
		}
		if !r.repeat {
			return nil
		}
	}
}
