package compiler

import (
	"log/slog"
	"testing"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/parameter"
	"github.com/roach88/kiln/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newBuilder(params map[string]any) *container.Builder {
	return container.NewBuilder(
		container.WithParameters(parameter.NewBag(params)),
		container.WithClasses(testutil.Classes()),
		container.WithLogger(discardLogger()),
	)
}

// runPasses runs passes in order with one shared compiler, without the
// rest of the pipeline.
func runPasses(t *testing.T, b *container.Builder, passes ...container.CompilerPass) (*Compiler, error) {
	t.Helper()
	c := New(WithLogger(discardLogger()))
	for _, p := range passes {
		if aware, ok := p.(CompilerAware); ok {
			aware.SetCompiler(c)
		}
		if err := p.Process(b); err != nil {
			return c, err
		}
	}
	return c, nil
}

type passFunc func(b *container.Builder) error

func (f passFunc) Process(b *container.Builder) error { return f(b) }
