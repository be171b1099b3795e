package compiler

import (
	"log/slog"

	"github.com/roach88/kiln/internal/container"
)

// CompilerAware is implemented by passes that use the reference graph or
// the compile log. The compiler hands itself over before Process runs.
type CompilerAware interface {
	SetCompiler(c *Compiler)
}

// Compiler drives the passes of a PassConfig over a builder.
type Compiler struct {
	passConfig *PassConfig
	graph      *ServiceReferenceGraph
	formatter  LoggingFormatter
	log        []string
	logger     *slog.Logger
}

var _ container.Compiler = (*Compiler)(nil)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithPassConfig replaces the default pass configuration.
func WithPassConfig(p *PassConfig) Option {
	return func(c *Compiler) { c.passConfig = p }
}

// New returns a compiler with the default pass configuration.
func New(opts ...Option) *Compiler {
	c := &Compiler{graph: NewServiceReferenceGraph()}
	for _, opt := range opts {
		opt(c)
	}
	if c.passConfig == nil {
		c.passConfig = NewPassConfig()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// PassConfig returns the pass configuration.
func (c *Compiler) PassConfig() *PassConfig {
	return c.passConfig
}

// AddPass registers pass in phase typ.
func (c *Compiler) AddPass(pass container.CompilerPass, typ container.PassType) error {
	return c.passConfig.AddPass(pass, typ)
}

// ServiceReferenceGraph returns the graph shared by the analysis passes.
func (c *Compiler) ServiceReferenceGraph() *ServiceReferenceGraph {
	return c.graph
}

// LoggingFormatter returns the formatter for log messages.
func (c *Compiler) LoggingFormatter() LoggingFormatter {
	return c.formatter
}

// AddLogMessage appends msg to the compile log.
func (c *Compiler) AddLogMessage(msg string) {
	c.log = append(c.log, msg)
	c.logger.Debug("compiler log", "message", msg)
}

// Log returns the compile log in order.
func (c *Compiler) Log() []string {
	return append([]string(nil), c.log...)
}

// Logger returns the structured logger.
func (c *Compiler) Logger() *slog.Logger {
	return c.logger
}

// Compile runs every pass over b. Passes registered on b with
// AddCompilerPass join their phase after the default ones. The first
// failing pass aborts the compilation.
func (c *Compiler) Compile(b *container.Builder) error {
	cfg := c.passConfig.clone()
	for _, entry := range b.CompilerPasses() {
		if err := cfg.AddPass(entry.Pass, entry.Type); err != nil {
			return err
		}
	}

	passes := cfg.Passes()
	c.logger.Debug("compiling container", "passes", len(passes), "definitions", len(b.DefinitionIDs()))
	for _, pass := range passes {
		if aware, ok := pass.(CompilerAware); ok {
			aware.SetCompiler(c)
		}
		c.logger.Debug("running compiler pass", "pass", PassName(pass))
		if err := pass.Process(b); err != nil {
			c.logger.Debug("compiler pass failed", "pass", PassName(pass), "error", err)
			return err
		}
	}
	c.logger.Debug("container compiled", "definitions", len(b.DefinitionIDs()), "aliases", len(b.AliasIDs()), "log", len(c.log))
	return nil
}

// Compile compiles and freezes b with a new compiler, which is returned
// for its log and graph.
func Compile(b *container.Builder, opts ...Option) (*Compiler, error) {
	c := New(opts...)
	return c, b.Compile(c)
}

// compilerRef is embedded by passes that need the running compiler.
type compilerRef struct {
	compiler *Compiler
}

// SetCompiler implements CompilerAware.
func (r *compilerRef) SetCompiler(c *Compiler) {
	r.compiler = c
}

// current returns the compiler, creating a private one for passes run on
// their own.
func (r *compilerRef) current() *Compiler {
	if r.compiler == nil {
		r.compiler = New()
	}
	return r.compiler
}

func (r *compilerRef) addLog(msg string) {
	r.current().AddLogMessage(msg)
}
