package container

// Extension loads a configuration namespace into a builder.
type Extension interface {
	// Alias is the configuration namespace, e.g. "framework".
	Alias() string

	// Load receives every config block registered for Alias, in order.
	Load(configs []map[string]any, b *Builder) error
}

// PrependExtension can inject configuration for other extensions before
// any extension is loaded.
type PrependExtension interface {
	Extension
	Prepend(b *Builder) error
}

// CompilerPass is one step of a compilation.
type CompilerPass interface {
	Process(b *Builder) error
}

// PassType selects the phase a compiler pass runs in.
type PassType string

// Pass phases, in execution order after the merge pass.
const (
	PassBeforeOptimization PassType = "beforeOptimization"
	PassOptimize           PassType = "optimization"
	PassBeforeRemoving     PassType = "beforeRemoving"
	PassRemove             PassType = "removing"
	PassAfterRemoving      PassType = "afterRemoving"
)

// PassEntry is a compiler pass registered on a builder.
type PassEntry struct {
	Pass CompilerPass
	Type PassType
}

// Compiler runs the compilation pipeline over a builder.
type Compiler interface {
	Compile(b *Builder) error
}
