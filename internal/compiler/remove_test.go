package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

func private(b *container.Builder, id, class string) *definition.Definition {
	d := b.Register(id, class)
	d.Public = false
	return d
}

func TestInlineServiceDefinitions(t *testing.T) {
	b := newBuilder(nil)
	require.NoError(t, b.AddScope(container.Scope{Name: "request"}))

	transport := private(b, "transport", "Transport")
	shared := private(b, "logger", "Logger")
	b.Register("public.logger", "Logger")
	scoped := private(b, "request.logger", "Logger")
	scoped.Scope = "request"
	proto := b.Register("proto", "Logger")
	proto.Scope = definition.ScopePrototype
	self := private(b, "self", "Logger")
	self.AddMethodCall("setSelf", definition.NewReference("self"))

	mailer := b.Register("mailer", "Mailer").
		AddArgument(definition.NewReference("transport")).
		AddArgument(definition.NewReference("logger")).
		AddArgument(definition.NewReference("public.logger")).
		AddArgument(definition.NewReference("request.logger")).
		AddArgument([]any{definition.NewReference("proto")}).
		AddArgument(definition.NewReference("self"))
	newsletter := b.Register("newsletter", "Newsletter").
		AddArgument(definition.NewReference("logger")).
		AddArgument(definition.NewReference("proto"))

	c, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(false), &InlineServiceDefinitionsPass{})
	require.NoError(t, err)

	assert.Same(t, transport, mailer.Arguments[0], "a single source shares the definition")
	assert.IsType(t, &definition.Reference{}, mailer.Arguments[1], "two sources keep the reference")
	assert.IsType(t, &definition.Reference{}, newsletter.Arguments[0])
	kept, err := b.Definition("logger")
	require.NoError(t, err)
	assert.Same(t, shared, kept)
	assert.IsType(t, &definition.Reference{}, mailer.Arguments[2], "public services are not inlined")
	assert.IsType(t, &definition.Reference{}, mailer.Arguments[3], "scopes must match")

	first := mailer.Arguments[4].([]any)[0].(*definition.Definition)
	second := newsletter.Arguments[1].(*definition.Definition)
	assert.Equal(t, proto, first)
	assert.NotSame(t, proto, first, "prototypes are copied")
	assert.NotSame(t, first, second)

	assert.IsType(t, &definition.Reference{}, mailer.Arguments[5], "two sources keep the reference")
	assert.IsType(t, &definition.Reference{}, self.Calls[0].Arguments[0], "never inlined into itself")

	assert.Equal(t, []string{
		`InlineServiceDefinitionsPass: Inlined service "transport" to "mailer".`,
		`InlineServiceDefinitionsPass: Inlined service "proto" to "mailer".`,
		`InlineServiceDefinitionsPass: Inlined service "proto" to "newsletter".`,
	}, c.Log())
}

func TestInlineServiceDefinitions_Nested(t *testing.T) {
	b := newBuilder(nil)
	host := private(b, "host", "Logger")
	inner := definition.New("Transport", definition.NewReference("host"))
	mailer := b.Register("mailer", "Mailer").AddArgument(inner)

	c, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(false), &InlineServiceDefinitionsPass{})
	require.NoError(t, err)

	assert.Same(t, inner, mailer.Arguments[0])
	assert.Same(t, host, inner.Arguments[0])
	assert.Equal(t, []string{`InlineServiceDefinitionsPass: Inlined service "host" to "mailer".`}, c.Log())
}

func TestRemoveUnusedDefinitions_Chain(t *testing.T) {
	build := func() *container.Builder {
		b := newBuilder(nil)
		private(b, "a", "Logger").AddArgument(definition.NewReference("b"))
		private(b, "b", "Logger").AddArgument(definition.NewReference("c"))
		private(b, "c", "Logger")
		b.Register("app", "Logger")
		return b
	}

	b := build()
	_, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(false), &RemoveUnusedDefinitionsPass{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "b", "c"}, b.DefinitionIDs(), "one pass only sees the first layer")

	b = build()
	c, err := runPasses(t, b, NewRepeatedPass(NewAnalyzeServiceReferencesPass(false), &RemoveUnusedDefinitionsPass{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, b.DefinitionIDs())
	assert.Equal(t, []string{
		`RemoveUnusedDefinitionsPass: Removed service "a"; reason: unused`,
		`RemoveUnusedDefinitionsPass: Removed service "b"; reason: unused`,
		`RemoveUnusedDefinitionsPass: Removed service "c"; reason: unused`,
	}, c.Log())
}

func TestRemoveUnusedDefinitions_Aliases(t *testing.T) {
	b := newBuilder(nil)
	mailer := private(b, "mailer", "Mailer")
	require.NoError(t, b.SetAlias("mail", definition.NewAlias("mailer", true)))

	private(b, "logger", "Logger")
	require.NoError(t, b.SetAlias("log", definition.NewAlias("logger", true)))
	b.Register("app", "Logger").AddArgument(definition.NewReference("logger"))

	private(b, "cache", "Logger")
	require.NoError(t, b.SetAlias("cache.a", definition.NewAlias("cache", true)))
	require.NoError(t, b.SetAlias("cache.b", definition.NewAlias("cache", true)))

	c, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(false), &RemoveUnusedDefinitionsPass{})
	require.NoError(t, err)

	promoted, err := b.Definition("mail")
	require.NoError(t, err)
	assert.Same(t, mailer, promoted)
	assert.True(t, promoted.Public)
	assert.False(t, b.HasDefinition("mailer"))
	assert.False(t, b.HasAlias("mail"))

	assert.True(t, b.HasDefinition("logger"), "referenced by an alias and a definition")
	assert.True(t, b.HasDefinition("cache"), "referenced by two aliases")

	assert.Equal(t, []string{
		`RemoveUnusedDefinitionsPass: Removed service "mailer"; reason: replaces alias mail`,
	}, c.Log())
}

func TestRemoveAbstractDefinitions(t *testing.T) {
	b := newBuilder(nil)
	base := b.Register("base", "Logger")
	base.Abstract = true
	b.Register("logger", "Logger")

	c, err := runPasses(t, b, &RemoveAbstractDefinitionsPass{})
	require.NoError(t, err)
	assert.Equal(t, []string{"logger"}, b.DefinitionIDs())
	assert.Equal(t, []string{`RemoveAbstractDefinitionsPass: Removed service "base"; reason: abstract`}, c.Log())
}
