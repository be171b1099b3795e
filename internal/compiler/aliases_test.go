package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

func TestResolveReferencesToAliases(t *testing.T) {
	b := newBuilder(nil)
	b.Register("mailer", "Mailer")
	b.Register("transport.factory", "TransportFactory")
	require.NoError(t, b.SetAlias("mail.b", definition.NewAlias("mailer", false)))
	require.NoError(t, b.SetAlias("mail.a", definition.NewAlias("mail.b", true)))
	require.NoError(t, b.SetAlias("factory", definition.NewAlias("transport.factory", false)))

	inline := definition.New("Logger", definition.NewReference("mail.a"))
	nl := b.Register("newsletter", "Newsletter").
		AddArgument(definition.NewReferenceWith("mail.a", definition.NullOnInvalidReference, false)).
		AddArgument(inline).
		AddMethodCall("setMailer", definition.NewReference("mail.b"))
	nl.FactoryService, nl.FactoryMethod = "factory", "create"
	nl.Configurator = &definition.Callable{Service: definition.NewReference("mail.a"), Method: "configure"}

	_, err := runPasses(t, b, &ResolveReferencesToAliasesPass{})
	require.NoError(t, err)

	ref := nl.Arguments[0].(*definition.Reference)
	assert.Equal(t, "mailer", ref.ID)
	assert.Equal(t, definition.NullOnInvalidReference, ref.Invalid)
	assert.False(t, ref.Strict)
	assert.Equal(t, "mailer", inline.Arguments[0].(*definition.Reference).ID)
	assert.Equal(t, "mailer", nl.Calls[0].Arguments[0].(*definition.Reference).ID)
	assert.Equal(t, "transport.factory", nl.FactoryService)
	assert.Equal(t, "mailer", nl.Configurator.Service.ID)

	a, err := b.Alias("mail.a")
	require.NoError(t, err)
	assert.Equal(t, "mailer", a.ID)
	assert.True(t, a.Public, "visibility survives the rewrite")
}

func TestResolveReferencesToAliases_Loop(t *testing.T) {
	b := newBuilder(nil)
	require.NoError(t, b.SetAlias("a", definition.NewAlias("b", true)))
	require.NoError(t, b.SetAlias("b", definition.NewAlias("a", true)))
	b.Register("mailer", "Mailer").AddArgument(definition.NewReference("a"))

	_, err := runPasses(t, b, &ResolveReferencesToAliasesPass{})
	var cycle *container.CircularReferenceError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
}

func TestRemovePrivateAliases(t *testing.T) {
	b := newBuilder(nil)
	b.Register("mailer", "Mailer")
	require.NoError(t, b.SetAlias("public.mail", definition.NewAlias("mailer", true)))
	require.NoError(t, b.SetAlias("private.mail", definition.NewAlias("mailer", false)))

	c, err := runPasses(t, b, &RemovePrivateAliasesPass{})
	require.NoError(t, err)

	assert.Equal(t, []string{"public.mail"}, b.AliasIDs())
	assert.Equal(t, []string{
		`RemovePrivateAliasesPass: Removed service "private.mail"; reason: private alias`,
	}, c.Log())
}

func TestReplaceAliasByActualDefinition(t *testing.T) {
	b := newBuilder(nil)
	mailer := b.Register("mailer", "Mailer")
	mailer.Public = false
	b.Register("newsletter", "Newsletter").AddArgument(definition.NewReference("mailer"))
	cfg := b.Register("configured", "Logger")
	cfg.Configurator = &definition.Callable{Service: definition.NewReference("mailer"), Method: "configure"}
	require.NoError(t, b.SetAlias("mail", definition.NewAlias("mailer", true)))
	require.NoError(t, b.SetAlias("mail.second", definition.NewAlias("mailer", true)))

	c, err := runPasses(t, b, &ReplaceAliasByActualDefinitionPass{})
	require.NoError(t, err)

	assert.False(t, b.HasDefinition("mailer"))
	moved, err := b.Definition("mail")
	require.NoError(t, err)
	assert.Same(t, mailer, moved)
	assert.True(t, moved.Public)

	second, err := b.Alias("mail.second")
	require.NoError(t, err)
	assert.Equal(t, "mail", second.ID, "sibling aliases follow the definition")
	assert.Equal(t, []string{"mail.second"}, b.AliasIDs())

	nl, _ := b.Definition("newsletter")
	assert.Equal(t, "mail", nl.Arguments[0].(*definition.Reference).ID)
	assert.Equal(t, "mail", cfg.Configurator.Service.ID)

	assert.Equal(t, []string{
		`ReplaceAliasByActualDefinitionPass: Changed reference of service "newsletter" previously pointing to "mailer" to "mail".`,
	}, c.Log())
}

func TestReplaceAliasByActualDefinition_Skips(t *testing.T) {
	b := newBuilder(nil)
	b.Register("mailer", "Mailer")
	require.NoError(t, b.SetAlias("mail", definition.NewAlias("mailer", true)))
	require.NoError(t, b.Set("request", "live"))
	require.NoError(t, b.SetAlias("current.request", definition.NewAlias("request", true)))

	_, err := runPasses(t, b, &ReplaceAliasByActualDefinitionPass{})
	require.NoError(t, err)
	assert.True(t, b.HasDefinition("mailer"), "public targets stay in place")
	assert.True(t, b.HasAlias("current.request"), "aliases of set services stay")
}

func TestReplaceAliasByActualDefinition_MissingTarget(t *testing.T) {
	b := newBuilder(nil)
	require.NoError(t, b.SetAlias("mail", definition.NewAlias("mailer", true)))

	_, err := runPasses(t, b, &ReplaceAliasByActualDefinitionPass{})
	var nf *container.ServiceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "mailer", nf.ID)
	assert.Equal(t, "mail", nf.SourceID)
}

func TestResolveInvalidReferences(t *testing.T) {
	b := newBuilder(nil)
	b.Register("logger", "Logger")
	d := b.Register("mailer", "Mailer").
		AddArgument(definition.NewReferenceWith("missing", definition.IgnoreOnInvalidReference, true)).
		AddArgument(definition.NewReferenceWith("missing", definition.NullOnInvalidReference, true)).
		AddArgument(definition.NewReferenceWith("logger", definition.NullOnInvalidReference, false)).
		AddArgument(definition.NewReference("missing")).
		AddMethodCall("setLogger", definition.NewReferenceWith("logger", definition.IgnoreOnInvalidReference, true)).
		AddMethodCall("setCache", []any{definition.NewReferenceWith("missing", definition.IgnoreOnInvalidReference, true)}).
		AddMethodCall("setFallback", definition.NewReferenceWith("missing", definition.NullOnInvalidReference, true)).
		SetProperty("cache", definition.NewReferenceWith("missing", definition.IgnoreOnInvalidReference, true)).
		SetProperty("name", "mailer")

	_, err := runPasses(t, b, &ResolveInvalidReferencesPass{})
	require.NoError(t, err)

	require.Len(t, d.Arguments, 4)
	assert.Nil(t, d.Arguments[0])
	assert.Nil(t, d.Arguments[1])
	kept := d.Arguments[2].(*definition.Reference)
	assert.Equal(t, definition.ExceptionOnInvalidReference, kept.Invalid, "existing targets become plain references")
	assert.False(t, kept.Strict)
	assert.Equal(t, definition.ExceptionOnInvalidReference, d.Arguments[3].(*definition.Reference).Invalid)

	assert.Equal(t, []definition.MethodCall{
		{Method: "setLogger", Arguments: []any{definition.NewReference("logger")}},
		{Method: "setFallback", Arguments: []any{nil}},
	}, d.Calls)
	assert.Equal(t, map[string]any{"name": "mailer"}, d.Properties)
}
