package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

func TestResolveParameterPlaceHolders(t *testing.T) {
	b := newBuilder(map[string]any{
		"mailer.class": "Mailer",
		"domain":       "example.com",
		"from":         "noreply@%domain%",
		"alias.target": "mailer",
		"hosts":        []any{"a", "b"},
	})
	inline := definition.New("Logger", "%domain%")
	d := b.Register("mailer", "%mailer.class%").
		AddArgument("%from%").
		AddArgument("100%% sure").
		AddArgument(map[string]any{"%domain%": []any{"%domain%"}}).
		AddArgument("%hosts%").
		AddArgument(inline).
		AddArgument(42).
		AddMethodCall("set%domain%", "%from%").
		SetProperty("host", "%domain%")
	d.File = "%domain%.go"
	require.NoError(t, b.SetAlias("mail", definition.NewAlias("%alias.target%", true)))

	_, err := runPasses(t, b, &ResolveParameterPlaceHoldersPass{})
	require.NoError(t, err)

	assert.Equal(t, "Mailer", d.Class)
	assert.Equal(t, "example.com.go", d.File)
	assert.Equal(t, []any{
		"noreply@example.com",
		"100%% sure",
		map[string]any{"example.com": []any{"example.com"}},
		[]any{"a", "b"},
		inline,
		42,
	}, d.Arguments)
	assert.Equal(t, []any{"example.com"}, inline.Arguments)
	assert.Equal(t, []definition.MethodCall{{Method: "setexample.com", Arguments: []any{"noreply@example.com"}}}, d.Calls)
	assert.Equal(t, "example.com", d.Properties["host"])

	a, err := b.Alias("mail")
	require.NoError(t, err)
	assert.Equal(t, "mailer", a.ID)
	assert.True(t, a.Public)

	from, err := b.ParameterBag().Get("from")
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", from, "the bag itself is resolved")
}

func TestResolveParameterPlaceHolders_MissingParameter(t *testing.T) {
	b := newBuilder(map[string]any{"transport": "smtp"})
	b.Register("mailer", "Mailer").AddArgument("%transprot%")

	_, err := runPasses(t, b, &ResolveParameterPlaceHoldersPass{})
	var nf *parameter.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "transprot", nf.Key)
	assert.Equal(t, "mailer", nf.SourceID)
	assert.Equal(t, []string{"transport"}, nf.Alternatives)
}

func TestResolveParameterPlaceHolders_BagCycle(t *testing.T) {
	b := newBuilder(map[string]any{"a": "%b%", "b": "%a%"})

	_, err := runPasses(t, b, &ResolveParameterPlaceHoldersPass{})
	assert.True(t, parameter.IsCircularReference(err), "got %v", err)
}
