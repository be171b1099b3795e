package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/container"
	"github.com/roach88/kiln/internal/definition"
)

func TestCheckDefinitionValidity(t *testing.T) {
	tests := []struct {
		name string
		def  func() *definition.Definition
		code string
	}{
		{
			name: "synthetic private",
			def: func() *definition.Definition {
				d := definition.New("")
				d.Synthetic, d.Public = true, false
				return d
			},
			code: ErrSyntheticNotPublic,
		},
		{
			name: "synthetic prototype",
			def: func() *definition.Definition {
				d := definition.New("Request")
				d.Synthetic, d.Scope = true, definition.ScopePrototype
				return d
			},
			code: ErrSyntheticPrototype,
		},
		{
			name: "missing class",
			def:  func() *definition.Definition { return definition.New("") },
			code: ErrMissingClass,
		},
		{
			name: "factory without class",
			def: func() *definition.Definition {
				d := definition.New("")
				d.FactoryService, d.FactoryMethod = "transport.factory", "create"
				return d
			},
			code: ErrFactoryWithoutClass,
		},
		{
			name: "structured tag attribute",
			def: func() *definition.Definition {
				return definition.New("Logger").AddTag("listener", map[string]any{"events": []any{"a"}})
			},
			code: ErrInvalidTagAttribute,
		},
		{
			name: "undeclared scope",
			def: func() *definition.Definition {
				d := definition.New("Request")
				d.Scope = "session"
				return d
			},
			code: ErrUnknownScope,
		},
		{
			name: "abstract without class",
			def: func() *definition.Definition {
				d := definition.New("")
				d.Abstract = true
				return d
			},
		},
		{
			name: "synthetic without class",
			def: func() *definition.Definition {
				d := definition.New("")
				d.Synthetic = true
				return d
			},
		},
		{
			name: "declared scope and scalar tags",
			def: func() *definition.Definition {
				d := definition.New("Request").AddTag("listener", map[string]any{"priority": 10, "event": "boot", "lazy": false})
				d.Scope = "request"
				return d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder(nil)
			require.NoError(t, b.AddScope(container.Scope{Name: "request"}))
			require.NoError(t, b.SetDefinition("svc", tt.def()))

			_, err := runPasses(t, b, &CheckDefinitionValidityPass{})
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsValidationError(err, tt.code), "got %v", err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "svc", ve.ServiceID)
		})
	}
}

// scopedBuilder declares session > request and registers one service per
// scope.
func scopedBuilder(t *testing.T) *container.Builder {
	t.Helper()
	b := newBuilder(nil)
	require.NoError(t, b.AddScope(container.Scope{Name: "session"}))
	require.NoError(t, b.AddScope(container.Scope{Name: "request", Parent: "session"}))
	require.NoError(t, b.AddScope(container.Scope{Name: "job"}))
	for _, scope := range []string{definition.ScopeContainer, definition.ScopePrototype, "session", "request", "job"} {
		d := definition.New("Logger")
		d.Scope = scope
		require.NoError(t, b.SetDefinition(scope+".svc", d))
	}
	return b
}

func TestCheckReferenceValidity_Scopes(t *testing.T) {
	tests := []struct {
		from, to string
		strict   bool
		want     string
	}{
		{from: "container", to: "prototype", strict: true, want: "widening"},
		{from: "container", to: "prototype", strict: false},
		{from: "container", to: "request", strict: true, want: "widening"},
		{from: "session", to: "request", strict: true, want: "widening"},
		{from: "session", to: "prototype", strict: true, want: "widening"},
		{from: "request", to: "session", strict: true},
		{from: "request", to: "container", strict: true},
		{from: "request", to: "job", strict: true, want: "crossing"},
		{from: "job", to: "session", strict: true, want: "crossing"},
		{from: "job", to: "session", strict: false},
		{from: "prototype", to: "request", strict: true},
		{from: "request", to: "request", strict: true},
	}

	for _, tt := range tests {
		t.Run(tt.from+" to "+tt.to, func(t *testing.T) {
			b := scopedBuilder(t)
			d, err := b.Definition(tt.from + ".svc")
			require.NoError(t, err)
			d.AddArgument(definition.NewReferenceWith(tt.to+".svc", definition.ExceptionOnInvalidReference, tt.strict))

			_, err = runPasses(t, b, &CheckReferenceValidityPass{})

			var widening *ScopeWideningError
			var crossing *ScopeCrossingError
			switch tt.want {
			case "widening":
				require.ErrorAs(t, err, &widening)
				assert.Equal(t, tt.from+".svc", widening.SourceID)
				assert.Equal(t, tt.to, widening.DestScope)
			case "crossing":
				require.ErrorAs(t, err, &crossing)
				assert.Equal(t, tt.to+".svc", crossing.DestID)
			default:
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want != "", IsScopeError(err))
		})
	}
}

func TestCheckReferenceValidity_AbstractTarget(t *testing.T) {
	b := newBuilder(nil)
	parent := b.Register("base", "Logger")
	parent.Abstract = true
	b.Register("mailer", "Mailer").AddMethodCall("setLogger", definition.NewReference("base"))

	_, err := runPasses(t, b, &CheckReferenceValidityPass{})
	assert.True(t, IsValidationError(err, ErrAbstractReference), "got %v", err)
}

func TestCheckReferenceValidity_SkipsMissingAndSynthetic(t *testing.T) {
	b := newBuilder(nil)
	b.Register("mailer", "Mailer").AddArgument(definition.NewReference("missing"))
	req := b.Register("request", "Request")
	req.Synthetic = true
	req.AddArgument(definition.NewReference("anything"))

	_, err := runPasses(t, b, &CheckReferenceValidityPass{})
	assert.NoError(t, err)
}

func TestCheckCircularReferences(t *testing.T) {
	t.Run("constructor cycle", func(t *testing.T) {
		b := newBuilder(nil)
		b.Register("a", "Logger").AddArgument(definition.NewReference("b"))
		b.Register("b", "Logger").AddArgument(definition.NewReference("c"))
		b.Register("c", "Logger").AddArgument(definition.NewReference("a"))

		_, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(true), &CheckCircularReferencesPass{})
		var cycle *container.CircularReferenceError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "b", "c", "a"}, cycle.Path)
		assert.Equal(t, "a", cycle.ID)
	})

	t.Run("self reference", func(t *testing.T) {
		b := newBuilder(nil)
		b.Register("a", "Logger").AddArgument(definition.NewReference("a"))

		_, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(true), &CheckCircularReferencesPass{})
		var cycle *container.CircularReferenceError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "a"}, cycle.Path)
	})

	t.Run("cycle through alias and factory", func(t *testing.T) {
		b := newBuilder(nil)
		b.Register("a", "Logger").AddArgument(definition.NewReference("alias.b"))
		bdef := b.Register("b", "Logger")
		bdef.FactoryService, bdef.FactoryMethod = "a", "create"
		require.NoError(t, b.SetAlias("alias.b", definition.NewAlias("b", false)))

		_, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(true), &CheckCircularReferencesPass{})
		assert.True(t, container.IsCircularReference(err), "got %v", err)
	})

	t.Run("setter cycle is legal", func(t *testing.T) {
		b := newBuilder(nil)
		b.Register("a", "Logger").AddMethodCall("setB", definition.NewReference("b"))
		b.Register("b", "Logger").AddArgument(definition.NewReference("a"))

		_, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(true), &CheckCircularReferencesPass{})
		assert.NoError(t, err)

		_, err = runPasses(t, b, NewAnalyzeServiceReferencesPass(false), &CheckCircularReferencesPass{})
		assert.True(t, container.IsCircularReference(err), "a full analysis sees the setter edge")
	})

	t.Run("diamond", func(t *testing.T) {
		b := newBuilder(nil)
		b.Register("a", "Logger").AddArgument(definition.NewReference("b")).AddArgument(definition.NewReference("c"))
		b.Register("b", "Logger").AddArgument(definition.NewReference("d"))
		b.Register("c", "Logger").AddArgument(definition.NewReference("d"))
		b.Register("d", "Logger")

		_, err := runPasses(t, b, NewAnalyzeServiceReferencesPass(true), &CheckCircularReferencesPass{})
		assert.NoError(t, err)
	})
}

func TestCheckExceptionOnInvalidReferenceBehavior(t *testing.T) {
	b := newBuilder(nil)
	b.Register("logger", "Logger")
	inline := definition.New("Transport", definition.NewReference("missing.host"))
	b.Register("mailer", "Mailer").
		AddArgument(definition.NewReference("logger")).
		AddArgument(definition.NewReferenceWith("optional", definition.NullOnInvalidReference, true)).
		AddArgument(inline)

	_, err := runPasses(t, b, &CheckExceptionOnInvalidReferenceBehaviorPass{})
	var nf *container.ServiceNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "missing.host", nf.ID)
	assert.Equal(t, "mailer", nf.SourceID)
	assert.Equal(t, `service "mailer" has a dependency on a non-existent service "missing.host"`, nf.Error())
}
