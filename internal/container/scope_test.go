package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/definition"
)

func TestAddScope_Validation(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		scope   Scope
		wantErr string
	}{
		{"reserved container", Scope{Name: definition.ScopeContainer}, "reserved"},
		{"reserved prototype", Scope{Name: definition.ScopePrototype}, "reserved"},
		{"unknown parent", Scope{Name: "sub", Parent: "missing"}, `parent scope "missing" does not exist`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.AddScope(tt.scope)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, c.AddScope(Scope{Name: "request"}))
	err := c.AddScope(Scope{Name: "request"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

// TestAddScope_ChildrenPropagate tests that descendants are registered on
// every ancestor.
func TestAddScope_ChildrenPropagate(t *testing.T) {
	c := New()
	require.NoError(t, c.AddScope(Scope{Name: "request"}))
	require.NoError(t, c.AddScope(Scope{Name: "form", Parent: "request"}))
	require.NoError(t, c.AddScope(Scope{Name: "field", Parent: "form"}))

	assert.Equal(t, map[string]string{
		"request": definition.ScopeContainer,
		"form":    "request",
		"field":   "form",
	}, c.Scopes())
	children := c.ScopeChildren()
	assert.Equal(t, []string{"form", "field"}, children["request"])
	assert.Equal(t, []string{"field"}, children["form"])
	assert.Empty(t, children["field"])
	assert.Equal(t, []string{"form", "request", definition.ScopeContainer}, c.ScopeAncestors("field"))
}

func TestEnterScope_RequiresParent(t *testing.T) {
	c := New()
	require.NoError(t, c.AddScope(Scope{Name: "request"}))
	require.NoError(t, c.AddScope(Scope{Name: "form", Parent: "request"}))

	err := c.EnterScope("form")
	var ise *InactiveScopeError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "request", ise.Scope)

	err = c.EnterScope("unknown")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)

	require.NoError(t, c.EnterScope("request"))
	require.NoError(t, c.EnterScope("form"))
	assert.True(t, c.IsScopeActive("form"))
}

func TestLeaveScope_Inactive(t *testing.T) {
	c := New()
	require.NoError(t, c.AddScope(Scope{Name: "request"}))

	err := c.LeaveScope("request")
	var ise *InactiveScopeError
	assert.ErrorAs(t, err, &ise)
}

func TestSetInScope(t *testing.T) {
	c := New()
	require.NoError(t, c.AddScope(Scope{Name: "request"}))

	err := c.SetInScope("req", &logger{}, "request")
	var ise *InactiveScopeError
	require.ErrorAs(t, err, &ise)

	err = c.SetInScope("proto", &logger{}, definition.ScopePrototype)
	require.Error(t, err)

	require.NoError(t, c.EnterScope("request"))
	require.NoError(t, c.SetInScope("req", &logger{}, "request"))
	assert.True(t, c.Has("req"))

	require.NoError(t, c.LeaveScope("request"))
	assert.False(t, c.Has("req"))
}

// TestScope_ReentrantRestoresInstances tests that re-entering a scope
// stashes the outer instances, including those of child scopes, and that
// leaving restores them.
func TestScope_ReentrantRestoresInstances(t *testing.T) {
	c := New()
	require.NoError(t, c.AddScope(Scope{Name: "request"}))
	require.NoError(t, c.AddScope(Scope{Name: "form", Parent: "request"}))
	require.NoError(t, c.SetFactory("req", "request", func(*Container) (any, error) { return &logger{}, nil }))
	require.NoError(t, c.SetFactory("frm", "form", func(*Container) (any, error) { return &logger{}, nil }))

	require.NoError(t, c.EnterScope("request"))
	require.NoError(t, c.EnterScope("form"))
	outerReq, err := c.Get("req")
	require.NoError(t, err)
	outerForm, err := c.Get("frm")
	require.NoError(t, err)

	// Nested request: previous instances are hidden.
	require.NoError(t, c.EnterScope("request"))
	assert.False(t, c.Initialized("req"))
	assert.False(t, c.Initialized("frm"))
	assert.False(t, c.IsScopeActive("form"))

	innerReq, err := c.Get("req")
	require.NoError(t, err)
	assert.NotSame(t, outerReq, innerReq)

	_, err = c.Get("frm")
	var ise *InactiveScopeError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "form", ise.Scope)

	require.NoError(t, c.LeaveScope("request"))

	got, err := c.Get("req")
	require.NoError(t, err)
	assert.Same(t, outerReq, got)
	got, err = c.Get("frm")
	require.NoError(t, err)
	assert.Same(t, outerForm, got)
	assert.True(t, c.IsScopeActive("form"))

	require.NoError(t, c.LeaveScope("request"))
	assert.False(t, c.IsScopeActive("request"))
	assert.False(t, c.IsScopeActive("form"))
	assert.False(t, c.Initialized("req"))
	assert.False(t, c.Initialized("frm"))
}
