package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/definition"
)

func TestServiceReferenceGraph_Connect(t *testing.T) {
	g := NewServiceReferenceGraph()
	a := definition.New("A")
	b := definition.New("B")
	ref := definition.NewReference("b")

	g.Connect("a", a, "b", b, ref)
	g.Connect("c", nil, "b", nil, definition.NewReference("b"))
	g.Connect("c", definition.New("C"), "b", nil, definition.NewReference("b"))

	require.True(t, g.HasNode("a"))
	assert.False(t, g.HasNode("d"))
	assert.Equal(t, []string{"a", "b", "c"}, g.ServiceIDs())

	nb, ok := g.Node("b")
	require.True(t, ok)
	assert.Same(t, b, g.Value(nb), "nil never overwrites a known value")
	assert.Len(t, g.InEdges(nb), 3)
	assert.Empty(t, g.OutEdges(nb))
	assert.Equal(t, []string{"a", "c"}, g.Sources("b"))

	na, _ := g.Node("a")
	out := g.OutEdges(na)
	require.Len(t, out, 1)
	assert.Equal(t, "b", g.ServiceID(out[0].Dest))
	assert.Same(t, ref, out[0].Value)

	nc, _ := g.Node("c")
	assert.NotNil(t, g.Value(nc), "a later non-nil value fills an empty node")
}

func TestServiceReferenceGraph_Alias(t *testing.T) {
	g := NewServiceReferenceGraph()
	alias := definition.NewAlias("b", true)
	g.Connect("a", alias, "b", definition.New("B"), alias)

	na, _ := g.Node("a")
	nb, _ := g.Node("b")
	assert.True(t, g.IsAlias(na))
	assert.False(t, g.IsAlias(nb))
}

func TestServiceReferenceGraph_Clear(t *testing.T) {
	g := NewServiceReferenceGraph()
	g.Connect("a", nil, "b", nil, nil)
	g.Clear()

	assert.False(t, g.HasNode("a"))
	assert.Empty(t, g.Nodes())
	assert.Nil(t, g.Sources("b"))

	g.Connect("x", nil, "y", nil, nil)
	ny, _ := g.Node("y")
	assert.Equal(t, NodeID(1), ny, "ids restart after Clear")
	assert.Len(t, g.InEdges(ny), 1)
}
