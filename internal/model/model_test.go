package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestcanvas/internal/geometry"
)

func TestNewConceptAssignsIDAndTimes(t *testing.T) {
	a := NewConcept(Summary{Type: "text"})
	b := NewConcept(Summary{Type: "text"})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedTime.IsZero())
	assert.Equal(t, a.CreatedTime, a.LastEditedTime)
	assert.Equal(t, DefaultCamera(), a.Camera)
	assert.False(t, a.IsCanvas())
}

func TestCloneSharesNothing(t *testing.T) {
	c := NewConcept(Summary{Type: "text", Data: json.RawMessage(`"hi"`)})
	c.References = []Block{NewBlock("x", geometry.V(1, 2), Size{W: Px(300), H: Auto})}
	c.Relations = []Relation{{ID: "r", UserData: map[string]any{"k": 1}}}

	cp := c.Clone()
	cp.References[0].Pos = geometry.V(9, 9)
	cp.Relations[0].UserData["k"] = 2
	cp.Summary.Data[1] = 'X'

	assert.Equal(t, geometry.V(1, 2), c.References[0].Pos)
	assert.Equal(t, 1, c.Relations[0].UserData["k"])
	assert.Equal(t, `"hi"`, string(c.Summary.Data))
}

func TestDimensionJSON(t *testing.T) {
	s := Size{W: Px(300), H: Auto}
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"w":300,"h":"auto"}`, string(raw))

	var back Size
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s, back)

	assert.Error(t, json.Unmarshal([]byte(`{"w":"wide"}`), &back))
}

func TestPosTypeText(t *testing.T) {
	raw, err := json.Marshal(Block{PosType: PinnedBR})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"posType":"pinnedBR"`)

	var b Block
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.Equal(t, PinnedBR, b.PosType)
}

func TestBlockBoxAutoFallback(t *testing.T) {
	b := NewBlock("x", geometry.V(10, 20), Size{W: Px(300), H: Auto})
	assert.Equal(t, geometry.B(10, 20, 300, 80), b.Box(200, 80))
}

func TestRelationEndpoints(t *testing.T) {
	r := NewRelation("arrow", "a", "b")
	assert.True(t, r.SameEndpoints(NewRelation("arrow", "a", "b")))
	assert.False(t, r.SameEndpoints(NewRelation("arrow", "b", "a")))
	assert.False(t, r.SameEndpoints(NewRelation("link", "a", "b")))

	assert.True(t, r.Touches(map[string]bool{"a": true}))
	assert.False(t, r.Within(map[string]bool{"a": true}))
	assert.True(t, r.Within(map[string]bool{"a": true, "b": true}))
}

func TestSynthesizeBlocksPreservesIdentity(t *testing.T) {
	a := NewBlock("ca", geometry.V(0, 0), Size{W: Px(100), H: Auto})
	b := NewBlock("cb", geometry.V(200, 0), Size{W: Px(100), H: Auto})

	first := SynthesizeBlocks("canvas", []Block{a, b}, nil)
	require.Len(t, first, 2)
	selectedB := first[1].WithState(ModeIdle, true, false)
	first[1] = selectedB

	moved := b
	moved.Pos = geometry.V(250, 0)
	second := SynthesizeBlocks("canvas", []Block{a, moved}, first)

	assert.Same(t, first[0], second[0], "unchanged block keeps its instance")
	assert.NotSame(t, first[1], second[1])
	assert.True(t, second[1].Selected, "UI state survives a block change")
	assert.Equal(t, geometry.V(250, 0), second[1].Pos)

	other := SynthesizeBlocks("elsewhere", []Block{a}, first)
	assert.NotSame(t, first[0], other[0], "instances do not leak across canvases")
}

func TestSynthesizeRelationsPrunesDangling(t *testing.T) {
	a := NewBlock("ca", geometry.V(0, 0), Size{})
	b := NewBlock("cb", geometry.V(0, 0), Size{})
	keep := NewRelation("arrow", a.ID, b.ID)
	drop := NewRelation("arrow", a.ID, "gone")

	got := SynthesizeRelations([]Block{a, b}, []Relation{keep, drop})
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	for _, id := range []ConceptID{"a", "b", "c", "d"} {
		h = h.Push(id)
	}
	assert.Equal(t, []ConceptID{"b", "c", "d"}, h.Items())

	h2, last, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, ConceptID("d"), last)
	assert.Equal(t, 2, h2.Len())
	assert.Equal(t, 3, h.Len(), "pop does not mutate the original")

	empty := NewHistory(2)
	_, _, ok = empty.Pop()
	assert.False(t, ok)
}

func TestHistoryPushDoesNotAlias(t *testing.T) {
	base := NewHistory(4).Push("a")
	x := base.Push("x")
	y := base.Push("y")

	assert.Equal(t, []ConceptID{"a", "x"}, x.Items())
	assert.Equal(t, []ConceptID{"a", "y"}, y.Items())
}

func TestZeroHistoryKeepsLatest(t *testing.T) {
	var h History
	h = h.Push("a").Push("b")
	assert.Equal(t, []ConceptID{"b"}, h.Items())
	assert.Equal(t, 1, h.Capacity())
}
