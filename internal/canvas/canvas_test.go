package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/rectcache"
	"nestcanvas/internal/store"
)

type fixture struct {
	t     *testing.T
	r     *Reducer
	store *store.Memory
	rects *rectcache.Cache
	s     *AppState
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := store.NewMemory()
	_, err := store.EnsureHome(m)
	require.NoError(t, err)
	rects := rectcache.New()
	r := NewReducer(m, rects, DefaultOptions(), nil)
	s, err := r.Init(geometry.V(800, 600))
	require.NoError(t, err)
	return &fixture{t: t, r: r, store: m, rects: rects, s: s}
}

func (f *fixture) do(actions ...Action) *AppState {
	for _, a := range actions {
		f.s = f.r.Reduce(f.s, a)
	}
	return f.s
}

// add creates a block at box's position (default camera) and reports box as
// its measured rectangle.
func (f *fixture) add(box geometry.Box) string {
	f.t.Helper()
	f.do(ClearSelection{}, CreateBlock{Pointer: box.Pos()})
	require.Len(f.t, f.s.SelectedBlockIDs, 1)
	id := f.s.SelectedBlockIDs[0]
	f.rects.Report(id, box)
	f.do(ClearSelection{})
	return id
}

func (f *fixture) block(id string) model.Block {
	f.t.Helper()
	bi, ok := f.s.Block(id)
	require.True(f.t, ok, "block %s", id)
	return bi.Block
}

func (f *fixture) stored() model.Concept {
	f.t.Helper()
	c, ok := f.store.GetConcept(f.s.Viewing.ID)
	require.True(f.t, ok)
	return c
}

func TestCreateBlockAtPointer(t *testing.T) {
	f := newFixture(t)
	s := f.do(CreateBlock{Pointer: geometry.V(200, 150)})

	require.Len(t, s.Blocks, 1)
	b := s.Blocks[0]
	assert.Equal(t, geometry.V(200, 150), b.Pos)
	assert.Equal(t, model.Size{W: model.Px(300), H: model.Auto}, b.Size)
	assert.Equal(t, []string{b.ID}, s.SelectedBlockIDs)
	assert.True(t, b.Selected)

	_, ok := f.store.GetConcept(b.To)
	assert.True(t, ok, "the referenced concept exists")
	assert.Len(t, f.stored().References, 1)
}

func TestCreateBlockDeselectsOthers(t *testing.T) {
	f := newFixture(t)
	first := f.do(CreateBlock{Pointer: geometry.V(0, 0)}).SelectedBlockIDs[0]
	s := f.do(CreateBlock{Pointer: geometry.V(500, 0)})

	require.Len(t, s.SelectedBlockIDs, 1)
	assert.NotEqual(t, first, s.SelectedBlockIDs[0])
	bi, _ := s.Block(first)
	assert.False(t, bi.Selected)
}

func TestCreateBlockUsesCamera(t *testing.T) {
	f := newFixture(t)
	f.do(CameraMove{Delta: geometry.V(100, 50)}, CameraScale{Pointer: geometry.V(0, 0), Delta: -1})
	scale := f.s.Camera.Scale
	s := f.do(CreateBlock{Pointer: geometry.V(40, 20)})
	want := geometry.V(100, 50).Add(geometry.V(40, 20).Div(scale))
	assert.InDelta(t, want.X, s.Blocks[0].Pos.X, 1e-9)
	assert.InDelta(t, want.Y, s.Blocks[0].Pos.Y, 1e-9)
}

func TestCreateBlockRelative(t *testing.T) {
	tests := []struct {
		dir  Direction
		want geometry.Vec2
	}{
		{Below, geometry.V(100, 164)},
		{Above, geometry.V(100, 36)},
		{Left, geometry.V(-224, 100)},
		{Right, geometry.V(424, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			f := newFixture(t)
			anchor := f.add(geometry.B(100, 100, 300, 40))
			s := f.do(CreateBlockRelative{BlockID: anchor, Direction: tt.dir, Connect: true})

			require.Len(t, s.Blocks, 2)
			created := s.Blocks[1]
			assert.Equal(t, tt.want, created.Pos)
			assert.Equal(t, []string{created.ID}, s.SelectedBlockIDs)
			require.Len(t, s.Relations, 1)
			assert.Equal(t, anchor, s.Relations[0].FromID)
			assert.Equal(t, created.ID, s.Relations[0].ToID)
		})
	}
}

func TestCreateBlockRelativeNeedsMeasurement(t *testing.T) {
	f := newFixture(t)
	id := f.do(CreateBlock{Pointer: geometry.V(0, 0)}).SelectedBlockIDs[0]
	s := f.s
	assert.Same(t, s, f.do(CreateBlockRelative{BlockID: id, Direction: Below}))
	assert.Same(t, s, f.do(CreateBlockRelative{BlockID: "missing", Direction: Below}))
}

func TestRigidMultiMove(t *testing.T) {
	f := newFixture(t)
	ids := []string{
		f.add(geometry.B(0, 0, 100, 50)),
		f.add(geometry.B(400, 300, 80, 80)),
		f.add(geometry.B(-250, 900, 120, 30)),
	}
	for _, id := range ids {
		f.do(ToggleSelect{BlockID: id})
	}
	before := make(map[string]geometry.Vec2)
	for _, id := range ids {
		before[id] = f.block(id).Pos
	}

	f.do(
		MoveStart{BlockID: ids[1], Pointer: geometry.V(420, 310)},
		Move{Delta: geometry.V(13, -7)},
		Move{Delta: geometry.V(24.5, 18)},
	)
	v := f.block(ids[1]).Pos.Sub(before[ids[1]])
	assert.Equal(t, geometry.V(37.5, 11), v)
	for _, id := range ids {
		assert.Equal(t, before[id].Add(v), f.block(id).Pos, "block %s", id)
	}

	s := f.do(MoveEnd{})
	assert.Nil(t, s.Gesture)
	assert.Len(t, s.SelectedBlockIDs, 3)
	for _, bi := range s.Blocks {
		assert.Equal(t, model.ModeIdle, bi.Mode)
	}
}

func TestMoveStartSelectsUnselectedCursor(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	b := f.add(geometry.B(500, 0, 100, 50))
	f.do(ToggleSelect{BlockID: a})

	s := f.do(MoveStart{BlockID: b, Pointer: geometry.V(510, 10)})
	assert.Equal(t, []string{b}, s.SelectedBlockIDs)
	bi, _ := s.Block(b)
	assert.Equal(t, model.ModeMoving, bi.Mode)
	assert.Equal(t, geometry.V(10, 10), s.PointerOffsetInCursorBox)
}

func TestMoveSnapsToAdjacentEdgeWithGap(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	f.add(geometry.B(200, 0, 100, 50))

	// Desired right edge of A lands at 192: within tolerance of 200-5.
	s := f.do(
		MoveStart{BlockID: a, Pointer: geometry.V(50, 25)},
		Move{Delta: geometry.V(92, 0)},
	)
	assert.Equal(t, geometry.V(95, 0), f.block(a).Pos)
	assert.NotEmpty(t, s.Guidelines)

	f.do(Move{Delta: geometry.V(3, 0)})
	assert.Equal(t, 195.0, f.block(a).Pos.X+100)
}

func TestMoveEndReparentsIntoEmptyConcept(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	b := f.add(geometry.B(300, 0, 100, 50))
	c := f.add(geometry.B(0, 300, 100, 50))
	f.do(
		RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
		RelationDrawMove{Delta: geometry.V(0, 300)},
		RelationDrawEnd{},
	)
	require.Len(t, f.s.Relations, 1)
	home := f.s.Viewing.ID
	dest := f.block(b).To

	f.do(
		MoveStart{BlockID: a, Pointer: geometry.V(10, 10)},
		Move{Delta: geometry.V(340, 10)},
	)
	assert.Equal(t, b, f.s.HighlightedBlockID)
	s := f.do(MoveEnd{})

	assert.Equal(t, home, s.Viewing.ID)
	assert.Len(t, s.Blocks, 2)
	_, still := s.Block(a)
	assert.False(t, still)
	assert.Empty(t, s.Relations, "relations crossing the boundary are dropped")
	assert.Empty(t, s.HighlightedBlockID)
	_, ok := f.rects.Peek(a)
	assert.False(t, ok)

	target, ok := f.store.GetConcept(dest)
	require.True(t, ok)
	require.Len(t, target.References, 1)
	assert.Equal(t, a, target.References[0].ID)
	assert.Equal(t, geometry.V(0, 0), target.References[0].Pos)

	_, kept := s.Block(c)
	assert.True(t, kept, "the relation target stays on the source canvas")
}

func TestMoveEndReparentsBesideExistingContent(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	a2 := f.add(geometry.B(0, 100, 100, 50))
	b := f.add(geometry.B(600, 0, 100, 50))
	f.do(
		RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
		RelationDrawMove{Delta: geometry.V(0, 100)},
		RelationDrawEnd{},
	)
	require.Len(t, f.s.Relations, 1)

	dest := f.block(b).To
	target, _ := f.store.GetConcept(dest)
	existing := model.NewBlock("x", geometry.V(10, 10), model.Size{W: model.Px(200), H: model.Px(40)})
	require.NoError(t, f.store.UpdateConcept(target.WithReferences([]model.Block{existing}, nil)))

	f.do(ToggleSelect{BlockID: a}, ToggleSelect{BlockID: a2})
	f.do(
		MoveStart{BlockID: a, Pointer: geometry.V(10, 10)},
		Move{Delta: geometry.V(600, 0)},
		MoveEnd{},
	)
	assert.Len(t, f.s.Blocks, 1)
	assert.Empty(t, f.s.SelectedBlockIDs)

	target, _ = f.store.GetConcept(dest)
	require.Len(t, target.References, 3)
	// Existing content spans x 10..210, y 10..50.
	assert.Equal(t, geometry.V(258, 10), target.References[1].Pos)
	assert.Equal(t, geometry.V(258, 110), target.References[2].Pos, "relative offsets are kept")
	require.Len(t, target.Relations, 1, "relations inside the moved set travel along")
}

func TestMoveEndWithoutTargetStaysPut(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	f.do(
		MoveStart{BlockID: a, Pointer: geometry.V(10, 10)},
		Move{Delta: geometry.V(1000, 1000)},
	)
	s := f.do(MoveEnd{})
	assert.Len(t, s.Blocks, 1)
	assert.Equal(t, geometry.V(1000, 1000), f.block(a).Pos)
	assert.Equal(t, geometry.V(1000, 1000), f.stored().References[0].Pos)
}

func TestMoveEndOntoSelfReferenceSkipsReparent(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	loop := model.NewBlock(f.s.Viewing.ID, geometry.V(300, 0), model.Size{W: model.Px(100), H: model.Px(50)})
	f.s = f.r.commit(f.s, append(append([]model.Block(nil), f.s.Viewing.References...), loop), nil)
	f.rects.Report(loop.ID, geometry.B(300, 0, 100, 50))

	s := f.do(
		MoveStart{BlockID: a, Pointer: geometry.V(10, 10)},
		Move{Delta: geometry.V(300, 0)},
		MoveEnd{},
	)
	assert.Len(t, s.Blocks, 2)
}

func TestMoveWithoutGestureIsNoop(t *testing.T) {
	f := newFixture(t)
	s := f.s
	assert.Same(t, s, f.do(Move{Delta: geometry.V(1, 1)}))
	assert.Same(t, s, f.do(MoveEnd{}))
	assert.Same(t, s, f.do(MoveStart{BlockID: "missing"}))
}

func TestResizeSingleBlock(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 300, 40))
	f.add(geometry.B(0, 500, 100, 50))

	f.do(
		ResizeStart{BlockID: a, Pointer: geometry.V(300, 40)},
		Resize{Delta: geometry.V(50, 0)},
	)
	b := f.block(a)
	assert.Equal(t, model.Px(350), b.Size.W)
	assert.Equal(t, model.Auto, b.Size.H, "an undragged auto height stays auto")
	assert.Equal(t, geometry.V(0, 0), b.Pos)

	s := f.do(ResizeEnd{})
	assert.Nil(t, s.Gesture)
}

func TestResizeAppliesToSelection(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 300, 40))
	b := f.add(geometry.B(0, 500, 200, 60))
	c := f.add(geometry.B(900, 900, 100, 100))
	f.do(ToggleSelect{BlockID: a}, ToggleSelect{BlockID: b})

	f.do(
		ResizeStart{BlockID: a, Pointer: geometry.V(300, 40)},
		Resize{Delta: geometry.V(20, 30)},
	)
	assert.Equal(t, model.Size{W: model.Px(320), H: model.Px(70)}, f.block(a).Size)
	assert.Equal(t, model.Size{W: model.Px(220), H: model.Px(90)}, f.block(b).Size)
	assert.Equal(t, model.Size{W: model.Px(300), H: model.Auto}, f.block(c).Size)
}

func TestResizeUnselectedBlockOnlyAffectsItself(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 300, 40))
	b := f.add(geometry.B(0, 500, 200, 60))
	c := f.add(geometry.B(900, 900, 100, 100))
	f.do(ToggleSelect{BlockID: a}, ToggleSelect{BlockID: b})

	f.do(
		ResizeStart{BlockID: c, Pointer: geometry.V(1000, 1000)},
		Resize{Delta: geometry.V(10, 0)},
	)
	assert.Equal(t, model.Px(110), f.block(c).Size.W)
	assert.Equal(t, model.Px(300), f.block(a).Size.W)
	assert.Equal(t, []string{c}, f.s.SelectedBlockIDs)
}

func TestResizeSnapsTrailingEdge(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	f.add(geometry.B(0, 60, 203, 50))

	f.do(
		ResizeStart{BlockID: a, Pointer: geometry.V(100, 50)},
		Resize{Delta: geometry.V(96, 0)},
	)
	assert.Equal(t, model.Px(203), f.block(a).Size.W)
}

func TestRemoveBlock(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	b := f.add(geometry.B(0, 200, 100, 50))
	c := f.add(geometry.B(0, 400, 100, 50))
	f.do(
		RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
		RelationDrawMove{Delta: geometry.V(0, 200)},
		RelationDrawEnd{},
		RelationDrawStart{BlockID: b, Pointer: geometry.V(10, 210)},
		RelationDrawMove{Delta: geometry.V(0, 200)},
		RelationDrawEnd{},
	)
	require.Len(t, f.s.Relations, 2)

	t.Run("unselected removes only itself", func(t *testing.T) {
		f.do(ToggleSelect{BlockID: a})
		s := f.do(RemoveBlock{BlockID: c})
		assert.Len(t, s.Blocks, 2)
		assert.Len(t, s.Relations, 1, "relation b->c is pruned")
		assert.Equal(t, []string{a}, s.SelectedBlockIDs)
	})

	t.Run("selected removes the selection", func(t *testing.T) {
		f.do(ToggleSelect{BlockID: b})
		s := f.do(RemoveBlock{BlockID: a})
		assert.Empty(t, s.Blocks)
		assert.Empty(t, s.Relations)
		assert.Empty(t, s.SelectedBlockIDs)
		assert.Empty(t, f.stored().References)
	})

	t.Run("missing block", func(t *testing.T) {
		s := f.s
		assert.Same(t, s, f.do(RemoveBlock{BlockID: "missing"}))
	})
}

func TestRemoveRelation(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	f.add(geometry.B(0, 200, 100, 50))
	f.do(
		RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
		RelationDrawMove{Delta: geometry.V(0, 200)},
		RelationDrawEnd{},
	)
	require.Len(t, f.s.Relations, 1)
	s := f.s
	assert.Same(t, s, f.do(RemoveRelation{RelationID: "missing"}))
	s = f.do(RemoveRelation{RelationID: s.Relations[0].ID})
	assert.Empty(t, s.Relations)
	assert.Empty(t, f.stored().Relations)
}

func TestRelationDrawing(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	b := f.add(geometry.B(300, 0, 100, 50))

	t.Run("self relation is rejected", func(t *testing.T) {
		s := f.do(
			RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
			RelationDrawMove{Delta: geometry.V(20, 0)},
		)
		assert.Empty(t, s.HighlightedBlockID)
		s = f.do(RelationDrawEnd{})
		assert.Empty(t, s.Relations)
		assert.Nil(t, s.RelationDraw)
	})

	t.Run("relation to another block", func(t *testing.T) {
		s := f.do(
			RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
			RelationDrawMove{Delta: geometry.V(300, 0)},
		)
		assert.Equal(t, b, s.HighlightedBlockID)
		bi, _ := s.Block(b)
		assert.True(t, bi.Highlighted)

		s = f.do(RelationDrawEnd{})
		require.Len(t, s.Relations, 1)
		rel := s.Relations[0]
		assert.Equal(t, "arrow", rel.Type)
		assert.Equal(t, a, rel.FromID)
		assert.Equal(t, b, rel.ToID)
		assert.Empty(t, s.HighlightedBlockID)
	})

	t.Run("duplicate is rejected", func(t *testing.T) {
		s := f.do(
			RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
			RelationDrawMove{Delta: geometry.V(300, 0)},
			RelationDrawEnd{},
		)
		assert.Len(t, s.Relations, 1)
	})

	t.Run("reverse direction is a different relation", func(t *testing.T) {
		s := f.do(
			RelationDrawStart{BlockID: b, Pointer: geometry.V(310, 10)},
			RelationDrawMove{Delta: geometry.V(-300, 0)},
			RelationDrawEnd{},
		)
		assert.Len(t, s.Relations, 2)
	})

	t.Run("nothing under the pointer", func(t *testing.T) {
		s := f.do(
			RelationDrawStart{BlockID: a, Pointer: geometry.V(10, 10)},
			RelationDrawMove{Delta: geometry.V(0, 700)},
			RelationDrawEnd{},
		)
		assert.Len(t, s.Relations, 2)
	})
}

func TestSelectionBox(t *testing.T) {
	tests := []struct {
		name     string
		end      geometry.Vec2
		selected bool
	}{
		{"touching corner", geometry.V(100, 100), false},
		{"touching edge", geometry.V(100, 400), false},
		{"overlapping", geometry.V(100.5, 100.5), true},
		{"covering", geometry.V(500, 500), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.add(geometry.B(100, 100, 50, 50))
			s := f.do(
				SelectionStart{Pointer: geometry.V(0, 0)},
				SelectionMove{Delta: tt.end},
			)
			assert.True(t, s.Selecting)
			assert.Equal(t, geometry.Intersects(s.SelectionBox(), geometry.B(100, 100, 50, 50)), tt.selected)
			assert.Equal(t, tt.selected, s.IsSelected(id))

			s = f.do(SelectionEnd{})
			assert.False(t, s.Selecting)
			assert.Equal(t, tt.selected, s.IsSelected(id))
		})
	}
}

func TestSelectionBoxNormalizesDirection(t *testing.T) {
	f := newFixture(t)
	id := f.add(geometry.B(100, 100, 50, 50))
	s := f.do(
		SelectionStart{Pointer: geometry.V(300, 300)},
		SelectionMove{Delta: geometry.V(-180, -180)},
	)
	assert.Equal(t, geometry.B(120, 120, 180, 180), s.SelectionBox())
	assert.True(t, s.IsSelected(id))
}

func TestToggleAndClearSelection(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 10, 10))
	b := f.add(geometry.B(50, 0, 10, 10))

	s := f.do(ToggleSelect{BlockID: b}, ToggleSelect{BlockID: a})
	assert.Equal(t, []string{a, b}, s.SelectedBlockIDs, "reference order")
	s = f.do(ToggleSelect{BlockID: b})
	assert.Equal(t, []string{a}, s.SelectedBlockIDs)

	s = f.do(ClearSelection{})
	assert.Empty(t, s.SelectedBlockIDs)
	assert.Same(t, s, f.do(ClearSelection{}))
}

func TestCameraMove(t *testing.T) {
	f := newFixture(t)
	f.do(CameraScale{Pointer: geometry.V(0, 0), Delta: -2})
	scale := f.s.Camera.Scale
	s := f.do(CameraMove{Delta: geometry.V(30, -60)})
	assert.InDelta(t, 30/scale, s.Camera.Focus.X, 1e-9)
	assert.InDelta(t, -60/scale, s.Camera.Focus.Y, 1e-9)
	assert.Same(t, s, f.do(CameraMove{}))
}

func TestCameraZoomKeepsPointAnchored(t *testing.T) {
	f := newFixture(t)
	f.do(CameraMove{Delta: geometry.V(-120, 45)})
	pointer := geometry.V(310, 205)

	for _, delta := range []float64{-1, -1, 2.5, 1, -0.5} {
		before := f.s.ToEnv(pointer)
		s := f.do(CameraScale{Pointer: pointer, Delta: delta})
		after := s.ToEnv(pointer)
		assert.InDelta(t, before.X, after.X, 1e-9)
		assert.InDelta(t, before.Y, after.Y, 1e-9)
	}
}

func TestCameraZoomStepAndClamp(t *testing.T) {
	f := newFixture(t)
	s := f.do(CameraScale{Pointer: geometry.V(10, 10), Delta: -1})
	assert.InDelta(t, math.Sqrt(1.618), s.Camera.Scale, 1e-12)

	for i := 0; i < 20; i++ {
		f.do(CameraScale{Pointer: geometry.V(10, 10), Delta: -1})
	}
	assert.Equal(t, 4.0, f.s.Camera.Scale)

	clamped := f.s
	assert.Same(t, clamped, f.do(CameraScale{Pointer: geometry.V(99, 99), Delta: -1}),
		"a zoom that cannot change the scale leaves the focus alone")

	for i := 0; i < 40; i++ {
		f.do(CameraScale{Pointer: geometry.V(10, 10), Delta: 1})
	}
	assert.Equal(t, 0.1, f.s.Camera.Scale)
}

func TestOpenCurrentConceptIsNoop(t *testing.T) {
	f := newFixture(t)
	s := f.s
	assert.Same(t, s, f.do(OpenConcept{ConceptID: s.Viewing.ID}))
	assert.Same(t, s, f.do(OpenConcept{ConceptID: "missing"}))
	assert.Same(t, s, f.do(NavigateBack{}))
}

func TestOpenConceptAndBack(t *testing.T) {
	f := newFixture(t)
	home := f.s.Viewing.ID
	a := f.add(geometry.B(0, 0, 100, 50))
	child := f.block(a).To
	f.do(CameraMove{Delta: geometry.V(40, 40)}, ToggleSelect{BlockID: a})

	s := f.do(OpenConcept{ConceptID: child})
	assert.Equal(t, child, s.Viewing.ID)
	assert.Empty(t, s.Blocks)
	assert.Empty(t, s.SelectedBlockIDs)
	assert.Equal(t, model.DefaultCamera(), s.Camera)
	assert.Equal(t, 1, s.ExpandHistory.Len())
	assert.Equal(t, child, f.store.GetSettings().ViewingConceptID)

	stored, _ := f.store.GetConcept(home)
	assert.Equal(t, geometry.V(40, 40), stored.Camera.Focus, "leaving a canvas remembers its camera")

	s = f.do(NavigateBack{})
	assert.Equal(t, home, s.Viewing.ID)
	assert.Equal(t, geometry.V(40, 40), s.Camera.Focus)
	assert.Len(t, s.Blocks, 1)
	assert.Equal(t, 0, s.ExpandHistory.Len())
	assert.Equal(t, home, f.store.GetSettings().ViewingConceptID)
}

func TestHistoryIsBounded(t *testing.T) {
	f := newFixture(t)
	opts := DefaultOptions()
	opts.HistoryLength = 2
	f.r.SetOptions(opts)
	var err error
	f.s, err = f.r.Init(f.s.Viewport)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		id := f.add(geometry.B(0, 0, 10, 10))
		f.do(OpenConcept{ConceptID: f.block(id).To})
	}
	assert.Equal(t, 2, f.s.ExpandHistory.Len())
}

func TestUpdateSummary(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	child := f.block(a).To

	s := f.do(UpdateSummary{ConceptID: child, Summary: store.TextSummary("hello")})
	c, _ := f.store.GetConcept(child)
	assert.JSONEq(t, `"hello"`, string(c.Summary.Data))
	assert.NotEqual(t, s.Viewing.Summary, c.Summary)

	s = f.do(UpdateSummary{ConceptID: s.Viewing.ID, Summary: store.TextSummary("home!")})
	assert.JSONEq(t, `"home!"`, string(s.Viewing.Summary.Data))

	assert.Same(t, s, f.do(UpdateSummary{ConceptID: "missing"}))
}

func TestReplaceConcept(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	shared := f.block(a).To

	s := f.do(ReplaceConcept{BlockID: a, Summary: store.TextSummary("own copy")})
	replaced := f.block(a).To
	assert.NotEqual(t, shared, replaced)
	assert.Equal(t, replaced, f.stored().References[0].To)
	c, ok := f.store.GetConcept(replaced)
	require.True(t, ok)
	assert.JSONEq(t, `"own copy"`, string(c.Summary.Data))
	_, ok = f.store.GetConcept(shared)
	assert.True(t, ok, "the previous concept is kept")

	assert.Same(t, s, f.do(ReplaceConcept{BlockID: "missing", Summary: store.TextSummary("x")}))
	assert.Same(t, s, f.do(ReplaceConcept{BlockID: a}), "an invalid summary creates nothing")
}

func TestSetBlockColor(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	b := f.add(geometry.B(0, 100, 100, 50))
	f.do(ToggleSelect{BlockID: a}, ToggleSelect{BlockID: b})

	s := f.do(SetBlockColor{BlockID: a, Color: "red"})
	assert.Equal(t, "red", f.block(a).Color)
	assert.Equal(t, "red", f.block(b).Color)
	assert.Equal(t, "red", f.stored().References[1].Color)
	assert.Same(t, s, f.do(SetBlockColor{BlockID: b, Color: "red"}))
}

func TestFocusAndBlur(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	s := f.do(FocusBlock{BlockID: a})
	bi, _ := s.Block(a)
	assert.Equal(t, model.ModeFocusing, bi.Mode)
	assert.True(t, bi.Selected)
	assert.Same(t, s, f.do(FocusBlock{BlockID: a}))

	s = f.do(Blur{})
	bi, _ = s.Block(a)
	assert.Equal(t, model.ModeIdle, bi.Mode)
	assert.Same(t, s, f.do(Blur{}))
}

func TestViewportAndContextMenu(t *testing.T) {
	f := newFixture(t)
	s := f.s
	assert.Same(t, s, f.do(SetViewport{Size: s.Viewport}))
	s = f.do(SetViewport{Size: geometry.V(1024, 768)})
	assert.Equal(t, geometry.V(1024, 768), s.Viewport)

	assert.Same(t, s, f.do(CloseContextMenu{}))
	assert.Same(t, s, f.do(OpenContextMenu{BlockID: "missing"}))
	s = f.do(OpenContextMenu{Pointer: geometry.V(5, 5)})
	require.NotNil(t, s.ContextMenu)
	assert.Nil(t, f.do(CloseContextMenu{}).ContextMenu)
}

func TestUnchangedBlocksKeepIdentity(t *testing.T) {
	f := newFixture(t)
	a := f.add(geometry.B(0, 0, 100, 50))
	b := f.add(geometry.B(0, 500, 100, 50))
	before, _ := f.s.Block(b)

	f.do(
		MoveStart{BlockID: a, Pointer: geometry.V(10, 10)},
		Move{Delta: geometry.V(0, -100)},
	)
	after, _ := f.s.Block(b)
	assert.Same(t, before, after)
}

func TestVisibleBlocks(t *testing.T) {
	f := newFixture(t)
	inside := f.add(geometry.B(10, 10, 100, 50))
	outside := f.add(geometry.B(2000, 2000, 100, 50))
	unmeasured := f.do(CreateBlock{Pointer: geometry.V(5000, 5000)}).SelectedBlockIDs[0]

	pinned := model.NewBlock("tool", geometry.V(0, 0), model.Size{W: model.Px(50), H: model.Px(50)})
	pinned.PosType = model.PinnedTR
	f.s = f.r.commit(f.s, append(append([]model.Block(nil), f.s.Viewing.References...), pinned), nil)
	f.rects.Report(pinned.ID, geometry.B(9000, 9000, 50, 50))

	ids := func() []string {
		var out []string
		for _, bi := range VisibleBlocks(f.s, f.rects) {
			out = append(out, bi.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []string{inside, unmeasured, pinned.ID}, ids())

	f.do(CameraMove{Delta: geometry.V(1900, 1900)})
	assert.ElementsMatch(t, []string{outside, unmeasured, pinned.ID}, ids())
}

func TestInitFallsBackToHome(t *testing.T) {
	m := store.NewMemory()
	settings, err := store.EnsureHome(m)
	require.NoError(t, err)
	settings.ViewingConceptID = "gone"
	require.NoError(t, m.SaveSettings(settings))

	r := NewReducer(m, nil, DefaultOptions(), nil)
	s, err := r.Init(geometry.V(10, 10))
	require.NoError(t, err)
	assert.Equal(t, settings.HomeConceptID, s.Viewing.ID)

	_, err = NewReducer(store.NewMemory(), nil, DefaultOptions(), nil).Init(geometry.Vec2{})
	assert.ErrorIs(t, err, store.ErrConceptNotFound)
}
