package canvas

import (
	"math"

	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/snapping"
)

func (r *Reducer) resizeStart(s *AppState, a ResizeStart) *AppState {
	bi, ok := s.Block(a.BlockID)
	if !ok || bi.PosType != model.Normal {
		return s
	}
	next := s.clone()
	if !s.IsSelected(bi.ID) {
		next.SelectedBlockIDs = []string{bi.ID}
	}
	next.Gesture = r.startGesture(next, GestureResize, bi.ID, next.targetSet(bi.ID), a.Pointer)
	next.Guidelines = nil
	next.ContextMenu = nil
	next.applyUI()
	return next
}

func (r *Reducer) resize(s *AppState, a Resize) *AppState {
	g := s.Gesture
	if g == nil || g.Kind != GestureResize || a.Delta.IsZero() {
		return s
	}
	g = g.withPointer(g.Pointer.Add(a.Delta))
	start, ok := g.Start[g.CursorBlockID]
	if !ok {
		return s
	}

	minSize := r.opts.MinBlockSize
	grow := g.Pointer.Sub(g.StartPointer).Div(s.Camera.Scale)
	desired := geometry.BoxAt(start.Pos(), geometry.V(
		math.Max(minSize, start.W+grow.X),
		math.Max(minSize, start.H+grow.Y),
	))
	size, guides := snapping.Resize(desired, r.candidates(s, g.has), r.opts.Snap)
	delta := size.Sub(start.Size())

	refs := make([]model.Block, len(s.Viewing.References))
	for i, b := range s.Viewing.References {
		if from, ok := g.Start[b.ID]; ok {
			b = b.Resized(resizeDims(b.Size, from, delta, minSize))
		}
		refs[i] = b
	}

	next := s.clone()
	next.Gesture = g
	next.Guidelines = guides
	return r.commit(next, refs, s.Viewing.Relations)
}

// resizeDims grows a block that started out as from by delta. A dimension
// that has not been dragged keeps its previous value, auto included.
func resizeDims(cur model.Size, from geometry.Box, delta geometry.Vec2, minSize float64) model.Size {
	out := cur
	if delta.X != 0 || !cur.W.Auto {
		out.W = model.Px(math.Max(minSize, from.W+delta.X))
	}
	if delta.Y != 0 || !cur.H.Auto {
		out.H = model.Px(math.Max(minSize, from.H+delta.Y))
	}
	return out
}

func (r *Reducer) resizeEnd(s *AppState) *AppState {
	if s.Gesture == nil || s.Gesture.Kind != GestureResize {
		return s
	}
	next := s.clone()
	next.Gesture = nil
	next.Guidelines = nil
	next.applyUI()
	return next
}
