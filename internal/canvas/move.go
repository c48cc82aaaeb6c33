package canvas

import (
	"go.uber.org/zap"

	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/snapping"
)

// startGesture records the starting boxes of the normal blocks in ids.
func (r *Reducer) startGesture(s *AppState, kind GestureKind, cursor string, ids map[string]bool, pointer geometry.Vec2) *Gesture {
	g := &Gesture{
		Kind:          kind,
		CursorBlockID: cursor,
		StartPointer:  pointer,
		Pointer:       pointer,
		Start:         make(map[string]geometry.Box, len(ids)),
	}
	for _, bi := range s.Blocks {
		if ids[bi.ID] && bi.PosType == model.Normal {
			g.Start[bi.ID] = r.blockBox(s, bi.Block)
			g.Order = append(g.Order, bi.ID)
		}
	}
	return g
}

func (r *Reducer) moveStart(s *AppState, a MoveStart) *AppState {
	bi, ok := s.Block(a.BlockID)
	if !ok || bi.PosType != model.Normal {
		return s
	}
	next := s.clone()
	if !s.IsSelected(bi.ID) {
		next.SelectedBlockIDs = []string{bi.ID}
	}
	next.Gesture = r.startGesture(next, GestureMove, bi.ID, next.selectedSet(), a.Pointer)
	next.PointerOffsetInCursorBox = s.ToEnv(a.Pointer).Sub(bi.Pos)
	next.Guidelines = nil
	next.ContextMenu = nil
	next.applyUI()
	return next
}

func (r *Reducer) move(s *AppState, a Move) *AppState {
	g := s.Gesture
	if g == nil || g.Kind != GestureMove || a.Delta.IsZero() {
		return s
	}
	g = g.withPointer(g.Pointer.Add(a.Delta))
	start, ok := g.Start[g.CursorBlockID]
	if !ok {
		return s
	}

	desired := geometry.BoxAt(s.ToEnv(g.Pointer).Sub(s.PointerOffsetInCursorBox), start.Size())
	snapped, guides := snapping.Move(desired, r.candidates(s, g.has), r.opts.Snap)
	v := snapped.Sub(start.Pos())

	refs := make([]model.Block, len(s.Viewing.References))
	for i, b := range s.Viewing.References {
		if from, ok := g.Start[b.ID]; ok {
			b = b.Moved(from.Pos().Add(v))
		}
		refs[i] = b
	}

	next := s.clone()
	next.Gesture = g
	next.Guidelines = guides
	next.HighlightedBlockID = ""
	if hover, ok := r.hitTest(s, s.ToEnv(g.Pointer), g.has); ok {
		next.HighlightedBlockID = hover.ID
	}
	return r.commit(next, refs, s.Viewing.Relations)
}

func (r *Reducer) moveEnd(s *AppState) *AppState {
	g := s.Gesture
	if g == nil || g.Kind != GestureMove {
		return s
	}
	next := s.clone()
	next.Gesture = nil
	next.Guidelines = nil
	next.HighlightedBlockID = ""

	target, ok := r.hitTest(s, s.ToEnv(g.Pointer), g.has)
	if !ok {
		next.applyUI()
		return next
	}
	if target.To == s.Viewing.ID {
		r.debug("reparent skipped: target is the viewed concept", zap.String("block", target.ID))
		next.applyUI()
		return next
	}
	return r.reparent(next, g, target.To)
}

// reparent moves the blocks of g out of the viewed concept into dest. Their
// relative layout is kept and they are placed to the right of dest's
// existing content. Relations among them move along; relations crossing the
// boundary are dropped.
func (r *Reducer) reparent(s *AppState, g *Gesture, dest model.ConceptID) *AppState {
	target, ok := r.store.GetConcept(dest)
	if !ok {
		r.debug("reparent skipped: target concept missing", zap.String("concept", string(dest)))
		s.applyUI()
		return s
	}

	var moved, kept []model.Block
	var movedBoxes []geometry.Box
	for _, b := range s.Viewing.References {
		if g.has(b.ID) {
			moved = append(moved, b)
			movedBoxes = append(movedBoxes, r.blockBox(s, b))
		} else {
			kept = append(kept, b)
		}
	}
	if len(moved) == 0 {
		s.applyUI()
		return s
	}

	ids := make(map[string]bool, len(moved))
	for _, b := range moved {
		ids[b.ID] = true
	}
	var carried, remaining []model.Relation
	for _, rel := range s.Viewing.Relations {
		switch {
		case rel.Within(ids):
			carried = append(carried, rel)
		case rel.Touches(ids):
		default:
			remaining = append(remaining, rel)
		}
	}

	origin := geometry.Vec2{}
	existing := make([]geometry.Box, 0, len(target.References))
	for _, b := range target.References {
		if b.PosType == model.Normal {
			existing = append(existing, r.storedBox(b))
		}
	}
	if tb, ok := geometry.Bounds(existing); ok {
		origin = geometry.V(tb.Right()+r.opts.ReparentOffset, tb.Y)
	}
	mb, _ := geometry.Bounds(movedBoxes)
	shift := origin.Sub(mb.Pos())

	refs := append([]model.Block(nil), target.References...)
	for _, b := range moved {
		refs = append(refs, b.Moved(b.Pos.Add(shift)))
		// The cached rectangle describes the old canvas.
		r.rects.Forget(b.ID)
	}
	rels := append(append([]model.Relation(nil), target.Relations...), carried...)
	r.update(target.WithReferences(refs, rels))

	r.logger.Debug("blocks reparented",
		zap.Int("blocks", len(moved)),
		zap.String("from", string(s.Viewing.ID)),
		zap.String("to", string(dest)),
	)
	if kept == nil {
		kept = []model.Block{}
	}
	if remaining == nil {
		remaining = []model.Relation{}
	}
	return r.commit(s, kept, remaining)
}
