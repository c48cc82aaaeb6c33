package canvas

import (
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
)

func (r *Reducer) selectionStart(s *AppState, a SelectionStart) *AppState {
	p := s.ToEnv(a.Pointer)
	next := s.clone()
	next.Selecting = true
	next.SelectionBoxStart = p
	next.SelectionBoxEnd = p
	next.Gesture = &Gesture{Kind: GestureSelect, StartPointer: a.Pointer, Pointer: a.Pointer}
	next.SelectedBlockIDs = nil
	next.ContextMenu = nil
	next.applyUI()
	return next
}

func (r *Reducer) selectionMove(s *AppState, a SelectionMove) *AppState {
	g := s.Gesture
	if !s.Selecting || g == nil || g.Kind != GestureSelect || a.Delta.IsZero() {
		return s
	}
	g = g.withPointer(g.Pointer.Add(a.Delta))
	next := s.clone()
	next.Gesture = g
	next.SelectionBoxEnd = s.ToEnv(g.Pointer)
	next.SelectedBlockIDs = r.boxSelect(s, next.SelectionBox())
	next.applyUI()
	return next
}

// boxSelect returns the normal blocks whose measured rectangle intersects box.
func (r *Reducer) boxSelect(s *AppState, box geometry.Box) []string {
	var ids []string
	for _, bi := range s.Blocks {
		if bi.PosType != model.Normal {
			continue
		}
		rect, ok := r.rect(s, bi.ID)
		if ok && geometry.Intersects(box, rect) {
			ids = append(ids, bi.ID)
		}
	}
	return ids
}

func (r *Reducer) selectionEnd(s *AppState) *AppState {
	if !s.Selecting {
		return s
	}
	next := s.clone()
	next.Selecting = false
	next.Gesture = nil
	return next
}

func (r *Reducer) toggleSelect(s *AppState, a ToggleSelect) *AppState {
	if _, ok := s.Block(a.BlockID); !ok {
		return s
	}
	sel := s.selectedSet()
	sel[a.BlockID] = !sel[a.BlockID]
	next := s.clone()
	next.SelectedBlockIDs = s.inReferenceOrder(sel)
	next.applyUI()
	return next
}

func (r *Reducer) clearSelection(s *AppState) *AppState {
	if len(s.SelectedBlockIDs) == 0 {
		return s
	}
	next := s.clone()
	next.SelectedBlockIDs = nil
	next.applyUI()
	return next
}
