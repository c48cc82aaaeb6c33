package canvas

import (
	"go.uber.org/zap"

	"nestcanvas/internal/model"
)

func (r *Reducer) updateSummary(s *AppState, a UpdateSummary) *AppState {
	c, ok := r.store.GetConcept(a.ConceptID)
	if !ok {
		return s
	}
	c = c.WithSummary(a.Summary)
	r.update(c)

	next := s.clone()
	if c.ID == s.Viewing.ID {
		next.Viewing = next.Viewing.WithSummary(a.Summary)
	}
	return next
}

func (r *Reducer) replaceConcept(s *AppState, a ReplaceConcept) *AppState {
	if _, ok := s.Block(a.BlockID); !ok {
		r.debug("replace: unknown block", zap.String("block", a.BlockID))
		return s
	}
	c := model.NewConcept(a.Summary)
	if !r.create(c) {
		return s
	}
	refs := make([]model.Block, len(s.Viewing.References))
	for i, b := range s.Viewing.References {
		if b.ID == a.BlockID {
			b.To = c.ID
			b.LastEditedTime = c.CreatedTime
		}
		refs[i] = b
	}
	return r.commit(s.clone(), refs, s.Viewing.Relations)
}

func (r *Reducer) setBlockColor(s *AppState, a SetBlockColor) *AppState {
	if _, ok := s.Block(a.BlockID); !ok {
		return s
	}
	ids := s.targetSet(a.BlockID)
	changed := false
	refs := make([]model.Block, len(s.Viewing.References))
	for i, b := range s.Viewing.References {
		if ids[b.ID] && b.Color != a.Color {
			b.Color = a.Color
			changed = true
		}
		refs[i] = b
	}
	if !changed {
		return s
	}
	next := s.clone()
	next.ContextMenu = nil
	return r.commit(next, refs, s.Viewing.Relations)
}

func (r *Reducer) focusBlock(s *AppState, a FocusBlock) *AppState {
	if _, ok := s.Block(a.BlockID); !ok || s.FocusedBlockID == a.BlockID {
		return s
	}
	next := s.clone()
	next.FocusedBlockID = a.BlockID
	next.SelectedBlockIDs = []string{a.BlockID}
	next.ContextMenu = nil
	next.applyUI()
	return next
}

func (r *Reducer) blur(s *AppState) *AppState {
	if s.FocusedBlockID == "" {
		return s
	}
	next := s.clone()
	next.FocusedBlockID = ""
	next.applyUI()
	return next
}

func (r *Reducer) setViewport(s *AppState, a SetViewport) *AppState {
	if a.Size == s.Viewport {
		return s
	}
	next := s.clone()
	next.Viewport = a.Size
	return next
}

func (r *Reducer) openContextMenu(s *AppState, a OpenContextMenu) *AppState {
	if a.BlockID != "" {
		if _, ok := s.Block(a.BlockID); !ok {
			return s
		}
	}
	next := s.clone()
	next.ContextMenu = &ContextMenu{Pointer: a.Pointer, BlockID: a.BlockID}
	return next
}

func (r *Reducer) closeContextMenu(s *AppState) *AppState {
	if s.ContextMenu == nil {
		return s
	}
	next := s.clone()
	next.ContextMenu = nil
	return next
}
