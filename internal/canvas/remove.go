package canvas

import (
	"go.uber.org/zap"

	"nestcanvas/internal/model"
)

func (r *Reducer) removeBlock(s *AppState, a RemoveBlock) *AppState {
	if _, ok := s.Block(a.BlockID); !ok {
		return s
	}
	ids := s.targetSet(a.BlockID)

	refs := make([]model.Block, 0, len(s.Viewing.References))
	for _, b := range s.Viewing.References {
		if ids[b.ID] {
			r.rects.Forget(b.ID)
			continue
		}
		refs = append(refs, b)
	}
	rels := make([]model.Relation, 0, len(s.Viewing.Relations))
	for _, rel := range s.Viewing.Relations {
		if !rel.Touches(ids) {
			rels = append(rels, rel)
		}
	}

	next := s.clone()
	next.ContextMenu = nil
	if s.Gesture != nil {
		for id := range ids {
			if s.Gesture.has(id) {
				next.Gesture = nil
				next.Guidelines = nil
				break
			}
		}
	}
	r.debug("blocks removed", zap.Int("blocks", len(s.Viewing.References)-len(refs)))
	return r.commit(next, refs, rels)
}

func (r *Reducer) removeRelation(s *AppState, a RemoveRelation) *AppState {
	rels := make([]model.Relation, 0, len(s.Viewing.Relations))
	for _, rel := range s.Viewing.Relations {
		if rel.ID != a.RelationID {
			rels = append(rels, rel)
		}
	}
	if len(rels) == len(s.Viewing.Relations) {
		return s
	}
	next := s.clone()
	next.ContextMenu = nil
	return r.commit(next, s.Viewing.References, rels)
}
