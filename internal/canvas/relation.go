package canvas

import (
	"go.uber.org/zap"

	"nestcanvas/internal/model"
)

func (r *Reducer) relationDrawStart(s *AppState, a RelationDrawStart) *AppState {
	if _, ok := s.Block(a.BlockID); !ok {
		return s
	}
	typ := a.Type
	if typ == "" {
		typ = r.opts.RelationType
	}
	next := s.clone()
	next.RelationDraw = &RelationDraw{SourceBlockID: a.BlockID, Type: typ, Pointer: a.Pointer}
	next.HighlightedBlockID = ""
	next.ContextMenu = nil
	next.applyUI()
	return next
}

// hovered is the block under the relation pointer, never the source.
func (r *Reducer) hovered(s *AppState, d *RelationDraw) (*model.BlockInstance, bool) {
	return r.hitTest(s, s.ToEnv(d.Pointer), func(id string) bool { return id == d.SourceBlockID })
}

func (r *Reducer) relationDrawMove(s *AppState, a RelationDrawMove) *AppState {
	if s.RelationDraw == nil || a.Delta.IsZero() {
		return s
	}
	d := *s.RelationDraw
	d.Pointer = d.Pointer.Add(a.Delta)

	next := s.clone()
	next.RelationDraw = &d
	next.HighlightedBlockID = ""
	if target, ok := r.hovered(s, &d); ok {
		next.HighlightedBlockID = target.ID
	}
	next.applyUI()
	return next
}

func (r *Reducer) relationDrawEnd(s *AppState) *AppState {
	d := s.RelationDraw
	if d == nil {
		return s
	}
	next := s.clone()
	next.RelationDraw = nil
	next.HighlightedBlockID = ""
	next.applyUI()

	target, ok := r.hovered(s, d)
	if !ok || target.ID == d.SourceBlockID {
		r.debug("relation dropped: no target")
		return next
	}
	rel := model.NewRelation(d.Type, d.SourceBlockID, target.ID)
	for _, existing := range s.Viewing.Relations {
		if existing.SameEndpoints(rel) {
			r.debug("relation dropped: duplicate", zap.String("relation", existing.ID))
			return next
		}
	}
	rels := append(append([]model.Relation(nil), s.Viewing.Relations...), rel)
	return r.commit(next, s.Viewing.References, rels)
}
