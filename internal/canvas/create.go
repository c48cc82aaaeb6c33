package canvas

import (
	"go.uber.org/zap"

	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/store"
)

func (r *Reducer) newConcept(summary *model.Summary) model.Concept {
	if summary != nil {
		return model.NewConcept(*summary)
	}
	return model.NewConcept(store.TextSummary(""))
}

// place creates a concept, adds a block for it at pos and makes the new block
// the only selection.
func (r *Reducer) place(s *AppState, pos geometry.Vec2, summary *model.Summary, extra func(blockID string) []model.Relation) *AppState {
	c := r.newConcept(summary)
	if !r.create(c) {
		return s
	}
	b := model.NewBlock(c.ID, pos, model.Size{W: model.Px(r.opts.DefaultBlockWidth), H: model.Auto})

	refs := append(append([]model.Block(nil), s.Viewing.References...), b)
	rels := s.Viewing.Relations
	if extra != nil {
		rels = append(append([]model.Relation(nil), rels...), extra(b.ID)...)
	}

	next := s.clone()
	next.SelectedBlockIDs = []string{b.ID}
	next.ContextMenu = nil
	r.debug("block created", zap.String("block", b.ID), zap.String("concept", string(c.ID)))
	return r.commit(next, refs, rels)
}

func (r *Reducer) createBlock(s *AppState, a CreateBlock) *AppState {
	return r.place(s, s.ToEnv(a.Pointer), a.Summary, nil)
}

func (r *Reducer) createBlockRelative(s *AppState, a CreateBlockRelative) *AppState {
	bi, ok := s.Block(a.BlockID)
	if !ok || bi.PosType != model.Normal {
		return s
	}
	anchor, ok := r.rect(s, bi.ID)
	if !ok {
		r.debug("create relative skipped: anchor never measured", zap.String("block", bi.ID))
		return s
	}

	w, gap := r.opts.DefaultBlockWidth, r.opts.CreateOffset
	var pos geometry.Vec2
	switch a.Direction {
	case Below:
		pos = geometry.V(anchor.X, anchor.Bottom()+gap)
	case Above:
		// The new block's height is unknown until rendered; assume the anchor's.
		pos = geometry.V(anchor.X, anchor.Y-gap-anchor.H)
	case Left:
		pos = geometry.V(anchor.X-gap-w, anchor.Y)
	case Right:
		pos = geometry.V(anchor.Right()+gap, anchor.Y)
	default:
		return s
	}

	var extra func(string) []model.Relation
	if a.Connect {
		extra = func(id string) []model.Relation {
			return []model.Relation{model.NewRelation(r.opts.RelationType, bi.ID, id)}
		}
	}
	return r.place(s, pos, a.Summary, extra)
}
