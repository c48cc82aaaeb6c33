package canvas

import (
	"go.uber.org/zap"

	"nestcanvas/internal/model"
)

// SaveCamera stores the current camera in the viewed concept, so reopening
// it restores the view. It is a no-op when the camera did not change.
func (r *Reducer) SaveCamera(s *AppState) {
	stored, ok := r.store.GetConcept(s.Viewing.ID)
	if !ok || stored.Camera == s.Camera {
		return
	}
	r.update(stored.WithCamera(s.Camera))
}

// show switches the state to concept c with a new history.
func (r *Reducer) show(s *AppState, c model.Concept, history model.History) *AppState {
	r.SaveCamera(s)

	settings := r.store.GetSettings()
	settings.ViewingConceptID = c.ID
	if err := r.store.SaveSettings(settings); err != nil {
		r.logger.Warn("store settings failed", zap.Error(err))
	}

	next := &AppState{
		Viewing:       c,
		Blocks:        model.SynthesizeBlocks(c.ID, c.References, nil),
		Relations:     model.SynthesizeRelations(c.References, c.Relations),
		Camera:        c.Camera.OrDefault(),
		Viewport:      s.Viewport,
		ExpandHistory: history,
	}
	r.debug("concept opened", zap.String("concept", string(c.ID)), zap.Int("history", history.Len()))
	return next
}

func (r *Reducer) openConcept(s *AppState, a OpenConcept) *AppState {
	if a.ConceptID == s.Viewing.ID {
		return s
	}
	c, ok := r.store.GetConcept(a.ConceptID)
	if !ok {
		r.debug("open skipped: concept missing", zap.String("concept", string(a.ConceptID)))
		return s
	}
	return r.show(s, c, s.ExpandHistory.Push(s.Viewing.ID))
}

func (r *Reducer) navigateBack(s *AppState) *AppState {
	history, id, ok := s.ExpandHistory.Pop()
	if !ok {
		return s
	}
	c, ok := r.store.GetConcept(id)
	if !ok {
		r.debug("back skipped: concept missing", zap.String("concept", string(id)))
		next := s.clone()
		next.ExpandHistory = history
		return next
	}
	return r.show(s, c, history)
}
