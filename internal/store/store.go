// Package store persists concepts and settings. The canvas reducer talks to
// the Store interface only; adapters decide how and when bytes hit disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nestcanvas/internal/model"
)

var (
	ErrNotInitialized  = errors.New("store not initialized")
	ErrConceptExists   = errors.New("concept already exists")
	ErrConceptNotFound = errors.New("concept not found")
)

// Store is the concept database seen by the canvas engine. GetConcept must
// reflect the latest UpdateConcept immediately, whatever the adapter does
// with physical writes.
type Store interface {
	IsValid() bool
	Init(settings model.Settings, concepts []model.Concept) error
	GetConcept(id model.ConceptID) (model.Concept, bool)
	GetAllConcepts() []model.Concept
	CreateConcept(c model.Concept) error
	UpdateConcept(c model.Concept) error
	GetSettings() model.Settings
	SaveSettings(s model.Settings) error
	GetLastUpdatedTime() time.Time
}

// TextSummary builds a plain text summary.
func TextSummary(text string) model.Summary {
	data, _ := json.Marshal(text)
	return model.Summary{Type: "text", Data: data}
}

// EnsureHome makes s valid: when no home concept exists yet, one is created
// and both the home and the viewed canvas point at it. A viewed concept that
// went missing falls back to home.
func EnsureHome(s Store) (model.Settings, error) {
	if s.IsValid() {
		settings := s.GetSettings()
		if _, ok := s.GetConcept(settings.ViewingConceptID); !ok {
			settings.ViewingConceptID = settings.HomeConceptID
			if err := s.SaveSettings(settings); err != nil {
				return settings, fmt.Errorf("reset viewing concept: %w", err)
			}
		}
		return settings, nil
	}

	home := model.NewConcept(TextSummary("Home"))
	settings := s.GetSettings()
	settings.HomeConceptID = home.ID
	settings.ViewingConceptID = home.ID

	existing := s.GetAllConcepts()
	if err := s.Init(settings, append(existing, home)); err != nil {
		return settings, fmt.Errorf("init store: %w", err)
	}
	return settings, nil
}
