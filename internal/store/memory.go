package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"nestcanvas/internal/model"
)

var _ Store = (*Memory)(nil)

// Memory keeps every concept in a map. It is the read-your-writes layer of
// Buffered and a complete store on its own for tests and scratch sessions.
type Memory struct {
	mu          sync.RWMutex
	concepts    map[model.ConceptID]model.Concept
	settings    model.Settings
	initialized bool
	lastUpdated time.Time
	validate    *validator.Validate
}

func NewMemory() *Memory {
	return &Memory{
		concepts: make(map[model.ConceptID]model.Concept),
		validate: validator.New(),
	}
}

// IsValid reports whether the store was initialized and its home concept exists.
func (m *Memory) IsValid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized || m.settings.HomeConceptID == "" {
		return false
	}
	_, ok := m.concepts[m.settings.HomeConceptID]
	return ok
}

// Init replaces the whole content of the store.
func (m *Memory) Init(settings model.Settings, concepts []model.Concept) error {
	next := make(map[model.ConceptID]model.Concept, len(concepts))
	for _, c := range concepts {
		if err := m.validate.Struct(c); err != nil {
			return fmt.Errorf("invalid concept %q: %w", c.ID, err)
		}
		next[c.ID] = c.Clone()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.concepts = next
	m.settings = settings
	m.initialized = true
	m.lastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) GetConcept(id model.ConceptID) (model.Concept, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.concepts[id]
	if !ok {
		return model.Concept{}, false
	}
	return c.Clone(), true
}

// GetAllConcepts returns every concept ordered by creation time, then id.
func (m *Memory) GetAllConcepts() []model.Concept {
	m.mu.RLock()
	out := make([]model.Concept, 0, len(m.concepts))
	for _, c := range m.concepts {
		out = append(out, c.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedTime.Equal(out[j].CreatedTime) {
			return out[i].CreatedTime.Before(out[j].CreatedTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) CreateConcept(c model.Concept) error {
	if err := m.validate.Struct(c); err != nil {
		return fmt.Errorf("invalid concept: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	if _, ok := m.concepts[c.ID]; ok {
		return fmt.Errorf("create %q: %w", c.ID, ErrConceptExists)
	}
	m.concepts[c.ID] = c.Clone()
	m.lastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) UpdateConcept(c model.Concept) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	if _, ok := m.concepts[c.ID]; !ok {
		return fmt.Errorf("update %q: %w", c.ID, ErrConceptNotFound)
	}
	m.concepts[c.ID] = c.Clone()
	m.lastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) GetSettings() model.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Memory) SaveSettings(s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	m.settings = s
	m.lastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) GetLastUpdatedTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdated
}
