// Package model defines the persistent canvas entities: concepts, the blocks
// that place them on other concepts, and the relations between blocks.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"nestcanvas/internal/geometry"
)

// ConceptID identifies a concept across the whole store.
type ConceptID string

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Summary is the content of a concept. The canvas engine never interprets
// Data; content plugins resolved by Type do.
type Summary struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Stroke is a free-hand drawing path on a concept's canvas.
type Stroke struct {
	Points []geometry.Vec2 `json:"points"`
	Color  string          `json:"color,omitempty"`
	Width  float64         `json:"width,omitempty"`
}

// Camera is the view onto a canvas. Focus is the environment point at the
// viewport's top-left; Scale is pixels per environment unit.
type Camera struct {
	Focus geometry.Vec2 `json:"focus"`
	Scale float64       `json:"scale"`
}

// DefaultCamera looks at the origin at 1:1.
func DefaultCamera() Camera {
	return Camera{Scale: 1}
}

// OrDefault replaces an unset camera (zero or negative scale) with DefaultCamera.
func (c Camera) OrDefault() Camera {
	if c.Scale <= 0 {
		return DefaultCamera()
	}
	return c
}

// Concept is both a piece of content and, when it has references, a canvas.
// Values are treated as immutable: changes produce a new Concept.
type Concept struct {
	ID             ConceptID  `json:"id" validate:"required"`
	Summary        Summary    `json:"summary"`
	References     []Block    `json:"references"`
	Relations      []Relation `json:"relations"`
	Drawing        []Stroke   `json:"drawing,omitempty"`
	Camera         Camera     `json:"camera"`
	CreatedTime    time.Time  `json:"createdTime"`
	LastEditedTime time.Time  `json:"lastEditedTime"`
}

// NewConcept allocates a concept with a fresh id and timestamps.
func NewConcept(summary Summary) Concept {
	now := time.Now().UTC()
	return Concept{
		ID:             ConceptID(NewID()),
		Summary:        summary,
		References:     []Block{},
		Relations:      []Relation{},
		Camera:         DefaultCamera(),
		CreatedTime:    now,
		LastEditedTime: now,
	}
}

// Clone returns a copy that shares no slices with c.
func (c Concept) Clone() Concept {
	out := c
	out.Summary.Data = append(json.RawMessage(nil), c.Summary.Data...)
	out.References = append([]Block(nil), c.References...)
	out.Relations = make([]Relation, len(c.Relations))
	for i, r := range c.Relations {
		out.Relations[i] = r.clone()
	}
	if c.Drawing != nil {
		out.Drawing = make([]Stroke, len(c.Drawing))
		for i, s := range c.Drawing {
			s.Points = append([]geometry.Vec2(nil), s.Points...)
			out.Drawing[i] = s
		}
	}
	return out
}

// IsCanvas reports whether c contains any blocks.
func (c Concept) IsCanvas() bool {
	return len(c.References) > 0
}

// Block returns the reference with the given id.
func (c Concept) Block(id string) (Block, bool) {
	for _, b := range c.References {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// WithReferences returns a copy of c with new references and relations and a
// bumped edit time.
func (c Concept) WithReferences(refs []Block, rels []Relation) Concept {
	out := c
	out.References = refs
	out.Relations = rels
	out.LastEditedTime = time.Now().UTC()
	return out
}

// WithSummary returns a copy of c with a new summary.
func (c Concept) WithSummary(s Summary) Concept {
	out := c
	out.Summary = s
	out.LastEditedTime = time.Now().UTC()
	return out
}

// WithCamera returns a copy of c remembering the given view. The edit time
// is not touched: looking at a canvas is not editing it.
func (c Concept) WithCamera(cam Camera) Concept {
	out := c
	out.Camera = cam
	return out
}

// Settings is the persisted application state.
type Settings struct {
	Debugging        bool      `json:"debugging"`
	HomeConceptID    ConceptID `json:"homeConceptId"`
	ViewingConceptID ConceptID `json:"viewingConceptId"`
}
