package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"nestcanvas/internal/geometry"
)

// PosType selects the coordinate space of a block.
type PosType int

const (
	// Normal blocks live in environment coordinates and follow the camera.
	Normal PosType = iota
	// Pinned blocks are anchored to a viewport corner, in pixels.
	PinnedTL
	PinnedTR
	PinnedBL
	PinnedBR
)

var posTypeNames = map[PosType]string{
	Normal:   "normal",
	PinnedTL: "pinnedTL",
	PinnedTR: "pinnedTR",
	PinnedBL: "pinnedBL",
	PinnedBR: "pinnedBR",
}

func (p PosType) String() string {
	if s, ok := posTypeNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p PosType) MarshalText() ([]byte, error) {
	s, ok := posTypeNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown pos type %d", int(p))
	}
	return []byte(s), nil
}

func (p *PosType) UnmarshalText(b []byte) error {
	for k, v := range posTypeNames {
		if v == string(b) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown pos type %q", string(b))
}

// Dimension is a block width or height: a number, or "auto" when the
// rendered content decides.
type Dimension struct {
	Value float64
	Auto  bool
}

// Auto is the content-sized dimension.
var Auto = Dimension{Auto: true}

// Px is a fixed dimension.
func Px(v float64) Dimension {
	return Dimension{Value: v}
}

// Or returns the fixed value, or fallback when d is auto.
func (d Dimension) Or(fallback float64) float64 {
	if d.Auto {
		return fallback
	}
	return d.Value
}

func (d Dimension) String() string {
	if d.Auto {
		return "auto"
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64)
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.Auto {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(d.Value)
}

func (d *Dimension) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "auto" {
			return fmt.Errorf("invalid dimension %q", s)
		}
		*d = Auto
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid dimension: %w", err)
	}
	*d = Px(v)
	return nil
}

// Size is a block's width and height.
type Size struct {
	W Dimension `json:"w"`
	H Dimension `json:"h"`
}

// Block places a concept on a parent concept's canvas. It is persisted as one
// of the parent's references.
type Block struct {
	ID             string        `json:"id"`
	To             ConceptID     `json:"to"`
	PosType        PosType       `json:"posType"`
	Pos            geometry.Vec2 `json:"pos"`
	Size           Size          `json:"size"`
	Color          string        `json:"color,omitempty"`
	CreatedTime    time.Time     `json:"createdTime"`
	LastEditedTime time.Time     `json:"lastEditedTime"`
}

// NewBlock allocates a normal block pointing at to.
func NewBlock(to ConceptID, pos geometry.Vec2, size Size) Block {
	now := time.Now().UTC()
	return Block{
		ID:             NewID(),
		To:             to,
		PosType:        Normal,
		Pos:            pos,
		Size:           size,
		CreatedTime:    now,
		LastEditedTime: now,
	}
}

// Box returns the block's declared rectangle, substituting auto dimensions
// with the given fallbacks.
func (b Block) Box(autoW, autoH float64) geometry.Box {
	return geometry.B(b.Pos.X, b.Pos.Y, b.Size.W.Or(autoW), b.Size.H.Or(autoH))
}

// Equal compares blocks field by field, using time.Equal for timestamps.
func (b Block) Equal(o Block) bool {
	return b.ID == o.ID &&
		b.To == o.To &&
		b.PosType == o.PosType &&
		b.Pos == o.Pos &&
		b.Size == o.Size &&
		b.Color == o.Color &&
		b.CreatedTime.Equal(o.CreatedTime) &&
		b.LastEditedTime.Equal(o.LastEditedTime)
}

// Moved returns a copy of b at pos.
func (b Block) Moved(pos geometry.Vec2) Block {
	b.Pos = pos
	b.LastEditedTime = time.Now().UTC()
	return b
}

// Resized returns a copy of b with the given size.
func (b Block) Resized(size Size) Block {
	b.Size = size
	b.LastEditedTime = time.Now().UTC()
	return b
}

// Entity names used in relation endpoints.
const EntityBlock = "block"

// Relation is a directed, typed arrow between two blocks of one concept.
type Relation struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	FromEntity string         `json:"fromEntity"`
	FromID     string         `json:"fromId"`
	ToEntity   string         `json:"toEntity"`
	ToID       string         `json:"toId"`
	UserData   map[string]any `json:"userData,omitempty"`
}

// NewRelation allocates a block-to-block relation.
func NewRelation(typ, fromBlock, toBlock string) Relation {
	return Relation{
		ID:         NewID(),
		Type:       typ,
		FromEntity: EntityBlock,
		FromID:     fromBlock,
		ToEntity:   EntityBlock,
		ToID:       toBlock,
	}
}

// SameEndpoints reports whether r and o are duplicates: same type and endpoints.
func (r Relation) SameEndpoints(o Relation) bool {
	return r.Type == o.Type &&
		r.FromEntity == o.FromEntity && r.FromID == o.FromID &&
		r.ToEntity == o.ToEntity && r.ToID == o.ToID
}

// Touches reports whether either endpoint of r is a block in ids.
func (r Relation) Touches(ids map[string]bool) bool {
	return (r.FromEntity == EntityBlock && ids[r.FromID]) ||
		(r.ToEntity == EntityBlock && ids[r.ToID])
}

// Within reports whether both endpoints of r are blocks in ids.
func (r Relation) Within(ids map[string]bool) bool {
	return r.FromEntity == EntityBlock && ids[r.FromID] &&
		r.ToEntity == EntityBlock && ids[r.ToID]
}

func (r Relation) clone() Relation {
	if r.UserData != nil {
		ud := make(map[string]any, len(r.UserData))
		for k, v := range r.UserData {
			ud[k] = v
		}
		r.UserData = ud
	}
	return r
}
