// Package canvas is the state machine behind a canvas view. Reduce applies
// one Action to an AppState and returns the next state, writing structural
// changes through to the concept store.
package canvas

import (
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
	"nestcanvas/internal/snapping"
)

// GestureKind is the pointer interaction in progress.
type GestureKind int

const (
	GestureMove GestureKind = iota + 1
	GestureResize
	GestureSelect
	GestureRelation
)

// Gesture carries the bookkeeping of one drag from its start action to its
// end action. Pointer positions are viewport pixels.
type Gesture struct {
	Kind          GestureKind
	CursorBlockID string
	StartPointer  geometry.Vec2
	Pointer       geometry.Vec2
	// Start holds the environment box of every block taking part, as it was
	// when the gesture began.
	Start map[string]geometry.Box
	// Order lists the ids in Start in reference order.
	Order []string
}

func (g *Gesture) has(id string) bool {
	_, ok := g.Start[id]
	return ok
}

func (g *Gesture) withPointer(p geometry.Vec2) *Gesture {
	out := *g
	out.Pointer = p
	return &out
}

// RelationDraw is the arrow being dragged out of a source block.
type RelationDraw struct {
	SourceBlockID string
	Type          string
	Pointer       geometry.Vec2
}

// ContextMenu is an open context menu at a viewport position, optionally
// about a block.
type ContextMenu struct {
	Pointer geometry.Vec2
	BlockID string
}

// AppState is everything the canvas view renders from. States are values:
// Reduce never modifies one, it returns either the same pointer or a new
// state sharing the unchanged parts.
type AppState struct {
	Viewing   model.Concept
	Blocks    []*model.BlockInstance
	Relations []model.Relation
	Camera    model.Camera
	// Viewport is the size of the visible area in pixels.
	Viewport geometry.Vec2

	SelectedBlockIDs  []string
	Selecting         bool
	SelectionBoxStart geometry.Vec2
	SelectionBoxEnd   geometry.Vec2

	PointerOffsetInCursorBox geometry.Vec2
	Gesture                  *Gesture
	Guidelines               []snapping.Guideline

	FocusedBlockID     string
	HighlightedBlockID string
	RelationDraw       *RelationDraw
	ContextMenu        *ContextMenu

	ExpandHistory model.History
}

func (s *AppState) clone() *AppState {
	out := *s
	return &out
}

// Block returns the instance with the given id.
func (s *AppState) Block(id string) (*model.BlockInstance, bool) {
	for _, bi := range s.Blocks {
		if bi.ID == id {
			return bi, true
		}
	}
	return nil, false
}

// IsSelected reports whether block id is selected.
func (s *AppState) IsSelected(id string) bool {
	for _, sel := range s.SelectedBlockIDs {
		if sel == id {
			return true
		}
	}
	return false
}

// SelectionBox is the normalized selection rectangle in environment units.
func (s *AppState) SelectionBox() geometry.Box {
	return geometry.Normalize(s.SelectionBoxStart, s.SelectionBoxEnd)
}

// ToEnv converts a viewport point with the current camera.
func (s *AppState) ToEnv(p geometry.Vec2) geometry.Vec2 {
	return geometry.ToEnv(s.Camera.Focus, s.Camera.Scale, p)
}

// ToViewport converts an environment point with the current camera.
func (s *AppState) ToViewport(p geometry.Vec2) geometry.Vec2 {
	return geometry.ToViewport(s.Camera.Focus, s.Camera.Scale, p)
}

// VisibleArea is the environment rectangle covered by the viewport.
func (s *AppState) VisibleArea() geometry.Box {
	return geometry.BoxAt(s.Camera.Focus, s.Viewport.Div(s.Camera.Scale))
}

func (s *AppState) selectedSet() map[string]bool {
	out := make(map[string]bool, len(s.SelectedBlockIDs))
	for _, id := range s.SelectedBlockIDs {
		out[id] = true
	}
	return out
}

// modeOf derives the interaction mode of one block from the state.
func (s *AppState) modeOf(id string) model.Mode {
	if g := s.Gesture; g != nil && g.has(id) {
		switch g.Kind {
		case GestureMove:
			return model.ModeMoving
		case GestureResize:
			return model.ModeResizing
		}
	}
	if id == s.FocusedBlockID {
		return model.ModeFocusing
	}
	return model.ModeIdle
}

// applyUI recomputes the UI fields of every instance. Instances whose state
// does not change keep their pointer. Selected ids that no longer exist are
// dropped.
func (s *AppState) applyUI() {
	present := make(map[string]bool, len(s.Blocks))
	for _, bi := range s.Blocks {
		present[bi.ID] = true
	}
	if len(s.SelectedBlockIDs) > 0 {
		kept := make([]string, 0, len(s.SelectedBlockIDs))
		for _, id := range s.SelectedBlockIDs {
			if present[id] {
				kept = append(kept, id)
			}
		}
		s.SelectedBlockIDs = kept
	}
	if !present[s.FocusedBlockID] {
		s.FocusedBlockID = ""
	}
	if !present[s.HighlightedBlockID] {
		s.HighlightedBlockID = ""
	}

	sel := s.selectedSet()
	blocks := make([]*model.BlockInstance, len(s.Blocks))
	for i, bi := range s.Blocks {
		blocks[i] = bi.WithState(s.modeOf(bi.ID), sel[bi.ID], bi.ID == s.HighlightedBlockID)
	}
	s.Blocks = blocks
}

// inReferenceOrder filters ids to the blocks present, in reference order.
func (s *AppState) inReferenceOrder(ids map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for _, bi := range s.Blocks {
		if ids[bi.ID] {
			out = append(out, bi.ID)
		}
	}
	return out
}
