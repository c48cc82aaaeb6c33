package canvas

import (
	"nestcanvas/internal/geometry"
	"nestcanvas/internal/model"
)

// Action is a user intent. The set of actions is closed: every type in this
// file implements it and Reduce handles each of them.
//
// Pointer fields are viewport pixels. Delta fields are pointer movement in
// viewport pixels since the previous action of the same gesture.
type Action interface {
	isAction()
}

// Direction places a new block next to an existing one.
type Direction int

const (
	Below Direction = iota
	Above
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Below:
		return "below"
	case Above:
		return "above"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

type (
	// CreateBlock creates a concept and places it at Pointer. A nil Summary
	// creates an empty text concept.
	CreateBlock struct {
		Pointer geometry.Vec2
		Summary *model.Summary
	}
	// CreateBlockRelative creates a concept next to block BlockID. With
	// Connect set, a relation from the existing block to the new one is
	// added as well.
	CreateBlockRelative struct {
		BlockID   string
		Direction Direction
		Connect   bool
		Summary   *model.Summary
	}

	MoveStart struct {
		BlockID string
		Pointer geometry.Vec2
	}
	Move struct {
		Delta geometry.Vec2
	}
	// MoveEnd finishes a move. Dropping onto another block moves the
	// selection into that block's concept.
	MoveEnd struct{}

	ResizeStart struct {
		BlockID string
		Pointer geometry.Vec2
	}
	Resize struct {
		Delta geometry.Vec2
	}
	ResizeEnd struct{}

	// RemoveBlock removes the selection when BlockID is part of it, otherwise
	// only BlockID.
	RemoveBlock struct {
		BlockID string
	}
	RemoveRelation struct {
		RelationID string
	}

	SelectionStart struct {
		Pointer geometry.Vec2
	}
	SelectionMove struct {
		Delta geometry.Vec2
	}
	SelectionEnd   struct{}
	ToggleSelect   struct{ BlockID string }
	ClearSelection struct{}

	// CameraMove shifts the camera focus by Delta pixels.
	CameraMove struct {
		Delta geometry.Vec2
	}
	// CameraScale zooms around Pointer. Positive Delta zooms out, one unit
	// per wheel notch.
	CameraScale struct {
		Pointer geometry.Vec2
		Delta   float64
	}

	RelationDrawStart struct {
		BlockID string
		Pointer geometry.Vec2
		// Type defaults to Options.RelationType.
		Type string
	}
	RelationDrawMove struct {
		Delta geometry.Vec2
	}
	RelationDrawEnd struct{}

	// OpenConcept shows ConceptID as the canvas.
	OpenConcept struct {
		ConceptID model.ConceptID
	}
	// NavigateBack returns to the previously viewed concept.
	NavigateBack struct{}

	UpdateSummary struct {
		ConceptID model.ConceptID
		Summary   model.Summary
	}
	// ReplaceConcept points a block at a new concept holding Summary. The
	// previous concept is left to its other references.
	ReplaceConcept struct {
		BlockID string
		Summary model.Summary
	}
	SetBlockColor struct {
		BlockID string
		Color   string
	}
	FocusBlock struct {
		BlockID string
	}
	Blur            struct{}
	SetViewport     struct{ Size geometry.Vec2 }
	OpenContextMenu struct {
		Pointer geometry.Vec2
		BlockID string
	}
	CloseContextMenu struct{}
)

func (CreateBlock) isAction()         {}
func (CreateBlockRelative) isAction() {}
func (MoveStart) isAction()           {}
func (Move) isAction()                {}
func (MoveEnd) isAction()             {}
func (ResizeStart) isAction()         {}
func (Resize) isAction()              {}
func (ResizeEnd) isAction()           {}
func (RemoveBlock) isAction()         {}
func (RemoveRelation) isAction()      {}
func (SelectionStart) isAction()      {}
func (SelectionMove) isAction()       {}
func (SelectionEnd) isAction()        {}
func (ToggleSelect) isAction()        {}
func (ClearSelection) isAction()      {}
func (CameraMove) isAction()          {}
func (CameraScale) isAction()         {}
func (RelationDrawStart) isAction()   {}
func (RelationDrawMove) isAction()    {}
func (RelationDrawEnd) isAction()     {}
func (OpenConcept) isAction()         {}
func (NavigateBack) isAction()        {}
func (UpdateSummary) isAction()       {}
func (ReplaceConcept) isAction()      {}
func (SetBlockColor) isAction()       {}
func (FocusBlock) isAction()          {}
func (Blur) isAction()                {}
func (SetViewport) isAction()         {}
func (OpenContextMenu) isAction()     {}
func (CloseContextMenu) isAction()    {}
