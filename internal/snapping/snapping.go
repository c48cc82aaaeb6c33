// Package snapping proposes alignment guidelines from nearby boxes and snaps
// moving or resizing boxes onto them.
package snapping

import (
	"math"

	"nestcanvas/internal/geometry"
)

// Side records which edge of a candidate box produced a guideline.
type Side int

const (
	SideTop Side = iota
	SideBottom
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "unknown"
	}
}

// Guideline is a candidate alignment value. Top/bottom guidelines are
// horizontal lines (a y value), left/right guidelines are vertical lines (an x value).
type Guideline struct {
	Value float64
	Side  Side
}

// Vertical reports whether g constrains x coordinates.
func (g Guideline) Vertical() bool {
	return g.Side == SideLeft || g.Side == SideRight
}

// Options are the tunables of the engine. SnapTolerance must be smaller than
// GuidelineTolerance for snapping to be meaningful.
type Options struct {
	SnapTolerance      float64
	GuidelineTolerance float64
	Gap                float64
}

func DefaultOptions() Options {
	return Options{
		SnapTolerance:      12,
		GuidelineTolerance: 64,
		Gap:                5,
	}
}

// Generate emits the edges of every candidate that, grown by tolerance,
// intersects cursor. Output order follows candidate order, each contributing
// top, bottom, left, right.
func Generate(cursor geometry.Box, candidates []geometry.Box, tolerance float64) []Guideline {
	var guides []Guideline
	for _, c := range candidates {
		if !geometry.Intersects(c.Grow(tolerance), cursor) {
			continue
		}
		guides = append(guides,
			Guideline{Value: c.Y, Side: SideTop},
			Guideline{Value: c.Bottom(), Side: SideBottom},
			Guideline{Value: c.X, Side: SideLeft},
			Guideline{Value: c.Right(), Side: SideRight},
		)
	}
	return guides
}

// Snap returns the guideline value closest to value when it lies within
// tolerance, otherwise value unchanged. Equidistant guidelines resolve to the
// lower coordinate.
func Snap(value float64, guidelines []float64, tolerance float64) (float64, bool) {
	targets := make([]target, len(guidelines))
	for i, g := range guidelines {
		targets[i] = target{value: g}
	}
	t, ok := nearest(value, targets, tolerance)
	if !ok {
		return value, false
	}
	return t.value, true
}

// target is an edge position a box edge may snap to, remembering the guideline
// that produced it.
type target struct {
	value float64
	guide Guideline
}

func nearest(value float64, targets []target, tolerance float64) (target, bool) {
	var (
		best     target
		bestDist = math.Inf(1)
		found    bool
	)
	for _, t := range targets {
		d := math.Abs(value - t.value)
		if d > tolerance {
			continue
		}
		if d < bestDist || (d == bestDist && t.value < best.value) {
			best, bestDist, found = t, d, true
		}
	}
	return best, found
}

// leadingTargets lists where a leading edge (left or top) may land: flush with
// a leading guideline, or one gap past a trailing one.
func leadingTargets(guides []Guideline, vertical bool, gap float64) []target {
	var out []target
	for _, g := range guides {
		if g.Vertical() != vertical {
			continue
		}
		switch g.Side {
		case SideLeft, SideTop:
			out = append(out, target{value: g.Value, guide: g})
		case SideRight, SideBottom:
			out = append(out, target{value: g.Value + gap, guide: g})
		}
	}
	return out
}

// trailingTargets lists where a trailing edge (right or bottom) may land.
func trailingTargets(guides []Guideline, vertical bool, gap float64) []target {
	var out []target
	for _, g := range guides {
		if g.Vertical() != vertical {
			continue
		}
		switch g.Side {
		case SideRight, SideBottom:
			out = append(out, target{value: g.Value, guide: g})
		case SideLeft, SideTop:
			out = append(out, target{value: g.Value - gap, guide: g})
		}
	}
	return out
}

// snapPosition snaps one axis of a moving box whose leading edge wants to sit
// at desired and whose extent is size.
func snapPosition(desired, size float64, guides []Guideline, vertical bool, opt Options) (float64, []Guideline) {
	lead, leadOK := nearest(desired, leadingTargets(guides, vertical, opt.Gap), opt.SnapTolerance)
	trail, trailOK := nearest(desired+size, trailingTargets(guides, vertical, opt.Gap), opt.SnapTolerance)

	switch {
	case leadOK && trailOK:
		fromLead := lead.value
		fromTrail := trail.value - size
		if math.Abs(fromTrail-desired) < math.Abs(fromLead-desired) {
			return fromTrail, []Guideline{trail.guide}
		}
		return fromLead, []Guideline{lead.guide}
	case leadOK:
		return lead.value, []Guideline{lead.guide}
	case trailOK:
		return trail.value - size, []Guideline{trail.guide}
	default:
		return desired, nil
	}
}

// Move snaps a box being dragged to desired. Both axes are snapped
// independently; the returned guidelines are the ones that took effect.
func Move(desired geometry.Box, candidates []geometry.Box, opt Options) (geometry.Vec2, []Guideline) {
	guides := Generate(desired, candidates, opt.GuidelineTolerance)
	if len(guides) == 0 {
		return desired.Pos(), nil
	}
	x, gx := snapPosition(desired.X, desired.W, guides, true, opt)
	y, gy := snapPosition(desired.Y, desired.H, guides, false, opt)
	return geometry.V(x, y), append(gx, gy...)
}

// Resize snaps the trailing edges of a box whose top-left is fixed and whose
// size is wanted to be desired.Size(). The snapped size is returned.
func Resize(desired geometry.Box, candidates []geometry.Box, opt Options) (geometry.Vec2, []Guideline) {
	guides := Generate(desired, candidates, opt.GuidelineTolerance)
	size := desired.Size()
	if len(guides) == 0 {
		return size, nil
	}
	var applied []Guideline
	if t, ok := nearest(desired.Right(), trailingTargets(guides, true, opt.Gap), opt.SnapTolerance); ok {
		size.X = t.value - desired.X
		applied = append(applied, t.guide)
	}
	if t, ok := nearest(desired.Bottom(), trailingTargets(guides, false, opt.Gap), opt.SnapTolerance); ok {
		size.Y = t.value - desired.Y
		applied = append(applied, t.guide)
	}
	return size, applied
}
