// Package arrow routes curved connectors between two boxes.
package arrow

import (
	"math"

	"nestcanvas/internal/geometry"
)

// Side is the edge of a box an arrow leaves from or enters.
type Side int

const (
	Top Side = iota
	Bottom
	Left
	Right
)

var sides = [...]Side{Top, Bottom, Left, Right}

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Angle is the arrowhead rotation for an endpoint on side s, in degrees.
func (s Side) Angle() float64 {
	switch s {
	case Bottom:
		return 270
	case Left:
		return 0
	case Right:
		return 180
	default:
		return 90
	}
}

// normal is the outward unit vector of side s.
func (s Side) normal() geometry.Vec2 {
	switch s {
	case Bottom:
		return geometry.V(0, 1)
	case Left:
		return geometry.V(-1, 0)
	case Right:
		return geometry.V(1, 0)
	default:
		return geometry.V(0, -1)
	}
}

// Options tune the router.
type Options struct {
	// Padding pushes anchors away from the box edge.
	Padding float64
	// MinMargin is the minimum control-point pull, so curves between
	// near-adjacent boxes do not fold back on themselves.
	MinMargin float64
}

func DefaultOptions() Options {
	return Options{Padding: 8, MinMargin: 40}
}

// Path is a cubic Bézier connector from Start to End with control points C1
// and C2. StartAngle and EndAngle only orient arrowheads.
type Path struct {
	Start, C1, C2, End   geometry.Vec2
	StartSide, EndSide   Side
	StartAngle, EndAngle float64
}

// anchor returns the padded mid-point of side s of box b.
func anchor(b geometry.Box, s Side, pad float64) geometry.Vec2 {
	switch s {
	case Bottom:
		return geometry.V(b.X+b.W/2, b.Bottom()+pad)
	case Left:
		return geometry.V(b.X-pad, b.Y+b.H/2)
	case Right:
		return geometry.V(b.Right()+pad, b.Y+b.H/2)
	default:
		return geometry.V(b.X+b.W/2, b.Y-pad)
	}
}

// Route picks the closest pair of side anchors on from and to, skipping
// anchors that fall inside the other padded box, and bends the curve along
// each side's normal. When every pair is excluded (overlapping boxes) both
// ends fall back to the top side.
func Route(from, to geometry.Box, opt Options) Path {
	fromPadded := from.Grow(opt.Padding)
	toPadded := to.Grow(opt.Padding)

	startSide, endSide := Top, Top
	best := math.Inf(1)
	for _, ss := range sides {
		s := anchor(from, ss, opt.Padding)
		if geometry.Contains(toPadded, s) {
			continue
		}
		for _, es := range sides {
			e := anchor(to, es, opt.Padding)
			if geometry.Contains(fromPadded, e) {
				continue
			}
			if d := geometry.Dist(s, e); d < best {
				best, startSide, endSide = d, ss, es
			}
		}
	}

	start := anchor(from, startSide, opt.Padding)
	end := anchor(to, endSide, opt.Padding)
	return Path{
		Start:      start,
		C1:         control(start, end, startSide, opt.MinMargin),
		C2:         control(end, start, endSide, opt.MinMargin),
		End:        end,
		StartSide:  startSide,
		EndSide:    endSide,
		StartAngle: startSide.Angle(),
		EndAngle:   endSide.Angle(),
	}
}

// control pulls p along the normal of side by half the distance to other on
// that axis, but never less than minMargin.
func control(p, other geometry.Vec2, side Side, minMargin float64) geometry.Vec2 {
	var span float64
	switch side {
	case Top, Bottom:
		span = math.Abs(other.Y - p.Y)
	default:
		span = math.Abs(other.X - p.X)
	}
	return p.Add(side.normal().Scale(math.Max(span/2, minMargin)))
}

// Point evaluates the curve at t in [0, 1].
func (p Path) Point(t float64) geometry.Vec2 {
	u := 1 - t
	a := p.Start.Scale(u * u * u)
	b := p.C1.Scale(3 * u * u * t)
	c := p.C2.Scale(3 * u * t * t)
	d := p.End.Scale(t * t * t)
	return a.Add(b).Add(c).Add(d)
}

// Sample returns n+1 evenly spaced points along the curve, Start and End
// included. n below 1 yields just the two endpoints.
func (p Path) Sample(n int) []geometry.Vec2 {
	if n < 1 {
		return []geometry.Vec2{p.Start, p.End}
	}
	pts := make([]geometry.Vec2, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, p.Point(float64(i)/float64(n)))
	}
	return pts
}
