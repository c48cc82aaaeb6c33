// Package geometry holds the vector and box math shared by the canvas engine.
// Every function is total: no errors, no panics, no side effects.
package geometry

import "math"

// Vec2 is a point or a displacement in either viewport or environment space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Div divides both components by k. A zero divisor returns v unchanged.
func (v Vec2) Div(k float64) Vec2 {
	if k == 0 {
		return v
	}
	return Vec2{X: v.X / k, Y: v.Y / k}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Box is an axis-aligned rectangle; X/Y is the top-left corner.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// B is shorthand for Box{x, y, w, h}.
func B(x, y, w, h float64) Box {
	return Box{X: x, Y: y, W: w, H: h}
}

// BoxAt builds a box from a top-left position and a size vector.
func BoxAt(pos, size Vec2) Box {
	return Box{X: pos.X, Y: pos.Y, W: size.X, H: size.Y}
}

func (b Box) Pos() Vec2 { return Vec2{X: b.X, Y: b.Y} }
func (b Box) Size() Vec2 { return Vec2{X: b.W, Y: b.H} }
func (b Box) Right() float64 { return b.X + b.W }
func (b Box) Bottom() float64 { return b.Y + b.H }

// Center returns the midpoint of b.
func (b Box) Center() Vec2 {
	return Vec2{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Translate moves b by d.
func (b Box) Translate(d Vec2) Box {
	return Box{X: b.X + d.X, Y: b.Y + d.Y, W: b.W, H: b.H}
}

// Grow expands b by margin on every side. A negative margin shrinks it.
func (b Box) Grow(margin float64) Box {
	return Box{X: b.X - margin, Y: b.Y - margin, W: b.W + 2*margin, H: b.H + 2*margin}
}

// Intersects reports whether a and b overlap. Boxes that only touch along an
// edge do not intersect.
func Intersects(a, b Box) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X && a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// Contains reports whether p lies strictly inside b. Boundary points are outside.
func Contains(b Box, p Vec2) bool {
	return p.X > b.X && p.X < b.X+b.W && p.Y > b.Y && p.Y < b.Y+b.H
}

// Bounds returns the smallest box covering all boxes, and false when boxes is empty.
func Bounds(boxes []Box) (Box, bool) {
	if len(boxes) == 0 {
		return Box{}, false
	}
	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].Right(), boxes[0].Bottom()
	for _, b := range boxes[1:] {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.Right())
		maxY = math.Max(maxY, b.Bottom())
	}
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// Normalize builds a box from two arbitrary corners.
func Normalize(a, b Vec2) Box {
	return Box{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

// ToEnv converts a viewport point to environment coordinates for a camera
// whose top-left is at focus and which draws scale pixels per unit.
func ToEnv(focus Vec2, scale float64, p Vec2) Vec2 {
	return focus.Add(p.Div(scale))
}

// ToViewport is the inverse of ToEnv.
func ToViewport(focus Vec2, scale float64, p Vec2) Vec2 {
	return p.Sub(focus).Scale(scale)
}

// BoxToEnv converts a viewport-space rectangle to environment space.
func BoxToEnv(focus Vec2, scale float64, b Box) Box {
	return BoxAt(ToEnv(focus, scale, b.Pos()), b.Size().Div(scale))
}

// BoxToViewport converts an environment-space rectangle to viewport space.
func BoxToViewport(focus Vec2, scale float64, b Box) Box {
	return BoxAt(ToViewport(focus, scale, b.Pos()), b.Size().Scale(scale))
}
