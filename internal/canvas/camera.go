package canvas

import "math"

// zoomStep is the scale factor of one wheel notch.
var zoomStep = math.Sqrt(1.618)

// ZoomedScale returns the scale after delta wheel notches, clamped to
// [lo, hi]. Positive delta zooms out.
func ZoomedScale(scale, delta, lo, hi float64) float64 {
	next := scale * math.Pow(zoomStep, -delta)
	return math.Min(hi, math.Max(lo, next))
}

func (r *Reducer) cameraMove(s *AppState, a CameraMove) *AppState {
	if a.Delta.IsZero() {
		return s
	}
	next := s.clone()
	next.Camera.Focus = s.Camera.Focus.Add(a.Delta.Div(s.Camera.Scale))
	return next
}

// cameraScale zooms so that the environment point under the pointer stays
// under the pointer.
func (r *Reducer) cameraScale(s *AppState, a CameraScale) *AppState {
	scale := ZoomedScale(s.Camera.Scale, a.Delta, r.opts.MinScale, r.opts.MaxScale)
	if scale == s.Camera.Scale {
		return s
	}
	anchor := s.ToEnv(a.Pointer)
	next := s.clone()
	next.Camera.Scale = scale
	next.Camera.Focus = anchor.Sub(a.Pointer.Div(scale))
	return next
}
