// Package geom provides the coordinate types shared by every pipeline stage:
// the pan/zoom view transform, the data-space bounding box, and the mapper
// from data space to screen space.
//
// All consumers (the reducer's viewport cull, the packer's render-surface
// callers, and any overlay that must align with the GPU path) go through
// the same functions here, so screen positions agree to the bit.
package geom

import "github.com/golang/geo/r2"

// Epsilon is the minimum magnitude used to guard scale and range
// denominators against division by zero.
const Epsilon = 1e-6

// Transform is a pan/zoom view transform: screen = data*Scale + Translate.
//
// Transforms are passed by value into each pipeline stage and are read-only
// during a processing pass; the camera/UI collaborator owns the mutable
// state. A Transform with Scale <= 0 is invalid and must be rejected at the
// configuration boundary, not inside the stages.
type Transform struct {
	Scale      float32
	TranslateX float32
	TranslateY float32
}

// IdentityTransform returns the no-op transform (scale 1, no translation).
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// Valid reports whether the transform can be applied and inverted.
func (t Transform) Valid() bool {
	return t.Scale > 0
}

// Apply maps a data-space coordinate to screen space.
func (t Transform) Apply(x, y float32) (float32, float32) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert maps a screen-space coordinate back to data space. The scale
// denominator is floored at Epsilon so a degenerate transform degrades
// instead of dividing by zero.
func (t Transform) Invert(sx, sy float32) (float32, float32) {
	s := t.Scale
	if s < Epsilon {
		s = Epsilon
	}

	return (sx - t.TranslateX) / s, (sy - t.TranslateY) / s
}

// InvertRect maps a screen-space rectangle to data space.
func (t Transform) InvertRect(screen r2.Rect) r2.Rect {
	loX, loY := t.Invert(float32(screen.X.Lo), float32(screen.Y.Lo))
	hiX, hiY := t.Invert(float32(screen.X.Hi), float32(screen.Y.Hi))

	return r2.RectFromPoints(
		r2.Point{X: float64(loX), Y: float64(loY)},
		r2.Point{X: float64(hiX), Y: float64(hiY)},
	)
}
