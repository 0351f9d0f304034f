package geom

import "math"

// Mapper maps data-space coordinates to screen space for a given data
// bounding box, canvas size, and padding fraction.
//
// The mapping happens in two steps: a uniform fit of the bounding box into
// the padded canvas (preserving aspect ratio, centered), followed by the
// pan/zoom Transform. Render-surface consumers and overlay callers must use
// the same Mapper so markers align with the GPU-rendered path to pixel
// accuracy.
type Mapper struct {
	Bounds  BoundingBox
	Width   float64
	Height  float64
	Padding float64 // fraction of the canvas reserved on each side, e.g. 0.05
}

// NewMapper creates a mapper for the given bounds and canvas size with the
// given padding fraction. Padding outside [0, 0.5) is clamped.
func NewMapper(bounds BoundingBox, width, height, padding float64) Mapper {
	if padding < 0 || padding >= 0.5 {
		padding = 0
	}

	return Mapper{Bounds: bounds, Width: width, Height: height, Padding: padding}
}

// fit returns the uniform fit scale and the centering offsets. Range
// denominators are floored at Epsilon, so a degenerate (single point or
// empty) box maps to the canvas center instead of dividing by zero.
func (m Mapper) fit() (scale, offsetX, offsetY float64) {
	usableW := m.Width * (1 - 2*m.Padding)
	usableH := m.Height * (1 - 2*m.Padding)

	scale = math.Min(usableW/m.Bounds.Width(), usableH/m.Bounds.Height())

	// Center-based offsets keep a degenerate (single point) box at the
	// canvas center instead of pinning it to the padded edge.
	offsetX = m.Width/2 - (m.Bounds.MinX+m.Bounds.MaxX)/2*scale
	offsetY = m.Height/2 - (m.Bounds.MinY+m.Bounds.MaxY)/2*scale

	return scale, offsetX, offsetY
}

// ToScreen maps a data-space point to screen space under the pan/zoom
// transform t.
func (m Mapper) ToScreen(x, y float64, t Transform) (float64, float64) {
	scale, offsetX, offsetY := m.fit()

	fx := x*scale + offsetX
	fy := y*scale + offsetY

	return fx*float64(t.Scale) + float64(t.TranslateX), fy*float64(t.Scale) + float64(t.TranslateY)
}

// ToData maps a screen-space point back to data space; it is the exact
// inverse of ToScreen up to floating point error.
func (m Mapper) ToData(sx, sy float64, t Transform) (float64, float64) {
	scale, offsetX, offsetY := m.fit()

	ts := math.Max(float64(t.Scale), Epsilon)
	fx := (sx - float64(t.TranslateX)) / ts
	fy := (sy - float64(t.TranslateY)) / ts

	return (fx - offsetX) / scale, (fy - offsetY) / scale
}
