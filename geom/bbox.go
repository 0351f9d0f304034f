package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// BoundingBox is an axis-aligned data-space bounding box.
//
// The zero-data state is a sentinel with MinX/MinY at +Inf and MaxX/MaxY at
// -Inf, which distinguishes "no data yet" from a degenerate single-point
// box. Adding any point produces a valid (possibly zero-area) box.
type BoundingBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewBoundingBox returns the uninitialized sentinel box.
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// IsEmpty reports whether the box is still the uninitialized sentinel.
func (b BoundingBox) IsEmpty() bool {
	return b.MinX > b.MaxX
}

// Add extends the box to contain the point (x, y).
func (b *BoundingBox) Add(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

// Union extends the box to contain other. Empty boxes contribute nothing.
func (b *BoundingBox) Union(other BoundingBox) {
	if other.IsEmpty() {
		return
	}

	b.Add(other.MinX, other.MinY)
	b.Add(other.MaxX, other.MaxY)
}

// Width returns the x extent, floored at Epsilon for use as a denominator.
func (b BoundingBox) Width() float64 {
	return math.Max(b.MaxX-b.MinX, Epsilon)
}

// Height returns the y extent, floored at Epsilon for use as a denominator.
func (b BoundingBox) Height() float64 {
	return math.Max(b.MaxY-b.MinY, Epsilon)
}

// Rect converts the box to an r2.Rect. The sentinel converts to r2's empty
// rectangle.
func (b BoundingBox) Rect() r2.Rect {
	if b.IsEmpty() {
		return r2.EmptyRect()
	}

	return r2.RectFromPoints(
		r2.Point{X: b.MinX, Y: b.MinY},
		r2.Point{X: b.MaxX, Y: b.MaxY},
	)
}

// BoundingBoxFromRect converts an r2.Rect to a BoundingBox.
func BoundingBoxFromRect(r r2.Rect) BoundingBox {
	if r.IsEmpty() {
		return NewBoundingBox()
	}

	return BoundingBox{MinX: r.X.Lo, MinY: r.Y.Lo, MaxX: r.X.Hi, MaxY: r.Y.Hi}
}
