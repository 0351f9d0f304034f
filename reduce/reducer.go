// Package reduce implements the spatial reduction passes of the pipeline:
// viewport culling, level-of-detail merging, coordinate quantization, and
// pixel alignment.
//
// All passes consume their input slice: they either mutate points in place
// or reuse the input's backing array for the filtered result. Callers must
// not use the input slice after a pass returns. This matches the pipeline's
// ownership model, where a decoded batch is owned by the processing pass
// end to end.
package reduce

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/pathviz/pathviz/geom"
	"github.com/pathviz/pathviz/wire"
)

// CullMarginPixels is the fixed screen-space margin added on all sides of
// the view rectangle before culling. It prevents visible pop-in at the view
// edges when panning.
const CullMarginPixels = 50

// DefaultQuantizeStep is the default coordinate grid step for Quantize.
const DefaultQuantizeStep = 0.5

// Cull retains the points whose data-space position falls inside the
// screen-space view rectangle, expanded by CullMarginPixels/scale on all
// sides. The view rectangle is converted to data space via the inverse
// transform.
//
// Cull is a no-op when the view rectangle is empty or the transform is
// invalid; LOD and cull behavior for scale <= 0 is undefined upstream and
// must be rejected by the configuration setter.
func Cull(points []wire.Point, viewScreen r2.Rect, t geom.Transform) []wire.Point {
	if viewScreen.IsEmpty() || !t.Valid() {
		return points
	}

	margin := float64(CullMarginPixels / t.Scale)
	view := t.InvertRect(viewScreen).ExpandedByMargin(margin)

	out := points[:0]
	for _, p := range points {
		if view.ContainsPoint(r2.Point{X: float64(p.X), Y: float64(p.Y)}) {
			out = append(out, p)
		}
	}

	return out
}

// Quantize snaps each coordinate to a fixed grid: coord = round(coord/step)*step.
// x and y are quantized independently. A step <= 0 is a no-op.
//
// Quantization reduces coordinate entropy ahead of re-encoding; it is
// unrelated to LOD merging.
func Quantize(points []wire.Point, step float32) []wire.Point {
	if step <= 0 {
		return points
	}

	s := float64(step)
	for i := range points {
		points[i].X = float32(math.Round(float64(points[i].X)/s) * s)
		points[i].Y = float32(math.Round(float64(points[i].Y)/s) * s)
	}

	return points
}

// PixelAlign snaps coordinates to whole device pixels: coord =
// round(coord*scale)/scale. It only engages at scale >= 2, where sub-pixel
// jitter becomes visible; below that it is the identity.
func PixelAlign(points []wire.Point, t geom.Transform) []wire.Point {
	if t.Scale < 2 {
		return points
	}

	s := float64(t.Scale)
	for i := range points {
		points[i].X = float32(math.Round(float64(points[i].X)*s) / s)
		points[i].Y = float32(math.Round(float64(points[i].Y)*s) / s)
	}

	return points
}
