package reduce

import (
	"math"

	"github.com/pathviz/pathviz/wire"
)

const (
	// lodMinPoints is the point count below which LOD merging is skipped;
	// small batches are cheap to render as-is.
	lodMinPoints = 100
	// lodMaxScale is the zoom level above which LOD merging is skipped;
	// beyond it the view is already detailed enough that merging would be
	// visible.
	lodMaxScale = 0.5
)

// ApplyLOD merges near-duplicate points into weighted centroids using a
// uniform grid, bounding rendering cost at low zoom.
//
// The pass is the identity when len(points) < 100 or scale > 0.5. Otherwise
// the merge distance is d = pixelThreshold/scale (data units) and the grid
// cell size is 2d, so a 3x3 cell neighborhood always covers the full merge
// radius. Each unprocessed point seeds a cluster of the unprocessed points
// within distance d in its neighborhood; the cluster is replaced by the
// arithmetic mean of positions and color channels. Alpha is boosted by
// min(1, mean*(1+ln(n)*0.1)) to signal merged density.
//
// The centroid's entity id is the seed point's id, a deliberate policy:
// clusters may span entities at low zoom, and the seed id keeps the result
// deterministic for a given input order.
//
// The input slice is consumed; the result may share its backing array.
func ApplyLOD(points []wire.Point, pixelThreshold, scale float32) []wire.Point {
	if len(points) < lodMinPoints || scale > lodMaxScale {
		return points
	}
	if pixelThreshold <= 0 || scale <= 0 {
		return points
	}

	d := pixelThreshold / scale
	cellSize := 2 * d
	d2 := float64(d) * float64(d)

	grid := make(map[uint64][]int32, len(points)/4+1)
	for i, p := range points {
		key := cellKey(cellCoord(p.X, cellSize), cellCoord(p.Y, cellSize))
		grid[key] = append(grid[key], int32(i))
	}

	processed := make([]bool, len(points))
	out := make([]wire.Point, 0, len(points)/2)

	for i := range points {
		if processed[i] {
			continue
		}

		seed := points[i]
		processed[i] = true

		var sumX, sumY, sumR, sumG, sumB, sumA float64
		sumX, sumY = float64(seed.X), float64(seed.Y)
		sumR, sumG, sumB, sumA = float64(seed.R), float64(seed.G), float64(seed.B), float64(seed.A)
		n := 1

		cx := cellCoord(seed.X, cellSize)
		cy := cellCoord(seed.Y, cellSize)

		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				for _, j := range grid[cellKey(cx+dx, cy+dy)] {
					if processed[j] {
						continue
					}

					p := points[j]
					ddx := float64(p.X - seed.X)
					ddy := float64(p.Y - seed.Y)
					if ddx*ddx+ddy*ddy > d2 {
						continue
					}

					processed[j] = true
					sumX += float64(p.X)
					sumY += float64(p.Y)
					sumR += float64(p.R)
					sumG += float64(p.G)
					sumB += float64(p.B)
					sumA += float64(p.A)
					n++
				}
			}
		}

		if n == 1 {
			out = append(out, seed)
			continue
		}

		fn := float64(n)
		alpha := (sumA / fn) * (1 + math.Log(fn)*0.1)
		if alpha > 1 {
			alpha = 1
		}

		out = append(out, wire.Point{
			X:        float32(sumX / fn),
			Y:        float32(sumY / fn),
			R:        float32(sumR / fn),
			G:        float32(sumG / fn),
			B:        float32(sumB / fn),
			A:        float32(alpha),
			EntityID: seed.EntityID,
		})
	}

	return out
}

// cellCoord returns the grid cell index of a coordinate.
func cellCoord(v, cellSize float32) int32 {
	return int32(math.Floor(float64(v) / float64(cellSize)))
}

// cellKey packs two cell indices into one map key.
func cellKey(cx, cy int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cy))
}
