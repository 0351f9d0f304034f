// Package path maintains the bounded-memory trajectory of each tracked
// entity and packs all active trajectories into contiguous staging buffers
// ready for a single bulk upload to a graphics device.
//
// The Store and Packer are owned by the consumer (render) side of the
// pipeline and must be used from a single goroutine; the worker side never
// touches them.
package path

import (
	"math"

	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/geom"
	"github.com/pathviz/pathviz/internal/options"
	"github.com/pathviz/pathviz/wire"
)

const (
	// DefaultMaxEntities is the default number of pre-allocated entity slots.
	DefaultMaxEntities = 16
	// DefaultCapacity is the default per-entity ring capacity in points.
	DefaultCapacity = 4096
)

// slot is one entity's fixed-capacity ring of positions and colors.
//
// The window [start, start+count) of the arrays is valid, oldest first.
// The arrays carry one extra capacity of slack: eviction slides the window
// start forward one point, and the window is compacted back to the array
// front only when it reaches the array end, once per capacity evictions.
// Appends on a full ring therefore cost O(1) amortized. Data outside the
// window is stale and never read, so clears do not zero the arrays.
type slot struct {
	id    uint32
	inUse bool
	start int
	count int

	positions []float32 // (capacity + slack) * 2
	colors    []float32 // (capacity + slack) * 4

	startX, startY float32
	curX, curY     float32
}

// Store holds one ring buffer per tracked entity.
//
// All slots are allocated up front at construction: the hot append path
// never allocates, and memory stays predictable. Ids beyond the slot budget
// are a configuration bound, not a runtime error; their points are silently
// dropped.
type Store struct {
	capacity int
	slots    []slot
	index    map[uint32]int // entity id → slot, assigned on first sight
	dirty    bool
}

// StoreOption configures a Store during construction.
type StoreOption = options.Option[*Store]

// WithMaxEntities sets the number of pre-allocated entity slots.
func WithMaxEntities(n int) StoreOption {
	return options.New(func(s *Store) error {
		if n <= 0 {
			return errs.ErrInvalidCapacity
		}
		s.slots = make([]slot, n)

		return nil
	})
}

// WithCapacity sets the per-entity ring capacity in points.
func WithCapacity(n int) StoreOption {
	return options.New(func(s *Store) error {
		if n <= 0 {
			return errs.ErrInvalidCapacity
		}
		s.capacity = n

		return nil
	})
}

// NewStore creates a Store with all entity slots pre-allocated.
func NewStore(opts ...StoreOption) (*Store, error) {
	s := &Store{
		capacity: DefaultCapacity,
		slots:    make([]slot, DefaultMaxEntities),
	}

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	for i := range s.slots {
		s.slots[i].positions = make([]float32, s.capacity*2*2)
		s.slots[i].colors = make([]float32, s.capacity*4*2)
	}
	s.index = make(map[uint32]int, len(s.slots))

	return s, nil
}

// Capacity returns the per-entity ring capacity in points.
func (s *Store) Capacity() int {
	return s.capacity
}

// MaxEntities returns the number of pre-allocated entity slots.
func (s *Store) MaxEntities() int {
	return len(s.slots)
}

// AddPoint appends one point to its entity's ring buffer.
//
// The first point for an entity claims a free slot and records the start
// position; once all slots are claimed, points for new ids are dropped. On
// a full ring the oldest point is evicted first (pure FIFO), then the new
// point is appended and becomes the current position.
func (s *Store) AddPoint(p wire.Point) {
	idx, ok := s.index[p.EntityID]
	if !ok {
		idx = s.claim(p.EntityID)
		if idx < 0 {
			return // slot budget exhausted, configuration bound
		}
	}

	sl := &s.slots[idx]

	if sl.count == 0 {
		sl.startX, sl.startY = p.X, p.Y
	}

	if sl.count == s.capacity {
		// Evict the oldest point by sliding the window start.
		sl.start++
		sl.count--
	}

	end := sl.start + sl.count
	if end*2 == len(sl.positions) {
		// The window reached the array end; compact it back to the front.
		copy(sl.positions, sl.positions[sl.start*2:end*2])
		copy(sl.colors, sl.colors[sl.start*4:end*4])
		sl.start = 0
		end = sl.count
	}

	pi := end * 2
	sl.positions[pi] = p.X
	sl.positions[pi+1] = p.Y

	ci := end * 4
	sl.colors[ci] = p.R
	sl.colors[ci+1] = p.G
	sl.colors[ci+2] = p.B
	sl.colors[ci+3] = p.A

	sl.count++
	sl.curX, sl.curY = p.X, p.Y
	s.dirty = true
}

// AddPoints appends a decoded batch. Arrival order within an entity is
// preserved, as it defines the path's temporal continuity for line rendering.
func (s *Store) AddPoints(points []wire.Point) {
	for _, p := range points {
		s.AddPoint(p)
	}
}

// claim assigns a free slot to the entity id, or returns -1 when none left.
func (s *Store) claim(id uint32) int {
	for i := range s.slots {
		if !s.slots[i].inUse {
			s.slots[i].inUse = true
			s.slots[i].id = id
			s.index[id] = i

			return i
		}
	}

	return -1
}

// Len returns the total number of valid points across all entities.
func (s *Store) Len() int {
	total := 0
	for i := range s.slots {
		if s.slots[i].inUse {
			total += s.slots[i].count
		}
	}

	return total
}

// ActiveEntities returns the number of claimed entity slots.
func (s *Store) ActiveEntities() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].inUse {
			n++
		}
	}

	return n
}

// EntityCount returns the valid point count for an entity.
func (s *Store) EntityCount(id uint32) int {
	if idx, ok := s.index[id]; ok {
		return s.slots[idx].count
	}

	return 0
}

// StartPosition returns the first recorded position for an entity.
func (s *Store) StartPosition(id uint32) (x, y float32, ok bool) {
	idx, found := s.index[id]
	if !found || s.slots[idx].count == 0 {
		return 0, 0, false
	}

	return s.slots[idx].startX, s.slots[idx].startY, true
}

// CurrentPosition returns the most recently appended position for an entity.
func (s *Store) CurrentPosition(id uint32) (x, y float32, ok bool) {
	idx, found := s.index[id]
	if !found || s.slots[idx].count == 0 {
		return 0, 0, false
	}

	return s.slots[idx].curX, s.slots[idx].curY, true
}

// EntityPoints returns a copy of an entity's valid points, oldest first.
// Intended for diagnostics and tests, not the hot path.
func (s *Store) EntityPoints(id uint32) []wire.Point {
	idx, ok := s.index[id]
	if !ok {
		return nil
	}

	sl := &s.slots[idx]
	out := make([]wire.Point, sl.count)
	for i := 0; i < sl.count; i++ {
		j := sl.start + i
		out[i] = wire.Point{
			X:        sl.positions[j*2],
			Y:        sl.positions[j*2+1],
			R:        sl.colors[j*4],
			G:        sl.colors[j*4+1],
			B:        sl.colors[j*4+2],
			A:        sl.colors[j*4+3],
			EntityID: id,
		}
	}

	return out
}

// BoundingBox scans every valid point across every entity and returns the
// enclosing box, or the uninitialized sentinel when no entity has points.
//
// The box is recomputed on demand rather than maintained incrementally;
// eviction can shrink it in ways that are expensive to track. Callers are
// expected to call it at most once per frame.
func (s *Store) BoundingBox() geom.BoundingBox {
	box := geom.NewBoundingBox()
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.inUse {
			continue
		}
		for i := 0; i < sl.count; i++ {
			j := sl.start + i
			box.Add(float64(sl.positions[j*2]), float64(sl.positions[j*2+1]))
		}
	}

	return box
}

// ClearEntity resets one entity's ring to empty. The slot stays claimed and
// the arrays are not zeroed; stale data beyond count is never read.
func (s *Store) ClearEntity(id uint32) {
	idx, ok := s.index[id]
	if !ok {
		return
	}

	sl := &s.slots[idx]
	sl.start = 0
	sl.count = 0
	sl.startX, sl.startY = 0, 0
	sl.curX, sl.curY = 0, 0
	s.dirty = true
}

// ClearAll resets every entity ring and releases all slot claims.
func (s *Store) ClearAll() {
	for i := range s.slots {
		s.slots[i] = slot{
			positions: s.slots[i].positions,
			colors:    s.slots[i].colors,
		}
	}
	clear(s.index)
	s.dirty = true
}

// Dirty reports whether the store changed since the last pack.
func (s *Store) Dirty() bool {
	return s.dirty
}

// colorByte converts a float color channel in [0,1] to an 8-bit channel,
// rounded and clamped. This is the single point in the pipeline where color
// precision is downcast.
func colorByte(c float32) uint8 {
	v := math.Round(float64(c) * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}

	return uint8(v)
}
