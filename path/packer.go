package path

import (
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/internal/pool"
)

// Draw describes one entity's contiguous range inside the packed staging
// buffers. Draws are regenerated on every pack and have no identity beyond
// the current frame. Ranges with Count < 2 are not drawable as a line strip
// but remain present for marker overlays.
type Draw struct {
	Start int
	Count int
}

// Packed is the staging result: one contiguous position array (f32 pairs),
// one color array (8-bit RGBA), and the per-entity draw list, ready for a
// single bulk upload to a GPU-resident buffer.
type Packed struct {
	Positions []float32
	Colors    []uint8
	Draws     []Draw
	Total     int
}

// Packer assembles the staging buffers from a Store.
//
// Packing is re-run only when the store has been mutated since the last
// pack; clean frames return the cached result, amortizing the O(total
// points) cost across frames with no new data. The staging slices are
// reused between packs, and the color plane lives in a frame-pooled byte
// buffer, so a returned Packed is only valid until the next Pack or
// Release call.
type Packer struct {
	maxPoints int
	colorBuf  *pool.ByteBuffer
	packed    Packed
	valid     bool
}

// NewPacker creates a Packer with the given global point budget.
func NewPacker(maxPoints int) (*Packer, error) {
	if maxPoints <= 0 {
		return nil, errs.ErrInvalidMaxPoints
	}

	return &Packer{maxPoints: maxPoints}, nil
}

// MaxPoints returns the global point budget.
func (pk *Packer) MaxPoints() int {
	return pk.maxPoints
}

// Pack writes all active entities into the staging buffers and returns the
// result. When total demand exceeds the budget, each entity is capped at
// floor(maxPoints/entityCount) points and contributes its most recent
// points. Truncation keeps the tail, favoring current-position fidelity
// over full history.
func (pk *Packer) Pack(store *Store) *Packed {
	if !store.dirty && pk.valid {
		return &pk.packed
	}

	total := store.Len()
	active := store.ActiveEntities()

	perEntityCap := -1 // unlimited
	if active > 0 && total > pk.maxPoints {
		perEntityCap = pk.maxPoints / active
	}

	if pk.colorBuf == nil {
		pk.colorBuf = pool.GetFrameBuffer()
	}
	pk.colorBuf.Reset()
	pk.packed.Positions = pk.packed.Positions[:0]
	pk.packed.Draws = pk.packed.Draws[:0]

	offset := 0
	for i := range store.slots {
		sl := &store.slots[i]
		if !sl.inUse {
			continue
		}

		keep := sl.count
		if perEntityCap >= 0 && keep > perEntityCap {
			keep = perEntityCap
		}
		first := sl.start + sl.count - keep // tail slice: most recent points win
		last := sl.start + sl.count

		cstart := pk.colorBuf.Len()
		pk.colorBuf.ExtendOrGrow(keep * 4)
		cdst := pk.colorBuf.Bytes()[cstart:]

		for j := first; j < last; j++ {
			pk.packed.Positions = append(pk.packed.Positions,
				sl.positions[j*2], sl.positions[j*2+1])

			k := (j - first) * 4
			cdst[k] = colorByte(sl.colors[j*4])
			cdst[k+1] = colorByte(sl.colors[j*4+1])
			cdst[k+2] = colorByte(sl.colors[j*4+2])
			cdst[k+3] = colorByte(sl.colors[j*4+3])
		}

		pk.packed.Draws = append(pk.packed.Draws, Draw{Start: offset, Count: keep})
		offset += keep
	}

	pk.packed.Colors = pk.colorBuf.Bytes()
	pk.packed.Total = offset
	store.dirty = false
	pk.valid = true

	return &pk.packed
}

// Release returns the pooled color staging buffer and drops the cached
// pack. Call it when the packer is retired; a later Pack draws a fresh
// buffer from the pool.
func (pk *Packer) Release() {
	if pk.colorBuf != nil {
		pool.PutFrameBuffer(pk.colorBuf)
		pk.colorBuf = nil
	}
	pk.packed = Packed{}
	pk.valid = false
}
