// Package wire implements the pathviz binary wire format for point batches.
//
// A batch buffer is a 4-byte little-endian point count followed by fixed-size
// point records. Two record layouts exist on the wire:
//
//   - Extended (28 bytes): 7 × float32: x, y, r, g, b, a, entity id.
//   - Legacy (12 bytes): 2 × float32 position + 4 × uint8 color. Color
//     channels are normalized by /255 on decode; the entity id defaults to 0.
//
// The decoder selects the layout by exact byte-size arithmetic. Buffers that
// match neither layout are decoded best-effort as a flat float32 array of
// extended records; this degraded path is logged at Warn level and is never
// fatal. Encoders always emit the extended layout, which is how legacy input
// is normalized going forward.
package wire

import (
	"log/slog"
	"math"
	"unsafe"

	"github.com/pathviz/pathviz/endian"
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/format"
	"github.com/pathviz/pathviz/internal/pool"
)

const (
	// HeaderSize is the size of the point-count header in bytes.
	HeaderSize = 4
	// ExtendedRecordSize is the size of one extended-layout record in bytes.
	ExtendedRecordSize = 28
	// LegacyRecordSize is the size of one legacy-layout record in bytes.
	LegacyRecordSize = 12

	// MaxEntityID is the largest entity id the extended layout can carry;
	// larger integers are not exact in the float32 id lane.
	MaxEntityID = 1<<24 - 1

	extendedFloats = 7
)

// Decoder decodes point batches from the wire format.
//
// The decoder is stateless and returned by value; it can be reused and is
// safe for concurrent use.
type Decoder struct {
	engine endian.EndianEngine
	logger *slog.Logger
}

// NewDecoder creates a decoder using the specified endian engine.
//
// The wire contract is little-endian; passing a different engine is only
// useful for diagnostics against foreign byte dumps. Degraded decodes are
// logged to slog.Default; use NewDecoderWithLogger to direct them elsewhere.
func NewDecoder(engine endian.EndianEngine) Decoder {
	return Decoder{engine: engine, logger: slog.Default()}
}

// NewDecoderWithLogger creates a decoder that logs degraded decodes to the
// given logger. A nil logger falls back to slog.Default.
func NewDecoderWithLogger(engine endian.EndianEngine, logger *slog.Logger) Decoder {
	if logger == nil {
		logger = slog.Default()
	}

	return Decoder{engine: engine, logger: logger}
}

// Decode decodes a batch buffer into points.
//
// Layout selection:
//   - count == 0 bypasses layout inference entirely (a zero-length payload
//     satisfies both size formulas; the fast path keeps the tie-break
//     deterministic; extended wins).
//   - payload == count*28 → extended layout.
//   - payload == count*12 → legacy layout.
//   - anything else → best-effort flat-float32 decode with n = ⌊floats/7⌋,
//     logged at Warn level.
//
// Returns errs.ErrBufferTooShort only when the buffer cannot hold the
// 4-byte count header; all other malformed inputs degrade, never fail.
func (d Decoder) Decode(data []byte) ([]Point, format.PointLayout, error) {
	return d.DecodeInto(nil, data)
}

// DecodeInto decodes a batch buffer, appending into dst[:0] to reuse its
// backing array. dst may be nil.
func (d Decoder) DecodeInto(dst []Point, data []byte) ([]Point, format.PointLayout, error) {
	if len(data) < HeaderSize {
		return nil, format.LayoutExtended, errs.ErrBufferTooShort
	}

	count := int(d.engine.Uint32(data[:HeaderSize]))
	payload := data[HeaderSize:]

	if count == 0 {
		return dst[:0], format.LayoutExtended, nil
	}

	switch {
	case len(payload) == count*ExtendedRecordSize:
		return d.decodeExtended(dst, payload, count), format.LayoutExtended, nil
	case len(payload) == count*LegacyRecordSize:
		return d.decodeLegacy(dst, payload, count), format.LayoutLegacy, nil
	default:
		inferred := len(payload) / 4 / extendedFloats
		d.logger.Warn("point buffer size matches no known layout, inferring extended records",
			"headerCount", count,
			"payloadBytes", len(payload),
			"inferredPoints", inferred,
		)

		if inferred == 0 {
			return dst[:0], format.LayoutInferred, nil
		}

		return d.decodeExtended(dst, payload, inferred), format.LayoutInferred, nil
	}
}

func (d Decoder) decodeExtended(dst []Point, payload []byte, count int) []Point {
	dst = growPoints(dst, count)

	// Zero-copy fast path: reinterpret the payload as float32 values when the
	// host byte order already matches the wire contract.
	if d.engine == endian.GetLittleEndianEngine() && endian.IsNativeLittleEndian() {
		floats := unsafeFloat32Slice(payload[:count*ExtendedRecordSize])
		for i := 0; i < count; i++ {
			f := floats[i*extendedFloats : i*extendedFloats+extendedFloats]
			dst = append(dst, Point{
				X: f[0], Y: f[1],
				R: f[2], G: f[3], B: f[4], A: f[5],
				EntityID: entityIDFromLane(f[6]),
			})
		}

		return dst
	}

	for i := 0; i < count; i++ {
		rec := payload[i*ExtendedRecordSize:]
		dst = append(dst, Point{
			X:        d.float32At(rec, 0),
			Y:        d.float32At(rec, 4),
			R:        d.float32At(rec, 8),
			G:        d.float32At(rec, 12),
			B:        d.float32At(rec, 16),
			A:        d.float32At(rec, 20),
			EntityID: entityIDFromLane(d.float32At(rec, 24)),
		})
	}

	return dst
}

func (d Decoder) decodeLegacy(dst []Point, payload []byte, count int) []Point {
	dst = growPoints(dst, count)

	for i := 0; i < count; i++ {
		rec := payload[i*LegacyRecordSize:]
		dst = append(dst, Point{
			X: d.float32At(rec, 0),
			Y: d.float32At(rec, 4),
			R: float32(rec[8]) / 255,
			G: float32(rec[9]) / 255,
			B: float32(rec[10]) / 255,
			A: float32(rec[11]) / 255,
			// Legacy records carry no entity id.
			EntityID: 0,
		})
	}

	return dst
}

// entityIDFromLane converts the float32 entity-id lane to a 24-bit id.
// Float-to-unsigned conversion of NaN, negative or oversized values is
// implementation-defined in Go, so degraded buffers are clamped into the
// id space before converting: NaN and negatives map to 0, values past the
// 24-bit ceiling to MaxEntityID.
func entityIDFromLane(f float32) uint32 {
	if !(f > 0) {
		return 0
	}
	if f >= MaxEntityID {
		return MaxEntityID
	}

	return uint32(f)
}

func (d Decoder) float32At(data []byte, offset int) float32 {
	return math.Float32frombits(d.engine.Uint32(data[offset : offset+4]))
}

// growPoints resets dst to zero length with capacity for at least n points.
func growPoints(dst []Point, n int) []Point {
	if cap(dst) < n {
		return make([]Point, 0, n)
	}

	return dst[:0]
}

// unsafeFloat32Slice reinterprets a byte slice as float32 values without
// copying. The caller must guarantee len(data) is a multiple of 4.
func unsafeFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}

	ptr := (*float32)(unsafe.Pointer(&data[0]))

	return unsafe.Slice(ptr, len(data)/4)
}

// Encoder encodes points into the extended wire layout using a pooled buffer
// with amortized growth.
//
// Typical use:
//
//	enc := wire.NewEncoder(endian.GetLittleEndianEngine())
//	enc.WriteSlice(points)
//	buf := enc.Detach()
//
// Detach returns an owned copy suitable for handing across the worker
// boundary and releases the pooled buffer. An Encoder is not safe for
// concurrent use.
type Encoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

// NewEncoder creates a new point encoder using the specified endian engine.
func NewEncoder(engine endian.EndianEngine) *Encoder {
	e := &Encoder{
		engine: engine,
		buf:    pool.GetBatchBuffer(),
	}
	// Reserve the count header; it is patched on Bytes/Detach.
	e.buf.ExtendOrGrow(HeaderSize)

	return e
}

// WritePoint encodes a single point in the extended layout.
//
// Panics if Finish has been called (nil buffer).
func (e *Encoder) WritePoint(p Point) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.buf.Grow(ExtendedRecordSize)
	start := e.buf.Len()
	e.buf.ExtendOrGrow(ExtendedRecordSize)
	e.putPoint(e.buf.Slice(start, start+ExtendedRecordSize), p)
	e.count++
}

// WriteSlice encodes a slice of points with a single buffer pre-allocation.
//
// Panics if Finish has been called (nil buffer).
func (e *Encoder) WriteSlice(points []Point) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	if len(points) == 0 {
		return
	}

	need := len(points) * ExtendedRecordSize
	e.buf.Grow(need)
	start := e.buf.Len()
	e.buf.ExtendOrGrow(need)

	for i, p := range points {
		offset := start + i*ExtendedRecordSize
		e.putPoint(e.buf.Slice(offset, offset+ExtendedRecordSize), p)
	}
	e.count += len(points)
}

// Bytes returns the encoded buffer with the count header patched in.
//
// The returned slice references the pooled internal buffer and is only valid
// until the next Write or Finish call. Use Detach for an owned copy.
func (e *Encoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	e.engine.PutUint32(e.buf.Slice(0, HeaderSize), uint32(e.count))

	return e.buf.Bytes()
}

// Len returns the number of points written since construction.
func (e *Encoder) Len() int {
	return e.count
}

// Size returns the size in bytes of the encoded output, header included.
func (e *Encoder) Size() int {
	if e.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len()
}

// Detach returns an owned copy of the encoded buffer and finishes the
// encoder. The copy's ownership transfers to the caller, matching the strict
// move semantics of the worker boundary.
func (e *Encoder) Detach() []byte {
	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	e.Finish()

	return out
}

// Finish returns buffer resources to the pool. After Finish the encoder is
// no longer usable; subsequent writes panic.
func (e *Encoder) Finish() {
	if e.buf != nil {
		pool.PutBatchBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

func (e *Encoder) putPoint(rec []byte, p Point) {
	e.engine.PutUint32(rec[0:4], math.Float32bits(p.X))
	e.engine.PutUint32(rec[4:8], math.Float32bits(p.Y))
	e.engine.PutUint32(rec[8:12], math.Float32bits(p.R))
	e.engine.PutUint32(rec[12:16], math.Float32bits(p.G))
	e.engine.PutUint32(rec[16:20], math.Float32bits(p.B))
	e.engine.PutUint32(rec[20:24], math.Float32bits(p.A))
	e.engine.PutUint32(rec[24:28], math.Float32bits(float32(p.EntityID)))
}

// Decode decodes a batch buffer using the little-endian wire contract and
// the default logger.
func Decode(data []byte) ([]Point, format.PointLayout, error) {
	return NewDecoder(endian.GetLittleEndianEngine()).Decode(data)
}

// Encode encodes points into an owned extended-layout buffer using the
// little-endian wire contract.
func Encode(points []Point) []byte {
	enc := NewEncoder(endian.GetLittleEndianEngine())
	enc.WriteSlice(points)

	return enc.Detach()
}
