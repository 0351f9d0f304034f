package wire

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pathviz/pathviz/endian"
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/format"
)

func testPoints() []Point {
	return []Point{
		{X: 0, Y: 0, R: 1, G: 0, B: 0, A: 1, EntityID: 0},
		{X: 100, Y: 100, R: 0, G: 1, B: 0, A: 0.5, EntityID: 7},
		{X: -3.25, Y: 8.5, R: 0.25, G: 0.75, B: 1, A: 1, EntityID: 42},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	points := testPoints()
	buf := Encode(points)

	require.Equal(t, HeaderSize+len(points)*ExtendedRecordSize, len(buf))

	decoded, layout, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, format.LayoutExtended, layout)
	require.Equal(t, points, decoded)
}

func TestDecode_BufferTooShort(t *testing.T) {
	_, _, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, errs.ErrBufferTooShort)

	_, _, err = Decode(nil)
	require.ErrorIs(t, err, errs.ErrBufferTooShort)
}

func TestDecode_ZeroCountFastPath(t *testing.T) {
	// With count=0 both layout size formulas hold (0*12 == 0*28 == 0); the
	// dedicated fast path must resolve the tie deterministically.
	buf := binary.LittleEndian.AppendUint32(nil, 0)

	decoded, layout, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, format.LayoutExtended, layout)
	require.Empty(t, decoded)
}

func TestDecode_EntityIDLaneClamped(t *testing.T) {
	// Float-to-unsigned conversion of NaN, negative or oversized values is
	// implementation-defined; degraded buffers must still yield
	// deterministic ids inside the 24-bit space.
	lanes := []struct {
		raw  float32
		want uint32
	}{
		{float32(math.NaN()), 0},
		{-3, 0},
		{1e9, MaxEntityID},
		{MaxEntityID, MaxEntityID},
		{42, 42},
	}

	engine := endian.GetLittleEndianEngine()
	buf := engine.AppendUint32(nil, uint32(len(lanes)))
	for _, lane := range lanes {
		for _, v := range []float32{1, 2, 0.5, 0.5, 0.5, 1, lane.raw} {
			buf = engine.AppendUint32(buf, math.Float32bits(v))
		}
	}

	for _, eng := range []endian.EndianEngine{
		endian.GetLittleEndianEngine(),
		endian.GetBigEndianEngine(),
	} {
		data := buf
		if eng == endian.GetBigEndianEngine() {
			// Re-encode the same records big-endian so the generic decode
			// path is exercised alongside the zero-copy one.
			data = eng.AppendUint32(nil, uint32(len(lanes)))
			for _, lane := range lanes {
				for _, v := range []float32{1, 2, 0.5, 0.5, 0.5, 1, lane.raw} {
					data = eng.AppendUint32(data, math.Float32bits(v))
				}
			}
		}

		decoded, layout, err := NewDecoder(eng).Decode(data)
		require.NoError(t, err)
		require.Equal(t, format.LayoutExtended, layout)
		require.Len(t, decoded, len(lanes))
		for i, lane := range lanes {
			require.Equal(t, lane.want, decoded[i].EntityID, "lane %v", lane.raw)
		}
	}
}

func TestDecode_LegacyLayout(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	buf := engine.AppendUint32(nil, 2)
	// Record 1: position (1.5, -2), color (255, 0, 128, 255).
	buf = engine.AppendUint32(buf, math.Float32bits(1.5))
	buf = engine.AppendUint32(buf, math.Float32bits(-2))
	buf = append(buf, 255, 0, 128, 255)
	// Record 2: position (0, 3), color (0, 51, 102, 204).
	buf = engine.AppendUint32(buf, math.Float32bits(0))
	buf = engine.AppendUint32(buf, math.Float32bits(3))
	buf = append(buf, 0, 51, 102, 204)

	decoded, layout, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, format.LayoutLegacy, layout)
	require.Len(t, decoded, 2)

	require.Equal(t, float32(1.5), decoded[0].X)
	require.Equal(t, float32(-2), decoded[0].Y)
	require.Equal(t, float32(1), decoded[0].R)
	require.Equal(t, float32(0), decoded[0].G)
	require.InDelta(t, 128.0/255.0, decoded[0].B, 1e-6)
	require.Equal(t, float32(1), decoded[0].A)
	require.Equal(t, uint32(0), decoded[0].EntityID, "legacy records carry no entity id")

	require.InDelta(t, 51.0/255.0, decoded[1].G, 1e-6)
	require.InDelta(t, 204.0/255.0, decoded[1].A, 1e-6)
}

func TestDecode_LegacyNormalizedByEncode(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	buf := engine.AppendUint32(nil, 1)
	buf = engine.AppendUint32(buf, math.Float32bits(4))
	buf = engine.AppendUint32(buf, math.Float32bits(5))
	buf = append(buf, 255, 255, 255, 255)

	decoded, layout, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, format.LayoutLegacy, layout)

	// Re-encoding always yields the extended layout.
	reencoded := Encode(decoded)
	again, layout2, err := Decode(reencoded)
	require.NoError(t, err)
	require.Equal(t, format.LayoutExtended, layout2)
	require.Equal(t, decoded, again)
}

func TestDecode_InferredFallback(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	// A header claiming 3 points over a payload holding 2 extended records
	// plus 3 stray floats: matches neither formula, so the decoder infers
	// floor(17/7) = 2 points from the flat float array.
	points := testPoints()[:2]
	buf := engine.AppendUint32(nil, 3)
	for _, p := range points {
		for _, f := range []float32{p.X, p.Y, p.R, p.G, p.B, p.A, float32(p.EntityID)} {
			buf = engine.AppendUint32(buf, math.Float32bits(f))
		}
	}
	for i := 0; i < 3; i++ {
		buf = engine.AppendUint32(buf, math.Float32bits(9))
	}

	dec := NewDecoderWithLogger(engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	decoded, layout, err := dec.Decode(buf)
	require.NoError(t, err, "size mismatch must degrade, never fail")
	require.Equal(t, format.LayoutInferred, layout)
	require.Equal(t, points, decoded)
}

func TestDecode_InferredFallbackTooSmall(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	// Header claims a point but the payload holds fewer than 7 floats.
	buf := engine.AppendUint32(nil, 1)
	buf = engine.AppendUint32(buf, math.Float32bits(1))

	dec := NewDecoderWithLogger(engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	decoded, layout, err := dec.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, format.LayoutInferred, layout)
	require.Empty(t, decoded)
}

func TestDecodeInto_ReusesBacking(t *testing.T) {
	buf := Encode(testPoints())

	scratch := make([]Point, 0, 16)
	decoded, _, err := NewDecoder(endian.GetLittleEndianEngine()).DecodeInto(scratch, buf)
	require.NoError(t, err)
	require.Equal(t, testPoints(), decoded)
	require.Equal(t, &scratch[:1][0], &decoded[0], "must reuse the provided backing array")
}

func TestDecode_BigEndianEngine(t *testing.T) {
	engine := endian.GetBigEndianEngine()

	enc := NewEncoder(engine)
	enc.WriteSlice(testPoints())
	buf := enc.Detach()

	decoded, layout, err := NewDecoder(engine).Decode(buf)
	require.NoError(t, err)
	require.Equal(t, format.LayoutExtended, layout)
	require.Equal(t, testPoints(), decoded)
}

func TestEncoder_WritePoint(t *testing.T) {
	enc := NewEncoder(endian.GetLittleEndianEngine())
	for _, p := range testPoints() {
		enc.WritePoint(p)
	}
	require.Equal(t, 3, enc.Len())
	require.Equal(t, HeaderSize+3*ExtendedRecordSize, enc.Size())

	decoded, _, err := Decode(enc.Bytes())
	require.NoError(t, err)
	require.Equal(t, testPoints(), decoded)

	enc.Finish()
	require.Panics(t, func() { enc.WritePoint(Point{}) })
	require.Panics(t, func() { enc.Bytes() })
}

func TestEncode_Empty(t *testing.T) {
	buf := Encode(nil)
	require.Equal(t, HeaderSize, len(buf))

	decoded, _, err := Decode(buf)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func BenchmarkDecode_Extended(b *testing.B) {
	points := make([]Point, 10000)
	for i := range points {
		points[i] = Point{X: float32(i), Y: float32(i * 2), R: 1, A: 1, EntityID: uint32(i % 8)}
	}
	buf := Encode(points)
	dec := NewDecoder(endian.GetLittleEndianEngine())

	var scratch []Point
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scratch, _, _ = dec.DecodeInto(scratch, buf)
	}
}

func BenchmarkEncode_Extended(b *testing.B) {
	points := make([]Point, 10000)
	for i := range points {
		points[i] = Point{X: float32(i), Y: float32(i * 2), R: 1, A: 1, EntityID: uint32(i % 8)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc := NewEncoder(endian.GetLittleEndianEngine())
		enc.WriteSlice(points)
		_ = enc.Bytes()
		enc.Finish()
	}
}
