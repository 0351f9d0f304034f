package pathviz

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathviz/pathviz/format"
	"github.com/pathviz/pathviz/wire"
)

func startPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()

	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	pipe, err := NewPipeline(opts...)
	require.NoError(t, err)
	require.NoError(t, pipe.Start(context.Background()))
	t.Cleanup(pipe.Stop)

	return pipe
}

// pollUntil drives Poll from the consumer side until cond holds or the
// deadline passes.
func pollUntil(t *testing.T, pipe *Pipeline, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pipe.Poll()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func encodeBatch(id uint32, n int, offset float32) []byte {
	points := make([]wire.Point, n)
	for i := range points {
		points[i] = wire.Point{
			X: offset + float32(i)*500, Y: offset,
			R: 1, G: 1, B: 1, A: 1,
			EntityID: id,
		}
	}

	return wire.Encode(points)
}

func TestEntityID(t *testing.T) {
	a := EntityID("vehicle-7")
	b := EntityID("vehicle-7")
	c := EntityID("vehicle-8")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.LessOrEqual(t, a, uint32(0xFFFFFF))

	// 24-bit ids survive the float32 color lane exactly.
	require.Equal(t, a, uint32(float32(a)))
}

func TestPipelineEndToEnd(t *testing.T) {
	pipe := startPipeline(t)

	id := EntityID("walker")
	require.NoError(t, pipe.Submit(encodeBatch(id, 5, 0), Transform{Scale: 1}))

	pollUntil(t, pipe, func() bool { return pipe.Store().Len() == 5 })

	packed := pipe.Pack()
	require.Equal(t, 5, packed.Total)
	require.Len(t, packed.Positions, 10)
	require.Len(t, packed.Colors, 20)
	require.Len(t, packed.Draws, 1)
	require.Equal(t, 5, packed.Draws[0].Count)

	x, y, ok := pipe.Store().CurrentPosition(id)
	require.True(t, ok)
	require.InDelta(t, 2000, x, 0.6)
	require.InDelta(t, 0, y, 0.6)
}

func TestPipelineMultipleEntities(t *testing.T) {
	pipe := startPipeline(t)

	require.NoError(t, pipe.Submit(encodeBatch(EntityID("a"), 3, 0), Transform{Scale: 1}))
	require.NoError(t, pipe.Submit(encodeBatch(EntityID("b"), 4, 10_000), Transform{Scale: 1}))

	pollUntil(t, pipe, func() bool { return pipe.Store().Len() == 7 })

	packed := pipe.Pack()
	require.Len(t, packed.Draws, 2)
	require.Equal(t, 7, packed.Total)
}

func TestPipelineClearDropsInFlight(t *testing.T) {
	pipe := startPipeline(t)

	before := EntityID("before")
	after := EntityID("after")

	// Submit, clear, then submit again without polling in between: the
	// first batch is either consumed by the clear on the worker side or
	// discarded by the clearing window on the consumer side.
	require.NoError(t, pipe.Submit(encodeBatch(before, 6, 0), Transform{Scale: 1}))
	require.NoError(t, pipe.Clear())
	require.NoError(t, pipe.Submit(encodeBatch(after, 2, 0), Transform{Scale: 1}))

	pollUntil(t, pipe, func() bool { return pipe.Store().EntityCount(after) == 2 })

	require.Zero(t, pipe.Store().EntityCount(before))
	require.Equal(t, 2, pipe.Store().Len())
}

func TestPipelineCompressedBoundary(t *testing.T) {
	pipe := startPipeline(t, WithCompression(format.CompressionLZ4))

	id := EntityID("compressed")
	require.NoError(t, pipe.Submit(encodeBatch(id, 32, 0), Transform{Scale: 1}))

	pollUntil(t, pipe, func() bool { return pipe.Store().EntityCount(id) == 32 })
}

func TestPipelineRenderBudget(t *testing.T) {
	pipe := startPipeline(t, WithMaxRenderPoints(6), WithPathCapacity(16))

	require.NoError(t, pipe.Submit(encodeBatch(EntityID("a"), 8, 0), Transform{Scale: 1}))
	require.NoError(t, pipe.Submit(encodeBatch(EntityID("b"), 8, 50_000), Transform{Scale: 1}))

	pollUntil(t, pipe, func() bool { return pipe.Store().Len() == 16 })

	packed := pipe.Pack()
	require.Equal(t, 6, packed.Total)
	for _, draw := range packed.Draws {
		require.Equal(t, 3, draw.Count)
	}
}

func TestPipelineOptionValidation(t *testing.T) {
	_, err := NewPipeline(WithMaxRenderPoints(0))
	require.Error(t, err)

	_, err = NewPipeline(WithCompression(format.CompressionType(0x55)))
	require.Error(t, err)
}
