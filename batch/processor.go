// Package batch orchestrates the per-batch processing pipeline: decode →
// project → cull → LOD → quantize → pixel-align → encode, under a live
// configuration, with per-batch timing and point-count statistics.
package batch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pathviz/pathviz/endian"
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/geom"
	"github.com/pathviz/pathviz/internal/options"
	"github.com/pathviz/pathviz/reduce"
	"github.com/pathviz/pathviz/wire"
)

// Stats reports what one processing pass did.
type Stats struct {
	// ProcessTime is the wall time of the whole pass, decode to encode.
	ProcessTime time.Duration
	// InputPoints is the decoded point count before reduction.
	InputPoints int
	// OutputPoints is the point count after all reduction passes.
	OutputPoints int
	// TotalPoints is the size of the capped accumulator of points seen so
	// far (diagnostics only, independent of the path store).
	TotalPoints int
	// ReductionRatio is 1 - OutputPoints/InputPoints.
	ReductionRatio float64
}

// Processor runs the reduction pipeline over incoming batches.
//
// Configuration accessors are safe for concurrent use: an external
// controller may overwrite the config at any time and the next batch picks
// it up. Process itself must be called from a single goroutine (the worker),
// as it reuses internal scratch buffers across calls.
type Processor struct {
	mu      sync.Mutex
	cfg     Config
	history []wire.Point // capped accumulator, diagnostics only

	logger       *slog.Logger
	decoder      wire.Decoder
	quantizeStep float32
	scratch      []wire.Point
}

// NewProcessor creates a Processor with the default configuration, then
// applies the given options.
func NewProcessor(opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		cfg:          DefaultConfig(),
		logger:       slog.Default(),
		quantizeStep: reduce.DefaultQuantizeStep,
	}

	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	p.decoder = wire.NewDecoderWithLogger(endian.GetLittleEndianEngine(), p.logger)

	return p, nil
}

// Config returns a snapshot of the current configuration.
func (p *Processor) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cfg
}

// SetConfig validates and installs a new configuration. The update takes
// effect at the next batch boundary; an in-flight batch keeps the snapshot
// it started with.
func (p *Processor) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()

	return nil
}

// Process runs one batch through the pipeline and returns the re-encoded
// buffer plus statistics.
//
// The raw buffer's ownership transfers to Process; the returned buffer is
// owned by the caller. An empty batch returns (nil, zero Stats, nil). A
// decode failure or a non-positive transform scale returns the error with
// zero output; the caller logs it and continues with the next batch.
// Nothing here is fatal to the frame loop.
func (p *Processor) Process(raw []byte, transform geom.Transform) ([]byte, Stats, error) {
	if !transform.Valid() {
		return nil, Stats{}, errs.ErrInvalidScale
	}

	cfg := p.Config() // one snapshot per batch, never re-read mid-batch
	start := time.Now()

	points, _, err := p.decoder.DecodeInto(p.scratch, raw)
	if err != nil {
		return nil, Stats{}, err
	}
	p.scratch = points[:0]

	if len(points) == 0 {
		return nil, Stats{}, nil
	}

	inputCount := len(points)

	points = p.project(points)

	if cfg.EnableCulling && cfg.ViewBounds != nil {
		points = reduce.Cull(points, *cfg.ViewBounds, transform)
	}
	if cfg.EnableLOD {
		points = reduce.ApplyLOD(points, cfg.LODPixelThreshold, transform.Scale)
	}
	if cfg.EnableQuantization {
		points = reduce.Quantize(points, p.quantizeStep)
	}

	// Always runs; gates itself on scale internally.
	points = reduce.PixelAlign(points, transform)

	out := wire.Encode(points)
	total := p.accumulate(points, cfg.MaxPoints)

	stats := Stats{
		ProcessTime:    time.Since(start),
		InputPoints:    inputCount,
		OutputPoints:   len(points),
		TotalPoints:    total,
		ReductionRatio: 1 - float64(len(points))/float64(inputCount),
	}

	return out, stats, nil
}

// project maps incoming samples into the pipeline's working coordinate
// system. Identity for now; exists so a future source coordinate system can
// slot in without reshaping the pipeline. Must preserve every field.
func (p *Processor) project(points []wire.Point) []wire.Point {
	return points
}

// accumulate appends the batch output to the diagnostics accumulator,
// discarding oldest points beyond maxPoints, and returns the new size.
func (p *Processor) accumulate(points []wire.Point, maxPoints int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.history = append(p.history, points...)
	if over := len(p.history) - maxPoints; over > 0 {
		copy(p.history, p.history[over:])
		p.history = p.history[:maxPoints]
	}

	return len(p.history)
}

// TotalPoints returns the current size of the diagnostics accumulator.
func (p *Processor) TotalPoints() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.history)
}

// Clear resets the diagnostics accumulator.
func (p *Processor) Clear() {
	p.mu.Lock()
	p.history = p.history[:0]
	p.mu.Unlock()
}
