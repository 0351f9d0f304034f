// Package pathviz streams 2D positional samples from a binary ingest
// format to GPU-ready vertex buffers.
//
// Batches of points arrive as little-endian binary payloads, are reduced
// on a background worker (viewport culling, level-of-detail merging,
// quantization), accumulated into per-entity path ring buffers, and packed
// into contiguous position/color arrays with per-entity draw ranges.
//
// # Core Features
//
//   - Self-describing binary point format with legacy and inferred
//     fallbacks (wire package)
//   - Grid-based level-of-detail merging and viewport culling (reduce
//     package)
//   - Bounded per-entity path history with FIFO eviction (path package)
//   - Fair-budget staging packer producing one draw range per entity
//   - Single-goroutine worker with in-order messaging (worker package)
//   - Optional payload compression (None, Zstd, S2, LZ4)
//
// # Basic Usage
//
//	import "github.com/pathviz/pathviz"
//
//	pipe, _ := pathviz.NewPipeline()
//	_ = pipe.Start(context.Background())
//	defer pipe.Stop()
//
//	// Ingest side: submit raw batches with the current view transform.
//	_ = pipe.Submit(payload, pathviz.Transform{Scale: 1})
//
//	// Render side, once per frame: fold finished batches into the path
//	// store, then pack for upload.
//	pipe.Poll()
//	packed := pipe.Pack()
//	for _, draw := range packed.Draws {
//	    // issue one draw call per entity range
//	    _ = draw
//	}
//
// This package provides a convenient top-level pipeline around the wire,
// batch, worker and path packages. For fine-grained control, use those
// packages directly.
package pathviz

import (
	"context"
	"log/slog"

	"github.com/pathviz/pathviz/batch"
	"github.com/pathviz/pathviz/compress"
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/format"
	"github.com/pathviz/pathviz/geom"
	"github.com/pathviz/pathviz/internal/hash"
	"github.com/pathviz/pathviz/internal/options"
	"github.com/pathviz/pathviz/path"
	"github.com/pathviz/pathviz/wire"
	"github.com/pathviz/pathviz/worker"
)

// Re-exported aliases so basic use needs only the root package.
type (
	// Transform is the view transform batches are reduced under.
	Transform = geom.Transform
	// Config controls reduction behavior per batch.
	Config = batch.Config
	// Packed is the GPU-ready staging layout produced by Pack.
	Packed = path.Packed
)

// EntityID hashes an entity name to its 24-bit wire identifier. Names map
// deterministically, so producers and consumers can derive the same ID
// without coordination.
func EntityID(name string) uint32 {
	return hash.EntityID(name)
}

// DefaultMaxRenderPoints bounds one packed frame when no explicit budget
// is configured.
const DefaultMaxRenderPoints = 100_000

// Pipeline ties the background worker, the per-entity path store and the
// staging packer together.
//
// Threading model: Submit and UpdateConfig may be called from any
// goroutine. Poll, Pack, Clear and the store accessors must be confined to
// one consumer goroutine (typically the render loop); the path store and
// the clearing window are intentionally not locked.
type Pipeline struct {
	worker *worker.Worker
	store  *path.Store
	packer *path.Packer
	codec  compress.Codec
	logger *slog.Logger

	// clearing is owned by the Poll goroutine. While true, processed
	// results that were in flight when Clear was submitted are dropped;
	// the worker's ResultCleared acknowledgment ends the window.
	clearing bool

	compression     format.CompressionType
	maxRenderPoints int
	workerOpts      []worker.WorkerOption
	storeOpts       []path.StoreOption
}

// PipelineOption configures a Pipeline during construction.
type PipelineOption = options.Option[*Pipeline]

// WithCompression compresses payloads crossing the worker boundary.
// Worth enabling only when results leave the process; defaults to none.
func WithCompression(ctype format.CompressionType) PipelineOption {
	return options.New(func(p *Pipeline) error {
		if ctype == format.CompressionNone {
			p.compression = ctype
			p.codec = nil
			return nil
		}

		codec, err := compress.GetCodec(ctype)
		if err != nil {
			return errs.ErrInvalidCompression
		}
		p.compression = ctype
		p.codec = codec

		return nil
	})
}

// WithMaxEntities sets how many entities the path store tracks at once.
func WithMaxEntities(n int) PipelineOption {
	return options.NoError(func(p *Pipeline) {
		p.storeOpts = append(p.storeOpts, path.WithMaxEntities(n))
	})
}

// WithPathCapacity sets the per-entity path history length.
func WithPathCapacity(n int) PipelineOption {
	return options.NoError(func(p *Pipeline) {
		p.storeOpts = append(p.storeOpts, path.WithCapacity(n))
	})
}

// WithMaxRenderPoints caps the number of points in one packed frame.
func WithMaxRenderPoints(n int) PipelineOption {
	return options.New(func(p *Pipeline) error {
		if n <= 0 {
			return errs.ErrInvalidMaxPoints
		}
		p.maxRenderPoints = n

		return nil
	})
}

// WithProcessorOptions forwards options to the worker's batch.Processor.
func WithProcessorOptions(opts ...batch.ProcessorOption) PipelineOption {
	return options.NoError(func(p *Pipeline) {
		p.workerOpts = append(p.workerOpts, worker.WithProcessorOptions(opts...))
	})
}

// WithLogger sets the logger shared by the pipeline and its worker.
func WithLogger(logger *slog.Logger) PipelineOption {
	return options.NoError(func(p *Pipeline) {
		p.logger = logger
		p.workerOpts = append(p.workerOpts, worker.WithLogger(logger))
	})
}

// NewPipeline assembles a pipeline with default reduction settings.
func NewPipeline(opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		logger:          slog.Default(),
		maxRenderPoints: DefaultMaxRenderPoints,
	}

	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	if p.compression != 0 && p.compression != format.CompressionNone {
		p.workerOpts = append(p.workerOpts, worker.WithCompression(p.compression))
	}

	w, err := worker.NewWorker(p.workerOpts...)
	if err != nil {
		return nil, err
	}

	store, err := path.NewStore(p.storeOpts...)
	if err != nil {
		return nil, err
	}

	packer, err := path.NewPacker(p.maxRenderPoints)
	if err != nil {
		return nil, err
	}

	p.worker = w
	p.store = store
	p.packer = packer

	return p, nil
}

// Start spawns the background worker.
func (p *Pipeline) Start(ctx context.Context) error {
	return p.worker.Start(ctx)
}

// Stop shuts the worker down and releases the packer's pooled staging
// buffer. Results still queued are discarded.
func (p *Pipeline) Stop() {
	p.worker.Stop()
	p.packer.Release()
}

// Submit hands a raw encoded batch to the worker together with the view
// transform it should be reduced under. The pipeline takes ownership of
// data. Non-blocking as long as the worker queue has room.
func (p *Pipeline) Submit(data []byte, transform Transform) error {
	return p.worker.Process(data, transform)
}

// UpdateConfig replaces the reduction configuration for subsequent
// batches.
func (p *Pipeline) UpdateConfig(cfg Config) error {
	return p.worker.UpdateConfig(cfg)
}

// Clear drops all accumulated paths and opens a clearing window: batches
// that were already in the worker's queue are discarded when they arrive,
// until the worker acknowledges the clear. Clear mutates consumer-owned
// state and must run on the same goroutine as Poll.
func (p *Pipeline) Clear() error {
	if err := p.worker.Clear(); err != nil {
		return err
	}

	p.clearing = true
	p.store.ClearAll()

	return nil
}

// Poll folds every result the worker has finished so far into the path
// store without blocking, and returns the number of batches applied.
// Call once per frame from the consumer goroutine.
func (p *Pipeline) Poll() int {
	applied := 0

	for {
		select {
		case res, ok := <-p.worker.Results():
			if !ok {
				return applied
			}
			if p.apply(res) {
				applied++
			}
		default:
			return applied
		}
	}
}

func (p *Pipeline) apply(res worker.Result) bool {
	switch res.Kind {
	case worker.ResultCleared:
		p.clearing = false
		return false
	case worker.ResultProcessed:
		if p.clearing {
			return false
		}
	default:
		return false
	}

	data := res.Data
	if p.codec != nil {
		decompressed, err := p.codec.Decompress(data)
		if err != nil {
			p.logger.Warn("dropped undecodable result", "error", err)
			return false
		}
		data = decompressed
	}

	points, _, err := wire.Decode(data)
	if err != nil {
		p.logger.Warn("dropped undecodable result", "error", err)
		return false
	}

	p.store.AddPoints(points)

	return true
}

// Pack produces the staging layout for the current store contents. The
// returned value is reused across calls; it is valid until the next Pack.
func (p *Pipeline) Pack() *Packed {
	return p.packer.Pack(p.store)
}

// Store exposes the underlying path store for position queries. Confine
// access to the consumer goroutine.
func (p *Pipeline) Store() *path.Store {
	return p.store
}
