package batch

import (
	"log/slog"

	"github.com/golang/geo/r2"

	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/internal/options"
)

// Config is the live processing configuration.
//
// It is owned by the Processor and mutated by an external controller at any
// time; the Processor reads one immutable snapshot at the start of each
// batch, so a config update never applies mid-batch. Updates are plain
// last-writer-wins overwrites; each field is independent and consumed
// atomically per batch, so no partial-update race is possible.
type Config struct {
	// LODPixelThreshold is the screen-space merge distance for LOD
	// clustering, in pixels.
	LODPixelThreshold float32

	// ViewBounds is the screen-space view rectangle used by the culling
	// pass; nil disables culling regardless of EnableCulling.
	ViewBounds *r2.Rect

	// MaxPoints caps the diagnostics accumulator of recent points.
	MaxPoints int

	EnableLOD          bool
	EnableCulling      bool
	EnableQuantization bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		LODPixelThreshold: 2,
		MaxPoints:         100_000,
		EnableLOD:         true,
		EnableCulling:     true,
	}
}

// validate rejects configurations the pipeline stages cannot guard against
// internally.
func (c Config) validate() error {
	if c.LODPixelThreshold < 0 {
		return errs.ErrInvalidLODThreshold
	}
	if c.MaxPoints <= 0 {
		return errs.ErrInvalidMaxPoints
	}

	return nil
}

// ProcessorOption configures a Processor during construction.
type ProcessorOption = options.Option[*Processor]

// WithConfig sets the initial processing configuration.
func WithConfig(cfg Config) ProcessorOption {
	return options.New(func(p *Processor) error {
		return p.SetConfig(cfg)
	})
}

// WithLogger directs the processor's diagnostics to the given logger.
// A nil logger falls back to slog.Default.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return options.NoError(func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	})
}

// WithQuantizeStep overrides the coordinate grid step used when
// quantization is enabled.
func WithQuantizeStep(step float32) ProcessorOption {
	return options.New(func(p *Processor) error {
		if step <= 0 {
			return errs.ErrInvalidQuantizeStep
		}
		p.quantizeStep = step

		return nil
	})
}
