package worker

import (
	"log/slog"

	"github.com/pathviz/pathviz/batch"
	"github.com/pathviz/pathviz/compress"
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/format"
	"github.com/pathviz/pathviz/internal/options"
)

// WorkerOption configures a Worker during construction.
type WorkerOption = options.Option[*Worker]

// WithCompression compresses emitted batch payloads with the given
// algorithm. Use format.CompressionNone (or omit the option) for
// in-process consumers where compression is pure overhead.
func WithCompression(ctype format.CompressionType) WorkerOption {
	return options.New(func(w *Worker) error {
		if ctype == format.CompressionNone {
			w.codec = nil
			return nil
		}

		codec, err := compress.GetCodec(ctype)
		if err != nil {
			return errs.ErrInvalidCompression
		}
		w.codec = codec

		return nil
	})
}

// WithLogger sets the logger used for dropped batches and rejected
// config updates. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) WorkerOption {
	return options.NoError(func(w *Worker) {
		w.logger = logger
	})
}

// WithProcessorOptions forwards options to the underlying
// batch.Processor, e.g. batch.WithConfig or batch.WithQuantizeStep.
func WithProcessorOptions(opts ...batch.ProcessorOption) WorkerOption {
	return options.NoError(func(w *Worker) {
		w.procOpts = append(w.procOpts, opts...)
	})
}

// WithQueueDepth sets the buffer size of the request and result
// channels. Values below 1 are rejected.
func WithQueueDepth(depth int) WorkerOption {
	return options.New(func(w *Worker) error {
		if depth < 1 {
			return errs.ErrInvalidCapacity
		}
		w.queueSize = depth

		return nil
	})
}
