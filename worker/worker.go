// Package worker runs a batch.Processor on a dedicated goroutine so that
// decode and reduction work never blocks the caller's frame loop.
//
// All pipeline state (processor config, accumulator history, scratch
// buffers) is owned by the worker goroutine; callers communicate through
// channel messages and never touch the processor directly. Messages are
// handled strictly in submission order.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pathviz/pathviz/batch"
	"github.com/pathviz/pathviz/compress"
	"github.com/pathviz/pathviz/errs"
	"github.com/pathviz/pathviz/geom"
	"github.com/pathviz/pathviz/internal/options"
)

// defaultQueueDepth bounds both the request and result channels. Deep
// enough to absorb bursts from the ingest side without the sender
// blocking, shallow enough that a stalled consumer surfaces quickly.
const defaultQueueDepth = 64

// ResultKind discriminates messages on the worker's result channel.
type ResultKind uint8

const (
	// ResultProcessed carries an encoded, reduced point batch.
	ResultProcessed ResultKind = iota + 1
	// ResultCleared acknowledges a Clear request. Consumers use it to
	// discard processed batches that were in flight when the clear was
	// submitted.
	ResultCleared
)

// Result is one message emitted by the worker goroutine.
//
// For ResultProcessed, Data holds the encoded batch (compressed when the
// worker was built with a compression codec) and Stats describes the
// reduction. For ResultCleared both are zero.
type Result struct {
	Kind  ResultKind
	Data  []byte
	Stats batch.Stats
}

type msgKind uint8

const (
	msgProcess msgKind = iota + 1
	msgConfig
	msgClear
)

type request struct {
	kind      msgKind
	data      []byte
	transform geom.Transform
	cfg       batch.Config
}

// Worker owns a batch.Processor on a single goroutine.
//
// Goroutine topology: one fixed loop goroutine, spawned by Start and
// stopped by Stop or context cancellation. All exported methods are safe
// for concurrent use.
type Worker struct {
	proc   *batch.Processor
	codec  compress.Codec
	logger *slog.Logger

	requests chan request
	results  chan Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stateMu sync.Mutex
	started bool
	stopped bool

	// captured at construction, applied in NewWorker
	procOpts  []batch.ProcessorOption
	queueSize int
}

// NewWorker creates a worker and its underlying processor. The worker is
// inert until Start is called.
func NewWorker(opts ...WorkerOption) (*Worker, error) {
	w := &Worker{
		logger:    slog.Default(),
		queueSize: defaultQueueDepth,
	}

	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	proc, err := batch.NewProcessor(w.procOpts...)
	if err != nil {
		return nil, err
	}
	w.proc = proc

	w.requests = make(chan request, w.queueSize)
	w.results = make(chan Result, w.queueSize)

	return w, nil
}

// Results returns the channel the worker emits on. The channel is closed
// after the loop exits, so consumers can range over it.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Start spawns the processing loop. The loop runs until Stop is called or
// ctx is cancelled. Calling Start twice returns an error.
func (w *Worker) Start(ctx context.Context) error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if w.started {
		return fmt.Errorf("worker already started")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true

	w.wg.Add(1)
	go w.loop()

	return nil
}

// Stop shuts the loop down and waits for it to exit. Requests queued
// before Stop may be dropped; the result channel is closed once the loop
// returns. Idempotent.
func (w *Worker) Stop() {
	w.stateMu.Lock()
	if !w.started || w.stopped {
		w.stateMu.Unlock()
		return
	}
	w.stopped = true
	w.stateMu.Unlock()

	w.cancel()
	w.wg.Wait()
}

// Process submits a raw encoded batch together with the view transform it
// should be reduced under. The worker takes ownership of data; callers
// must not reuse the slice.
func (w *Worker) Process(data []byte, transform geom.Transform) error {
	return w.submit(request{kind: msgProcess, data: data, transform: transform})
}

// UpdateConfig replaces the processor configuration. The new config takes
// effect for batches submitted after this call; a batch already in flight
// finishes under the config it started with.
func (w *Worker) UpdateConfig(cfg batch.Config) error {
	return w.submit(request{kind: msgConfig, cfg: cfg})
}

// Clear resets the processor's accumulated history and emits a
// ResultCleared acknowledgment after all previously queued requests have
// been handled.
func (w *Worker) Clear() error {
	return w.submit(request{kind: msgClear})
}

func (w *Worker) submit(req request) error {
	w.stateMu.Lock()
	if !w.started {
		w.stateMu.Unlock()
		return errs.ErrWorkerNotStarted
	}
	if w.stopped {
		w.stateMu.Unlock()
		return errs.ErrWorkerStopped
	}
	w.stateMu.Unlock()

	select {
	case w.requests <- req:
		return nil
	case <-w.ctx.Done():
		return errs.ErrWorkerStopped
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	defer close(w.results)

	for {
		select {
		case <-w.ctx.Done():
			return
		case req := <-w.requests:
			switch req.kind {
			case msgProcess:
				w.handleProcess(req)
			case msgConfig:
				if err := w.proc.SetConfig(req.cfg); err != nil {
					w.logger.Warn("rejected config update", "error", err)
				}
			case msgClear:
				w.proc.Clear()
				w.emit(Result{Kind: ResultCleared})
			}
		}
	}
}

func (w *Worker) handleProcess(req request) {
	out, stats, err := w.proc.Process(req.data, req.transform)
	if err != nil {
		// Malformed batches are dropped, not fatal; the stream continues
		// with the next one.
		w.logger.Warn("dropped batch", "error", err, "bytes", len(req.data))
		return
	}
	if stats.OutputPoints == 0 {
		return
	}

	if w.codec != nil {
		compressed, cerr := w.codec.Compress(out)
		if cerr != nil {
			// Consumers of a compressed stream decompress unconditionally,
			// so a raw payload would be undecodable for them. Drop the
			// batch instead.
			w.logger.Warn("dropped batch, compression failed", "error", cerr)
			return
		}
		out = compressed
	}

	w.emit(Result{Kind: ResultProcessed, Data: out, Stats: stats})
}

// emit delivers a result, giving up if the worker is shutting down.
func (w *Worker) emit(res Result) {
	select {
	case w.results <- res:
	case <-w.ctx.Done():
	}
}
