// Package errs defines sentinel errors shared across pathviz packages.
//
// All errors are package-level sentinels so callers can test for specific
// failure modes with errors.Is after unwrapping:
//
//	points, err := wire.Decode(buf)
//	if errors.Is(err, errs.ErrBufferTooShort) {
//	    // buffer did not even contain the count header
//	}
package errs

import "errors"

var (
	// ErrBufferTooShort indicates a wire buffer shorter than the 4-byte
	// point-count header. This is the only fatal decode error; all other
	// malformed inputs degrade to a best-effort decode.
	ErrBufferTooShort = errors.New("buffer too short for point count header")

	// ErrInvalidLODThreshold indicates a negative LOD pixel threshold in a
	// processor configuration.
	ErrInvalidLODThreshold = errors.New("LOD pixel threshold must not be negative")

	// ErrInvalidMaxPoints indicates a non-positive global point budget.
	ErrInvalidMaxPoints = errors.New("max points must be positive")

	// ErrInvalidQuantizeStep indicates a non-positive quantization grid step.
	ErrInvalidQuantizeStep = errors.New("quantize step must be positive")

	// ErrInvalidScale indicates a view transform with scale <= 0. The
	// batch processor rejects such transforms up front; pipeline stages
	// never divide by them.
	ErrInvalidScale = errors.New("view transform scale must be positive")

	// ErrInvalidCapacity indicates a non-positive per-entity ring capacity
	// or entity slot count.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrWorkerNotStarted indicates a control message was submitted before
	// Start was called on the worker.
	ErrWorkerNotStarted = errors.New("worker not started")

	// ErrWorkerStopped indicates a control message was submitted after the
	// worker shut down.
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrInvalidCompression indicates an unknown compression type selector.
	ErrInvalidCompression = errors.New("invalid compression type")
)
