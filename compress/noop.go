package compress

// NoOpCompressor bypasses data without compression. Useful for in-process
// channels where payloads already move by ownership transfer, and as a
// baseline in benchmarks.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-op compressor that bypasses data.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice as-is. The returned slice shares the
// input's memory; callers must not modify the input afterwards.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is. The returned slice shares the
// input's memory; callers must not modify the input afterwards.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
