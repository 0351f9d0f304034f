package compress

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor implements the Codec interface using the LZ4 block format.
// LZ4 offers very fast decompression, which suits the render side of the
// pipeline where decode latency is on the frame path.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data using the LZ4 block format.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	comp := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(comp)

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := comp.CompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	return buf[:n], nil
}

// Decompress decompresses LZ4 block data. The block format does not carry
// the uncompressed size, so the output buffer grows adaptively.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	// Start at 4x the compressed size and double until the block fits.
	size := len(data) * 4
	const maxSize = 128 << 20

	for size <= maxSize {
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}

		size *= 2
	}

	return nil, fmt.Errorf("lz4 decompression failed: output exceeds %d bytes", maxSize)
}
