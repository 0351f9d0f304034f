package compress

import (
	"github.com/klauspost/compress/s2"
)

// S2Compressor implements the Codec interface using the S2 compression
// algorithm, an extension of Snappy tuned for high throughput. It is the
// recommended choice for batch payloads crossing a process boundary where
// latency matters more than ratio.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data using the S2 block format.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2 block data.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
