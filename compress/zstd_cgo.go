//go:build nobuild

package compress

import (
	"github.com/valyala/gozstd"
)

// Alternate zstd implementation backed by the cgo libzstd bindings.
// Kept behind the nobuild tag; enable it by swapping the tag with
// zstd_pure.go when cgo throughput is worth the build complexity.

// Compress compresses data using zstd.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Compress(nil, data), nil
}

// Decompress decompresses zstd data.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
