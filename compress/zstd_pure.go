package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoderOnce sync.Once
	zstdEncoder     *zstd.Encoder
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
)

func getZstdEncoder() *zstd.Encoder {
	zstdEncoderOnce.Do(func() {
		// Errors only occur with invalid options; defaults are valid.
		zstdEncoder, _ = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
	})

	return zstdEncoder
}

func getZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
		)
	})

	return zstdDecoder
}

// Compress compresses data using zstd.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return getZstdEncoder().EncodeAll(data, nil), nil
}

// Decompress decompresses zstd data.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return getZstdDecoder().DecodeAll(data, nil)
}
