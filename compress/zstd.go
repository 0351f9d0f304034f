package compress

// ZstdCompressor implements the Codec interface using the Zstandard
// algorithm. Zstd gives the best ratio of the supported codecs and is the
// default for payloads that leave the machine.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new zstd compressor.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
