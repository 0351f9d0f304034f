package format

type (
	PointLayout     uint8
	CompressionType uint8
)

const (
	// LayoutExtended represents the 28-byte record layout: 7 float32 per
	// point (x, y, r, g, b, a, entity id). Encoders always emit this layout.
	LayoutExtended PointLayout = 0x1
	// LayoutLegacy represents the 12-byte record layout: 2 float32 plus
	// 4 uint8 color channels, with no entity id on the wire.
	LayoutLegacy PointLayout = 0x2
	// LayoutInferred represents a best-effort decode of a buffer whose size
	// matched neither record layout exactly.
	LayoutInferred PointLayout = 0x3

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (l PointLayout) String() string {
	switch l {
	case LayoutExtended:
		return "Extended"
	case LayoutLegacy:
		return "Legacy"
	case LayoutInferred:
		return "Inferred"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
