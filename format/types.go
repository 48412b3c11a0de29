package format

type (
	ScalarWidth     uint32
	CompressionType uint8
)

const (
	// Width32 stores each coordinate as an IEEE 754 binary32 value.
	Width32 ScalarWidth = 32
	// Width64 stores each coordinate as an IEEE 754 binary64 value.
	Width64 ScalarWidth = 64
)

// Compression types for debug text mirrors and report sidecars.
// The binary relation format itself is never compressed.
const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Bytes returns the number of bytes one scalar occupies on disk.
func (w ScalarWidth) Bytes() int {
	return int(w) / 8
}

// Valid reports whether w is one of the two supported widths.
func (w ScalarWidth) Valid() bool {
	return w == Width32 || w == Width64
}

func (w ScalarWidth) String() string {
	switch w {
	case Width32:
		return "float32"
	case Width64:
		return "float64"
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

// Ext returns the file name suffix appended to compressed artifacts.
func (c CompressionType) Ext() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionS2:
		return ".s2"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}
