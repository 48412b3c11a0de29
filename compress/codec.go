// Package compress provides block compression for boxfile's auxiliary
// artifacts: debug text mirrors and report sidecars. The binary relation
// format itself is never compressed; these codecs only shrink the
// line-oriented debugging output, which can dwarf the binary files it
// mirrors.
package compress

import (
	"fmt"

	"github.com/sjsbench/boxfile/format"
)

// Compressor compresses a complete artifact payload in one call.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	// The returned slice is newly allocated and owned by the caller; the
	// input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original
	// payload. Corrupted or mismatched input returns an error.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
