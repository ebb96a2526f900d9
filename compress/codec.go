// Package compress provides the payload codecs used by vector snapshots.
//
// A snapshot payload is a delta-encoded stream of sorted (timestamp, id)
// items. Delta timestamps compress extremely well, while the id bytes are
// uniformly distributed hash output and barely compress at all; the fast
// codecs (S2, LZ4) usually give the best trade-off.
package compress

import (
	"fmt"

	"github.com/arloliu/negentropy/format"
)

// Compressor compresses a snapshot payload.
//
// Memory management:
//   - Returned slice is owned by the caller
//   - Input slice is not modified
//   - Internal buffers may be reused between calls
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a snapshot payload compressed with the matching
// Compressor. It returns an error if the data is corrupted or was produced
// by an incompatible algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
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
