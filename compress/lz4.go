package compress

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// Leading flag byte of an LZ4 payload. Random id bytes routinely defeat
// LZ4's block compressor, which signals "incompressible" by producing no
// output; such payloads are stored raw behind the flag.
const (
	lz4FlagRaw        = 0x00
	lz4FlagCompressed = 0x01
)

// LZ4Compressor compresses snapshot payloads with LZ4 block compression.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data using LZ4 block compression. Payloads
// the block compressor cannot shrink are passed through raw.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dstSize := 1 + lz4.CompressBlockBound(len(data))
	dst := make([]byte, dstSize)
	dst[0] = lz4FlagCompressed

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		out := make([]byte, 0, 1+len(data))
		out = append(out, lz4FlagRaw)

		return append(out, data...), nil
	}

	return dst[:1+n], nil
}

// Decompress decompresses the input data using LZ4 block decompression.
//
// LZ4 blocks do not record the decompressed size, so the buffer starts at
// 4x the compressed size and doubles on short-buffer errors up to a 128MB
// safety limit.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case lz4FlagRaw:
		return bytes.Clone(data[1:]), nil
	case lz4FlagCompressed:
	default:
		return nil, fmt.Errorf("invalid lz4 payload flag 0x%02x", data[0])
	}
	data = data[1:]

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
