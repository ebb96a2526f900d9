package storage

import (
	"fmt"

	"github.com/arloliu/negentropy/compress"
	"github.com/arloliu/negentropy/encoding"
	"github.com/arloliu/negentropy/endian"
	"github.com/arloliu/negentropy/errs"
	"github.com/arloliu/negentropy/format"
	"github.com/arloliu/negentropy/internal/hash"
	"github.com/arloliu/negentropy/internal/pool"
)

// Snapshot layout:
//
//	magic       uint32 LE ("NGS1")
//	version     byte
//	compression byte (format.CompressionType)
//	idSize      byte
//	reserved    byte
//	count       uint32 LE
//	payloadLen  uint32 LE
//	payload     compressed stream of count x (varint timestamp delta, id)
//	checksum    uint64 LE, xxHash64 of everything above
//
// Timestamps are stored as deltas in seal order, so they are non-negative
// and compress to single bytes for append-mostly stores.
const (
	snapshotMagic   uint32 = 0x3153474e // "NGS1" little-endian
	snapshotVersion byte   = 1

	snapshotHeaderSize   = 16
	snapshotChecksumSize = 8
)

var snapshotEngine = endian.GetLittleEndianEngine()

// snapshotConfig carries the encode-side options.
type snapshotConfig struct {
	compression format.CompressionType
}

// SnapshotOption configures EncodeSnapshot.
type SnapshotOption func(*snapshotConfig)

// WithSnapshotCompression selects the payload compression. The default is
// CompressionNone.
func WithSnapshotCompression(c format.CompressionType) SnapshotOption {
	return func(cfg *snapshotConfig) {
		cfg.compression = c
	}
}

// EncodeSnapshot serializes a sealed vector into a self-contained blob that
// DecodeSnapshot restores without re-sorting. The vector must be sealed.
func EncodeSnapshot(v *Vector, opts ...SnapshotOption) ([]byte, error) {
	if !v.Sealed() {
		return nil, fmt.Errorf("%w: snapshot of unsealed vector", errs.ErrNotSealed)
	}

	cfg := snapshotConfig{compression: format.CompressionNone}
	for _, opt := range opts {
		opt(&cfg)
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	raw := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(raw)

	prevTimestamp := uint64(0)
	for _, it := range v.items {
		raw.B = encoding.AppendVarint(raw.B, it.Timestamp-prevTimestamp)
		prevTimestamp = it.Timestamp
		raw.MustWrite(it.ID)
	}

	payload, err := codec.Compress(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("snapshot payload compression failed: %w", err)
	}

	out := make([]byte, 0, snapshotHeaderSize+len(payload)+snapshotChecksumSize)
	out = snapshotEngine.AppendUint32(out, snapshotMagic)
	out = append(out, snapshotVersion, byte(cfg.compression), byte(v.idSize), 0)
	out = snapshotEngine.AppendUint32(out, uint32(len(v.items)))
	out = snapshotEngine.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	out = snapshotEngine.AppendUint64(out, hash.Checksum(out))

	return out, nil
}

// DecodeSnapshot restores a sealed vector from a snapshot blob.
func DecodeSnapshot(data []byte) (*Vector, error) {
	if len(data) < snapshotHeaderSize+snapshotChecksumSize {
		return nil, fmt.Errorf("%w: snapshot header", errs.ErrParseEnded)
	}

	if snapshotEngine.Uint32(data[0:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", errs.ErrInvalidSnapshot)
	}
	if data[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidSnapshot, data[4])
	}

	compression := format.CompressionType(data[5])
	idSize := int(data[6])
	count := int(snapshotEngine.Uint32(data[8:12]))
	payloadLen := int(snapshotEngine.Uint32(data[12:16]))

	if len(data) != snapshotHeaderSize+payloadLen+snapshotChecksumSize {
		return nil, fmt.Errorf("%w: snapshot payload", errs.ErrParseEnded)
	}

	body := data[:snapshotHeaderSize+payloadLen]
	wantChecksum := snapshotEngine.Uint64(data[len(data)-snapshotChecksumSize:])
	if hash.Checksum(body) != wantChecksum {
		return nil, fmt.Errorf("%w: snapshot body", errs.ErrChecksumMismatch)
	}

	v, err := NewVector(idSize)
	if err != nil {
		return nil, fmt.Errorf("%w: id size %d", errs.ErrInvalidSnapshot, idSize)
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, fmt.Errorf("%w: compression byte 0x%02x", errs.ErrInvalidSnapshot, data[5])
	}

	raw, err := codec.Decompress(body[snapshotHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: payload decompression: %v", errs.ErrInvalidSnapshot, err)
	}

	items := make([]Item, 0, count)
	prevTimestamp := uint64(0)
	pos := 0
	for range count {
		delta, n, err := encoding.ConsumeVarint(raw[pos:])
		if err != nil {
			return nil, fmt.Errorf("%w: item timestamp", errs.ErrParseEnded)
		}
		pos += n

		if len(raw)-pos < idSize {
			return nil, fmt.Errorf("%w: item id", errs.ErrParseEnded)
		}

		prevTimestamp += delta
		items = append(items, NewItem(prevTimestamp, raw[pos:pos+idSize]))
		pos += idSize
	}
	if pos != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing payload bytes", errs.ErrInvalidSnapshot, len(raw)-pos)
	}

	// Items were written in seal order; the vector is sealed as-is.
	v.items = items
	v.sealed = true

	return v, nil
}
