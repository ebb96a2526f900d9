// Package protocol implements the negentropy reconciliation engine: wire
// message construction and parsing, and the per-round range walk that
// decides between Skip, Fingerprint, and IdList records.
package protocol

import (
	"bytes"
	"fmt"

	"github.com/arloliu/negentropy/encoding"
	"github.com/arloliu/negentropy/errs"
	"github.com/arloliu/negentropy/format"
	"github.com/arloliu/negentropy/internal/pool"
	"github.com/arloliu/negentropy/storage"
)

// messageWriter accumulates an outgoing message: the protocol version byte
// followed by record bytes. Bound timestamps are delta-encoded against the
// previously written bound, so the writer carries that running state.
//
// Records are staged in caller-owned scratch slices and appended once they
// clear the frame budget; lastTimestamp must be restored via the caller's
// saved copy when a staged record is dropped.
type messageWriter struct {
	buf           *pool.ByteBuffer
	lastTimestamp uint64
}

func newMessageWriter() *messageWriter {
	w := &messageWriter{buf: pool.GetMessageBuffer()}
	w.buf.WriteByte(format.ProtocolVersion)

	return w
}

// appendBound appends the wire encoding of a bound to dst and advances the
// running timestamp. Bounds written through one writer must be
// non-decreasing; the infinity bound encodes as the saturating delta.
func (w *messageWriter) appendBound(dst []byte, b storage.Bound) []byte {
	dst = encoding.AppendVarint(dst, b.Timestamp-w.lastTimestamp)
	w.lastTimestamp = b.Timestamp

	dst = encoding.AppendVarint(dst, uint64(len(b.Prefix)))

	return append(dst, b.Prefix...)
}

// appendRecord commits a staged record to the message.
func (w *messageWriter) appendRecord(o []byte) {
	w.buf.MustWrite(o)
}

// len returns the encoded message size so far, version byte included.
func (w *messageWriter) len() int {
	return w.buf.Len()
}

// empty reports whether no record has been committed yet.
func (w *messageWriter) empty() bool {
	return w.buf.Len() == 1
}

// bytes returns a copy of the message and releases the pooled buffer. The
// writer must not be used afterwards.
func (w *messageWriter) bytes() []byte {
	out := bytes.Clone(w.buf.Bytes())
	pool.PutMessageBuffer(w.buf)
	w.buf = nil

	return out
}

// release returns the pooled buffer without producing a message.
func (w *messageWriter) release() {
	if w.buf != nil {
		pool.PutMessageBuffer(w.buf)
		w.buf = nil
	}
}

// messageReader walks an incoming message. It mirrors the writer's
// delta-timestamp state: once a decoded timestamp saturates at the maximum
// it latches there for the rest of the message.
type messageReader struct {
	data          []byte
	pos           int
	lastTimestamp uint64
}

func newMessageReader(data []byte) (*messageReader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", errs.ErrParseEnded)
	}
	if data[0] != format.ProtocolVersion {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", errs.ErrUnsupportedProtocolVersion, data[0], format.ProtocolVersion)
	}

	return &messageReader{data: data, pos: 1}, nil
}

// empty reports whether all records have been consumed.
func (r *messageReader) empty() bool {
	return r.pos >= len(r.data)
}

// readVarint decodes the next varint.
func (r *messageReader) readVarint() (uint64, error) {
	v, n, err := encoding.ConsumeVarint(r.data[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n

	return v, nil
}

// readBytes returns the next n raw bytes without copying.
func (r *messageReader) readBytes(n int) ([]byte, error) {
	if len(r.data)-r.pos < n {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", errs.ErrParseEnded, n, len(r.data)-r.pos)
	}

	out := r.data[r.pos : r.pos+n]
	r.pos += n

	return out, nil
}

// readBound decodes the next bound. The timestamp delta is added to the
// running timestamp, saturating at the maximum; a prefix longer than the
// id size is rejected.
func (r *messageReader) readBound(idSize int) (storage.Bound, error) {
	delta, err := r.readVarint()
	if err != nil {
		return storage.Bound{}, err
	}

	timestamp := r.lastTimestamp + delta
	if timestamp < delta {
		timestamp = format.MaxTimestamp
	}
	r.lastTimestamp = timestamp

	prefixLen, err := r.readVarint()
	if err != nil {
		return storage.Bound{}, err
	}
	if prefixLen > uint64(idSize) {
		return storage.Bound{}, fmt.Errorf("%w: bound prefix %d bytes exceeds id size %d", errs.ErrInvalidIDSize, prefixLen, idSize)
	}

	prefix, err := r.readBytes(int(prefixLen))
	if err != nil {
		return storage.Bound{}, err
	}
	if prefixLen == 0 {
		// Decode an empty prefix as nil, as NewBound and InfiniteBound build it.
		prefix = nil
	}

	return storage.NewBound(timestamp, prefix), nil
}

// readMode decodes the next record mode, rejecting reserved values.
func (r *messageReader) readMode() (format.Mode, error) {
	v, err := r.readVarint()
	if err != nil {
		return 0, err
	}

	mode := format.Mode(v)
	switch mode {
	case format.ModeSkip, format.ModeFingerprint, format.ModeIdList:
		return mode, nil
	default:
		return 0, fmt.Errorf("%w: %d", errs.ErrUnexpectedMode, v)
	}
}
