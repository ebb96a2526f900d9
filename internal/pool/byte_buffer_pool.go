package pool

import (
	"sync"
)

// MessageBufferDefaultSize sizes pooled buffers for outgoing protocol
// messages; most frames fit well under the 4KiB frame-size floor.
// SnapshotBufferDefaultSize sizes pooled buffers for snapshot payloads.
const (
	MessageBufferDefaultSize   = 4 * 1024
	MessageBufferMaxThreshold  = 128 * 1024
	SnapshotBufferDefaultSize  = 64 * 1024
	SnapshotBufferMaxThreshold = 8 * 1024 * 1024
)

// ByteBuffer is a reusable byte slice wrapper handed out by the pools.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// WriteByte appends a single byte to the buffer.
func (bb *ByteBuffer) WriteByte(b byte) {
	bb.B = append(bb.B, b)
}

var messageBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(MessageBufferDefaultSize)
	},
}

var snapshotBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(SnapshotBufferDefaultSize)
	},
}

// GetMessageBuffer returns a pooled buffer sized for protocol messages.
func GetMessageBuffer() *ByteBuffer {
	buf, _ := messageBufferPool.Get().(*ByteBuffer)
	buf.Reset()

	return buf
}

// PutMessageBuffer returns a message buffer to the pool. Oversized buffers
// are dropped so a single huge message does not pin memory.
func PutMessageBuffer(buf *ByteBuffer) {
	if buf == nil || buf.Cap() > MessageBufferMaxThreshold {
		return
	}
	messageBufferPool.Put(buf)
}

// GetSnapshotBuffer returns a pooled buffer sized for snapshot payloads.
func GetSnapshotBuffer() *ByteBuffer {
	buf, _ := snapshotBufferPool.Get().(*ByteBuffer)
	buf.Reset()

	return buf
}

// PutSnapshotBuffer returns a snapshot buffer to the pool. Oversized
// buffers are dropped.
func PutSnapshotBuffer(buf *ByteBuffer) {
	if buf == nil || buf.Cap() > SnapshotBufferMaxThreshold {
		return
	}
	snapshotBufferPool.Put(buf)
}
