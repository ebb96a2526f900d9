package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(16)

	bb.MustWrite([]byte{0x01, 0x02})
	bb.WriteByte(0x03)
	require.Equal(t, 3, bb.Len())
	require.Equal(t, []byte{0x01, 0x02, 0x03}, bb.Bytes())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.GreaterOrEqual(t, bb.Cap(), 16)
}

func TestMessageBufferPool_ReturnsClean(t *testing.T) {
	buf := GetMessageBuffer()
	buf.MustWrite([]byte{0xaa, 0xbb})
	PutMessageBuffer(buf)

	again := GetMessageBuffer()
	require.Equal(t, 0, again.Len())
	PutMessageBuffer(again)
}

func TestSnapshotBufferPool_ReturnsClean(t *testing.T) {
	buf := GetSnapshotBuffer()
	buf.MustWrite([]byte{0x01})
	PutSnapshotBuffer(buf)

	again := GetSnapshotBuffer()
	require.Equal(t, 0, again.Len())
	PutSnapshotBuffer(again)
}

func TestPutMessageBuffer_NilSafe(t *testing.T) {
	require.NotPanics(t, func() {
		PutMessageBuffer(nil)
		PutSnapshotBuffer(nil)
	})
}
