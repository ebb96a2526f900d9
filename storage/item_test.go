package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/negentropy/format"
)

func id32(prefix ...byte) []byte {
	id := make([]byte, 32)
	copy(id, prefix)

	return id
}

func TestItem_Cmp_TimestampFirst(t *testing.T) {
	a := NewItem(1, id32(0xff))
	b := NewItem(2, id32(0x00))

	require.Equal(t, -1, a.Cmp(b))
	require.Equal(t, 1, b.Cmp(a))
}

func TestItem_Cmp_IDBreaksTies(t *testing.T) {
	a := NewItem(7, id32(0x01))
	b := NewItem(7, id32(0x02))

	require.Equal(t, -1, a.Cmp(b))
	require.Equal(t, 1, b.Cmp(a))
	require.Equal(t, 0, a.Cmp(NewItem(7, id32(0x01))))
}

func TestItem_Equals(t *testing.T) {
	a := NewItem(3, id32(0xaa))
	require.True(t, a.Equals(NewItem(3, id32(0xaa))))
	require.False(t, a.Equals(NewItem(4, id32(0xaa))))
	require.False(t, a.Equals(NewItem(3, id32(0xab))))
}

func TestBound_CmpItem_Timestamp(t *testing.T) {
	it := NewItem(10, id32(0x50))

	require.Equal(t, -1, NewBound(9, nil).CmpItem(it))
	require.Equal(t, 1, NewBound(11, nil).CmpItem(it))
}

func TestBound_CmpItem_PrefixSemantics(t *testing.T) {
	it := NewItem(10, id32(0x50, 0x60))

	// An empty prefix sorts before any item at the same timestamp.
	require.Equal(t, -1, NewBound(10, nil).CmpItem(it))

	// A proper prefix of the id sorts before the item.
	require.Equal(t, -1, NewBound(10, []byte{0x50}).CmpItem(it))
	require.Equal(t, -1, NewBound(10, []byte{0x50, 0x60}).CmpItem(it))

	// The full id compares equal.
	require.Equal(t, 0, NewBound(10, id32(0x50, 0x60)).CmpItem(it))

	// A prefix that diverges compares byte-wise.
	require.Equal(t, 1, NewBound(10, []byte{0x51}).CmpItem(it))
	require.Equal(t, -1, NewBound(10, []byte{0x4f}).CmpItem(it))
}

func TestInfiniteBound_SortsAfterEverything(t *testing.T) {
	inf := InfiniteBound()
	require.True(t, inf.IsInfinite())
	require.Equal(t, format.MaxTimestamp, inf.Timestamp)

	huge := NewItem(format.MaxTimestamp, id32(0xff, 0xff))
	require.Equal(t, -1, NewBound(0, nil).CmpItem(huge))
	require.Equal(t, 1, inf.CmpItem(huge))
}

func TestMinimalBound_DifferentTimestamps(t *testing.T) {
	prev := NewItem(5, id32(0xaa))
	curr := NewItem(9, id32(0x11))

	b := MinimalBound(prev, curr)
	require.Equal(t, uint64(9), b.Timestamp)
	require.Empty(t, b.Prefix)
}

func TestMinimalBound_SharedPrefix(t *testing.T) {
	prev := NewItem(5, id32(0xaa, 0xbb, 0x01))
	curr := NewItem(5, id32(0xaa, 0xbb, 0x02))

	b := MinimalBound(prev, curr)
	require.Equal(t, []byte{0xaa, 0xbb, 0x02}, b.Prefix)

	// The bound separates the two items: after prev, not after curr.
	require.Equal(t, 1, b.CmpItem(prev))
	require.LessOrEqual(t, b.CmpItem(curr), 0)
}

func TestMinimalBound_FirstByteDiffers(t *testing.T) {
	prev := NewItem(5, id32(0x10))
	curr := NewItem(5, id32(0x20))

	b := MinimalBound(prev, curr)
	require.Equal(t, []byte{0x20}, b.Prefix)
}
