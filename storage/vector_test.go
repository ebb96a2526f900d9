package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/negentropy/errs"
)

func TestNewVector_ValidatesIDSize(t *testing.T) {
	for _, size := range []int{1, 16, 32} {
		v, err := NewVector(size)
		require.NoError(t, err)
		require.Equal(t, size, v.IDSize())
	}

	for _, size := range []int{0, -1, 33} {
		_, err := NewVector(size)
		require.ErrorIs(t, err, errs.ErrInvalidIDSize)
	}
}

func TestVector_Insert_WrongIDSize(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)

	err = v.Insert(1, []byte{0x01})
	require.ErrorIs(t, err, errs.ErrInvalidIDSize)
}

func TestVector_Insert_AfterSeal(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)
	require.NoError(t, v.Seal())

	err = v.Insert(1, id32(0x01))
	require.ErrorIs(t, err, errs.ErrAlreadySealed)
}

func TestVector_Seal_Twice(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)

	require.NoError(t, v.Seal())
	require.ErrorIs(t, v.Seal(), errs.ErrAlreadySealed)
}

func TestVector_Seal_SortsAndDeduplicates(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)

	require.NoError(t, v.Insert(5, id32(0x02)))
	require.NoError(t, v.Insert(1, id32(0xff)))
	require.NoError(t, v.Insert(5, id32(0x01)))
	require.NoError(t, v.Insert(5, id32(0x02))) // exact duplicate
	require.NoError(t, v.Seal())

	require.Equal(t, 3, v.Size())

	first, err := v.GetItem(0)
	require.NoError(t, err)
	require.Equal(t, NewItem(1, id32(0xff)), first)

	second, err := v.GetItem(1)
	require.NoError(t, err)
	require.Equal(t, NewItem(5, id32(0x01)), second)

	third, err := v.GetItem(2)
	require.NoError(t, err)
	require.Equal(t, NewItem(5, id32(0x02)), third)
}

func TestVector_QueriesRequireSeal(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)
	require.NoError(t, v.Insert(1, id32(0x01)))

	_, err = v.GetItem(0)
	require.ErrorIs(t, err, errs.ErrNotSealed)

	_, err = v.FindLowerBound(0, 1, InfiniteBound())
	require.ErrorIs(t, err, errs.ErrNotSealed)

	_, err = v.Fingerprint(0, 1)
	require.ErrorIs(t, err, errs.ErrNotSealed)

	err = v.Iterate(0, 1, func(Item, int) bool { return true })
	require.ErrorIs(t, err, errs.ErrNotSealed)
}

func TestVector_FindLowerBound(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)
	for i := byte(0); i < 10; i++ {
		require.NoError(t, v.Insert(uint64(i)*10, id32(i)))
	}
	require.NoError(t, v.Seal())

	// First item at or after timestamp 35 is (40, id32(4)).
	i, err := v.FindLowerBound(0, v.Size(), NewBound(35, nil))
	require.NoError(t, err)
	require.Equal(t, 4, i)

	// An exact item bound lands on that item.
	i, err = v.FindLowerBound(0, v.Size(), NewBound(20, id32(2)))
	require.NoError(t, err)
	require.Equal(t, 2, i)

	// Beyond the last item.
	i, err = v.FindLowerBound(0, v.Size(), InfiniteBound())
	require.NoError(t, err)
	require.Equal(t, v.Size(), i)

	// Search respects the begin index.
	i, err = v.FindLowerBound(6, v.Size(), NewBound(0, nil))
	require.NoError(t, err)
	require.Equal(t, 6, i)
}

func TestVector_Fingerprint_MatchesAccumulator(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)
	require.NoError(t, v.Insert(1, id32(0x01)))
	require.NoError(t, v.Insert(2, id32(0x02)))
	require.NoError(t, v.Insert(3, id32(0x03)))
	require.NoError(t, v.Seal())

	var acc Accumulator
	acc.Add(id32(0x02))
	acc.Add(id32(0x03))

	fp, err := v.Fingerprint(1, 3)
	require.NoError(t, err)
	require.Equal(t, acc.Fingerprint(2), fp)
}

func TestVector_Fingerprint_EmptyRange(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)
	require.NoError(t, v.Seal())

	var acc Accumulator
	fp, err := v.Fingerprint(0, 0)
	require.NoError(t, err)
	require.Equal(t, acc.Fingerprint(0), fp)
}

func TestVector_Iterate_StopsEarly(t *testing.T) {
	v, err := NewVector(32)
	require.NoError(t, err)
	for i := byte(0); i < 5; i++ {
		require.NoError(t, v.Insert(uint64(i), id32(i)))
	}
	require.NoError(t, v.Seal())

	var seen int
	err = v.Iterate(0, 5, func(_ Item, _ int) bool {
		seen++

		return seen < 3
	})
	require.NoError(t, err)
	require.Equal(t, 3, seen)
}
