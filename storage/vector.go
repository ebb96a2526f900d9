package storage

import (
	"fmt"
	"slices"
	"sort"

	"github.com/arloliu/negentropy/errs"
	"github.com/arloliu/negentropy/format"
)

// Storage is the read surface the protocol engine reconciles over. A
// Storage must be sealed (sorted, deduplicated, immutable) before the
// engine touches it.
type Storage interface {
	// Size returns the number of items.
	Size() int

	// GetItem returns the item at rank i.
	GetItem(i int) (Item, error)

	// Iterate calls cb for each item in the half-open rank range
	// [begin, end), in order, until cb returns false.
	Iterate(begin, end int, cb func(it Item, i int) bool) error

	// FindLowerBound returns the first index in [begin, end) whose item
	// sorts at or after the bound, or end if none does.
	FindLowerBound(begin, end int, bound Bound) (int, error)

	// Fingerprint computes the fingerprint of the items in [begin, end).
	Fingerprint(begin, end int) (Fingerprint, error)
}

// Vector is the builtin Storage: an in-memory ordered sequence of items.
//
// Lifecycle: create, Insert in any order, Seal once, then query. A Vector
// is not safe for concurrent mutation; a sealed Vector is safe for
// concurrent reads.
type Vector struct {
	idSize int
	items  []Item
	sealed bool
}

var _ Storage = (*Vector)(nil)

// NewVector creates an empty vector for ids of the given byte length.
func NewVector(idSize int) (*Vector, error) {
	if idSize < format.MinIDSize || idSize > format.MaxIDSize {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", errs.ErrInvalidIDSize, idSize, format.MinIDSize, format.MaxIDSize)
	}

	return &Vector{idSize: idSize}, nil
}

// IDSize returns the id byte length the vector was created with.
func (v *Vector) IDSize() int {
	return v.idSize
}

// Sealed reports whether Seal has been called.
func (v *Vector) Sealed() bool {
	return v.sealed
}

// Insert adds an item. Valid only before sealing; the id must match the
// vector's id size. The id bytes are copied.
func (v *Vector) Insert(createdAt uint64, id []byte) error {
	if v.sealed {
		return fmt.Errorf("%w: insert after seal", errs.ErrAlreadySealed)
	}
	if len(id) != v.idSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidIDSize, len(id), v.idSize)
	}

	v.items = append(v.items, NewItem(createdAt, id))

	return nil
}

// InsertItem adds an already-constructed item, with the same rules as
// Insert.
func (v *Vector) InsertItem(it Item) error {
	return v.Insert(it.Timestamp, it.ID)
}

// Seal sorts the items, drops exact duplicates, and makes the vector
// immutable. Sealing twice is an error.
func (v *Vector) Seal() error {
	if v.sealed {
		return fmt.Errorf("%w: seal called twice", errs.ErrAlreadySealed)
	}

	slices.SortFunc(v.items, Item.Cmp)
	v.items = slices.CompactFunc(v.items, Item.Equals)
	v.sealed = true

	return nil
}

// Size returns the number of items in the sealed vector, or the number of
// pending inserts before sealing.
func (v *Vector) Size() int {
	return len(v.items)
}

// GetItem returns the item at rank i. The vector must be sealed.
func (v *Vector) GetItem(i int) (Item, error) {
	if !v.sealed {
		return Item{}, errs.ErrNotSealed
	}
	if i < 0 || i >= len(v.items) {
		return Item{}, fmt.Errorf("item index %d out of range (%d items)", i, len(v.items))
	}

	return v.items[i], nil
}

// Iterate calls cb for each item in [begin, end) until cb returns false.
func (v *Vector) Iterate(begin, end int, cb func(it Item, i int) bool) error {
	if err := v.checkRange(begin, end); err != nil {
		return err
	}

	for i := begin; i < end; i++ {
		if !cb(v.items[i], i) {
			break
		}
	}

	return nil
}

// FindLowerBound binary-searches [begin, end) for the first index whose
// item sorts at or after the bound.
func (v *Vector) FindLowerBound(begin, end int, bound Bound) (int, error) {
	if err := v.checkRange(begin, end); err != nil {
		return 0, err
	}

	i := sort.Search(end-begin, func(i int) bool {
		return bound.CmpItem(v.items[begin+i]) <= 0
	})

	return begin + i, nil
}

// Fingerprint folds the items in [begin, end) through an accumulator and
// returns the range fingerprint.
func (v *Vector) Fingerprint(begin, end int) (Fingerprint, error) {
	if err := v.checkRange(begin, end); err != nil {
		return Fingerprint{}, err
	}

	var acc Accumulator
	for i := begin; i < end; i++ {
		acc.AddItem(v.items[i])
	}

	return acc.Fingerprint(end - begin), nil
}

func (v *Vector) checkRange(begin, end int) error {
	if !v.sealed {
		return errs.ErrNotSealed
	}
	if begin < 0 || end > len(v.items) || begin > end {
		return fmt.Errorf("item range [%d, %d) out of range (%d items)", begin, end, len(v.items))
	}

	return nil
}
