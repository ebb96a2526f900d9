// Package storage provides the ordered item containers the protocol engine
// reconciles over: items, range bounds, the additive fingerprint
// accumulator, the sealed Vector store, and snapshot persistence for
// sealed vectors.
package storage

import (
	"bytes"

	"github.com/arloliu/negentropy/format"
)

// Item is the atom of reconciliation: a (timestamp, id) pair.
//
// Items are totally ordered by timestamp ascending, then id bytes
// lexicographically ascending. All ids within one store share the same
// length.
type Item struct {
	Timestamp uint64
	ID        []byte
}

// NewItem creates an item from a timestamp and id. The id slice is copied.
func NewItem(timestamp uint64, id []byte) Item {
	return Item{Timestamp: timestamp, ID: bytes.Clone(id)}
}

// Cmp compares two items under the total order. It returns -1, 0, or 1.
func (it Item) Cmp(other Item) int {
	if it.Timestamp != other.Timestamp {
		if it.Timestamp < other.Timestamp {
			return -1
		}

		return 1
	}

	return bytes.Compare(it.ID, other.ID)
}

// Equals reports whether both components match.
func (it Item) Equals(other Item) bool {
	return it.Timestamp == other.Timestamp && bytes.Equal(it.ID, other.ID)
}

// Bound is an exclusive upper endpoint of a range: a timestamp plus an id
// prefix of up to id-size bytes.
//
// A bound sorts against items by timestamp first, then by comparing the
// prefix lexicographically over the common length; when the prefix matches
// the head of an item's id, the shorter prefix sorts first. The infinity
// bound (MaxTimestamp, empty prefix) sorts strictly after every item.
type Bound struct {
	Timestamp uint64
	Prefix    []byte
}

// NewBound creates a bound from a timestamp and id prefix. The prefix is
// copied.
func NewBound(timestamp uint64, prefix []byte) Bound {
	return Bound{Timestamp: timestamp, Prefix: bytes.Clone(prefix)}
}

// BoundFromItem creates the bound that sorts identically to the item: its
// timestamp with the full id as prefix.
func BoundFromItem(it Item) Bound {
	return Bound{Timestamp: it.Timestamp, Prefix: bytes.Clone(it.ID)}
}

// InfiniteBound returns the bound that sorts after every representable item.
func InfiniteBound() Bound {
	return Bound{Timestamp: format.MaxTimestamp}
}

// IsInfinite reports whether the bound is the infinity bound.
func (b Bound) IsInfinite() bool {
	return b.Timestamp == format.MaxTimestamp && len(b.Prefix) == 0
}

// CmpItem compares the bound against an item. It returns -1, 0, or 1.
//
// Equality means the bound's prefix is exactly the item's id; a proper
// prefix of the id sorts before the item. The infinity bound sorts after
// every item, including items timestamped MaxTimestamp.
func (b Bound) CmpItem(it Item) int {
	if b.IsInfinite() {
		return 1
	}
	if b.Timestamp != it.Timestamp {
		if b.Timestamp < it.Timestamp {
			return -1
		}

		return 1
	}

	n := min(len(b.Prefix), len(it.ID))
	if c := bytes.Compare(b.Prefix[:n], it.ID[:n]); c != 0 {
		return c
	}

	// Prefixes match over the common length; the shorter side sorts first.
	switch {
	case len(b.Prefix) < len(it.ID):
		return -1
	case len(b.Prefix) > len(it.ID):
		return 1
	default:
		return 0
	}
}

// MinimalBound computes the shortest bound that sorts after prev and
// not after curr, where prev < curr. Partitioning uses it to separate
// adjacent buckets with as few prefix bytes as possible, so both peers
// re-split compatibly.
func MinimalBound(prev, curr Item) Bound {
	if curr.Timestamp != prev.Timestamp {
		if curr.Timestamp == format.MaxTimestamp {
			// An empty prefix here would be the infinity bound, which sorts
			// after curr; one id byte keeps the bound at or before it.
			return Bound{Timestamp: curr.Timestamp, Prefix: bytes.Clone(curr.ID[:1])}
		}

		return Bound{Timestamp: curr.Timestamp}
	}

	shared := 0
	for shared < len(curr.ID) && shared < len(prev.ID) && curr.ID[shared] == prev.ID[shared] {
		shared++
	}

	return Bound{Timestamp: curr.Timestamp, Prefix: bytes.Clone(curr.ID[:shared+1])}
}
