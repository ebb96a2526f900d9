package hash

import "github.com/cespare/xxhash/v2"

// Checksum computes the xxHash64 of the given bytes. Used as the snapshot
// integrity checksum.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
