// Package encoding implements the low-level codecs of the negentropy wire
// format: the unsigned varint used throughout messages, and the hex helpers
// used at API boundaries for human-readable ids.
package encoding

import (
	"github.com/arloliu/negentropy/errs"
)

// MaxVarintLen is the maximum encoded length of a uint64 varint (ten 7-bit
// groups cover 64 bits).
const MaxVarintLen = 10

// AppendVarint appends the varint encoding of v to dst and returns the
// extended slice.
//
// The encoding is big-endian base-128: 7-bit groups most significant first,
// leading zero groups skipped, bit 7 set on every byte except the last.
// Zero encodes as a single 0x00 byte.
func AppendVarint(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0)
	}

	var tmp [MaxVarintLen]byte
	n := 0
	for ; v != 0; v >>= 7 {
		tmp[n] = byte(v & 0x7f)
		n++
	}

	// Groups were collected least significant first; emit them reversed
	// with the continuation bit on all but the final byte.
	for i := n - 1; i > 0; i-- {
		dst = append(dst, tmp[i]|0x80)
	}

	return append(dst, tmp[0])
}

// ConsumeVarint decodes a varint from the front of data.
//
// Returns the decoded value and the number of bytes consumed. If data runs
// out before a terminator byte (bit 7 clear) is seen, it returns
// errs.ErrParseEnded.
func ConsumeVarint(data []byte) (uint64, int, error) {
	var v uint64
	for i, b := range data {
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}

	return 0, 0, errs.ErrParseEnded
}
