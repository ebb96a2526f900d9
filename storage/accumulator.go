package storage

import (
	"crypto/sha256"

	"github.com/arloliu/negentropy/encoding"
	"github.com/arloliu/negentropy/endian"
	"github.com/arloliu/negentropy/format"
)

// accumulatorSize is the register width. Ids shorter than this are widened
// with trailing zeros for the lane math only.
const accumulatorSize = 32

var laneEngine = endian.GetLittleEndianEngine()

// Fingerprint is the 16-byte commitment of a range's item set. Equal item
// sets over the same id size produce equal fingerprints; unequal sets
// collide only with negligible probability.
type Fingerprint [format.FingerprintSize]byte

// SV returns the fingerprint bytes as a slice.
func (f *Fingerprint) SV() []byte {
	return f[:]
}

// Accumulator folds item ids into a 32-byte commitment by modular addition
// over eight little-endian 32-bit lanes. Addition is commutative and
// invertible, so set union maps to Add and set difference to a negated Add,
// independent of insertion order.
//
// The zero value is ready to use.
type Accumulator struct {
	buf [accumulatorSize]byte
}

// Reset clears the register.
func (acc *Accumulator) Reset() {
	acc.buf = [accumulatorSize]byte{}
}

// Add folds an id into the register. Ids shorter than the register are
// zero-extended.
func (acc *Accumulator) Add(id []byte) {
	var widened [accumulatorSize]byte
	copy(widened[:], id)

	for off := 0; off < accumulatorSize; off += 4 {
		sum := laneEngine.Uint32(acc.buf[off:off+4]) + laneEngine.Uint32(widened[off:off+4])
		laneEngine.PutUint32(acc.buf[off:off+4], sum)
	}
}

// AddItem folds an item's id into the register.
func (acc *Accumulator) AddItem(it Item) {
	acc.Add(it.ID)
}

// Negate replaces each lane with its two's complement, turning a subsequent
// Add into a subtraction.
func (acc *Accumulator) Negate() {
	for off := 0; off < accumulatorSize; off += 4 {
		laneEngine.PutUint32(acc.buf[off:off+4], -laneEngine.Uint32(acc.buf[off:off+4]))
	}
}

// Fingerprint derives the range fingerprint for a register folded from n
// items: the first 16 bytes of SHA-256 over the register followed by the
// varint of n. The length salt separates sets whose lane sums coincide.
func (acc *Accumulator) Fingerprint(n int) Fingerprint {
	input := make([]byte, 0, accumulatorSize+encoding.MaxVarintLen)
	input = append(input, acc.buf[:]...)
	input = encoding.AppendVarint(input, uint64(n))

	digest := sha256.Sum256(input)

	var fp Fingerprint
	copy(fp[:], digest[:format.FingerprintSize])

	return fp
}
