// Package endian provides byte order utilities for binary encoding and
// decoding.
//
// It combines the standard library's ByteOrder and AppendByteOrder
// interfaces into a single EndianEngine, so fixed-width fields can be read
// and appended through one value. The wire protocol's accumulator lanes and
// the snapshot header are both little-endian; big-endian is kept for
// completeness.
package endian

import (
	"encoding/binary"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface for convenient byte order operations.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian, so any
// standard byte order value can be used directly.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
