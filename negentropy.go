// Package negentropy implements a set-reconciliation protocol: two peers
// each hold a set of fixed-size item identifiers, and after a bounded
// exchange of opaque messages each learns which items the other is missing.
//
// The protocol fingerprints ranges of a sorted (timestamp, id) sequence
// with an additive 256-bit accumulator, recursively splitting ranges whose
// fingerprints disagree until small ranges can be exchanged literally. For
// append-mostly event stores with small symmetric differences, the whole
// exchange typically costs a few kilobytes regardless of set size.
//
// # Core Features
//
//   - Range fingerprinting via lane-wise additive commitments (SHA-256 finalized)
//   - Compact wire format: delta-encoded bounds, varints, minimal id prefixes
//   - Strict initiator/responder role asymmetry with at-most-once framing
//   - Optional per-message frame size limit for constrained transports
//   - Snapshot persistence for sealed stores (None/Zstd/S2/LZ4 payloads)
//
// # Basic Usage
//
// Reconciling two stores (transport elided; each peer runs one engine):
//
//	import "github.com/arloliu/negentropy"
//
//	vec, _ := negentropy.NewVector(negentropy.DefaultIDSize)
//	for _, ev := range events {
//	    vec.Insert(ev.CreatedAt, ev.ID)
//	}
//	vec.Seal()
//
//	engine, _ := negentropy.NewDefaultEngine(vec)
//	msg, _ := engine.Initiate()
//	for msg != nil {
//	    resp := send(msg) // round-trip over the caller's transport
//	    var have, need [][]byte
//	    msg, have, need, _ = engine.Reconcile(resp)
//	    // have: ids the peer is missing; need: ids we are missing
//	}
//
// The responding peer feeds every incoming message to Reconcile on its own
// engine and forwards the returned message back.
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the protocol
// and storage packages, simplifying the most common use cases. For
// fine-grained control (custom Storage implementations, snapshot
// compression options), use those packages directly.
package negentropy

import (
	"github.com/arloliu/negentropy/encoding"
	"github.com/arloliu/negentropy/format"
	"github.com/arloliu/negentropy/protocol"
	"github.com/arloliu/negentropy/storage"
)

// DefaultIDSize is the id byte length used by the convenience constructors.
const DefaultIDSize = format.DefaultIDSize

// NewVector creates an empty item store for ids of the given byte length.
//
// Populate it with Insert, then Seal it before handing it to an engine.
func NewVector(idSize int) (*storage.Vector, error) {
	return storage.NewVector(idSize)
}

// NewEngine creates a reconciliation engine over a sealed store.
//
// Parameters:
//   - store: The sealed item store to reconcile over
//   - idSize: Byte length of every id in the exchange, in [1, 32]
//   - frameSizeLimit: Outgoing message byte ceiling; 0 means unlimited,
//     otherwise at least 4096
//
// Returns an error if idSize or frameSizeLimit is out of range.
func NewEngine(store storage.Storage, idSize int, frameSizeLimit uint64) (*protocol.Engine, error) {
	return protocol.NewEngine(store, idSize, frameSizeLimit)
}

// NewDefaultEngine creates an engine with 32-byte ids and no frame size
// limit, the common configuration for content-addressed event stores.
func NewDefaultEngine(store storage.Storage) (*protocol.Engine, error) {
	return protocol.NewEngine(store, format.DefaultIDSize, 0)
}

// ToHex returns the lowercase hex encoding of an id.
func ToHex(id []byte) string {
	return encoding.ToHex(id)
}

// FromHex decodes a hex string into an id.
func FromHex(s string) ([]byte, error) {
	return encoding.FromHex(s)
}
