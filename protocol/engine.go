package protocol

import (
	"bytes"
	"fmt"

	"github.com/arloliu/negentropy/encoding"
	"github.com/arloliu/negentropy/errs"
	"github.com/arloliu/negentropy/format"
	"github.com/arloliu/negentropy/storage"
)

// frameSlack is the headroom kept under the frame size limit so a trailing
// fingerprint record always fits after truncation.
const frameSlack = 200

// role tags the engine's position in the exchange. It is fixed by the
// first operation: Initiate claims the initiator role, Reconcile on a
// fresh engine claims the responder role.
type role uint8

const (
	roleFresh role = iota
	roleInitiator
	roleResponder
)

// Engine is a single-peer reconciliation state machine bound to a sealed
// store.
//
// An initiator drives the exchange: it calls Initiate once, forwards the
// message, and feeds every response to Reconcile until Reconcile returns a
// nil next message. A responder only ever calls Reconcile. One engine
// serves one peer; it is not safe for concurrent use.
type Engine struct {
	store          storage.Storage
	idSize         int
	frameSizeLimit uint64

	role     role
	done     bool
	received int

	// seenNeeds tracks ids already reported as needed, so ranges revisited
	// after frame truncation do not report them again.
	seenNeeds map[string]bool
}

// NewEngine creates an engine over a sealed store.
//
// idSize is the byte length of every id in the exchange and must be in
// [1, 32]. frameSizeLimit caps the encoded size of outgoing messages;
// zero means unlimited, any other value must be at least 4096.
func NewEngine(store storage.Storage, idSize int, frameSizeLimit uint64) (*Engine, error) {
	if idSize < format.MinIDSize || idSize > format.MaxIDSize {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", errs.ErrInvalidIDSize, idSize, format.MinIDSize, format.MaxIDSize)
	}
	if frameSizeLimit != 0 && frameSizeLimit < format.FrameSizeLimitMin {
		return nil, fmt.Errorf("%w: %d below %d", errs.ErrFrameSizeLimitTooSmall, frameSizeLimit, format.FrameSizeLimitMin)
	}

	return &Engine{store: store, idSize: idSize, frameSizeLimit: frameSizeLimit}, nil
}

// Initiate claims the initiator role and produces the opening message: one
// Fingerprint record covering the whole domain, or an empty IdList when
// the local store holds nothing.
func (e *Engine) Initiate() ([]byte, error) {
	if e.role != roleFresh {
		return nil, fmt.Errorf("%w: initiate on a %s engine", errs.ErrInitiator, e.roleName())
	}

	w := newMessageWriter()

	size := e.store.Size()
	if size == 0 {
		o := w.appendBound(nil, storage.InfiniteBound())
		o = encoding.AppendVarint(o, uint64(format.ModeIdList))
		o = encoding.AppendVarint(o, 0)
		w.appendRecord(o)

		e.role = roleInitiator

		return w.bytes(), nil
	}

	fp, err := e.store.Fingerprint(0, size)
	if err != nil {
		w.release()

		return nil, err
	}

	o := w.appendBound(nil, storage.InfiniteBound())
	o = encoding.AppendVarint(o, uint64(format.ModeFingerprint))
	o = append(o, fp.SV()...)
	w.appendRecord(o)

	e.role = roleInitiator

	return w.bytes(), nil
}

// Reconcile ingests one incoming message and produces the next outgoing
// one.
//
// On the initiator, haveIDs collects ids the peer lacks and needIDs ids
// the local store lacks; a nil next message means reconciliation is
// complete. On a responder both lists are always empty and the next
// message is never nil.
func (e *Engine) Reconcile(msg []byte) (next []byte, haveIDs [][]byte, needIDs [][]byte, err error) {
	if e.done {
		return nil, nil, nil, fmt.Errorf("%w: reconcile on a finished engine", errs.ErrInitiator)
	}

	r, err := newMessageReader(msg)
	if err != nil {
		return nil, nil, nil, err
	}

	prevRole := e.role
	if e.role == roleFresh {
		e.role = roleResponder
	}

	w := newMessageWriter()
	defer w.release()

	haveIDs, needIDs, err = e.walk(r, w)
	if err != nil {
		e.role = prevRole

		return nil, nil, nil, err
	}

	for _, id := range needIDs {
		e.markNeed(id)
	}
	e.received++

	if e.role == roleInitiator && w.empty() {
		e.done = true

		return nil, haveIDs, needIDs, nil
	}

	return w.bytes(), haveIDs, needIDs, nil
}

// walk processes every incoming record against the local store and stages
// the response. It is the recursive split/fingerprint/skip/idlist decision
// of the protocol, flattened over the incoming record sequence.
func (e *Engine) walk(r *messageReader, w *messageWriter) (haveIDs, needIDs [][]byte, err error) {
	isInitiator := e.role == roleInitiator
	firstMessage := e.received == 0
	size := e.store.Size()

	prevBound := storage.Bound{}
	prevIndex := 0
	skip := false

	var o []byte

	// A pending skip is flushed only when a substantive record follows it,
	// so adjacent skips merge into one.
	doSkip := func() {
		if skip {
			skip = false
			o = w.appendBound(o, prevBound)
			o = encoding.AppendVarint(o, uint64(format.ModeSkip))
		}
	}

	for !r.empty() {
		o = o[:0]
		savedTimestamp := w.lastTimestamp

		// Have/need contributions of the staged record; they commit only
		// once the record clears the frame budget.
		var stagedHave, stagedNeed [][]byte

		currBound, err := r.readBound(e.idSize)
		if err != nil {
			return nil, nil, err
		}
		mode, err := r.readMode()
		if err != nil {
			return nil, nil, err
		}

		lower := prevIndex
		upper, err := e.store.FindLowerBound(lower, size, currBound)
		if err != nil {
			return nil, nil, err
		}

		truncatedAt := -1

		switch mode {
		case format.ModeSkip:
			skip = true

		case format.ModeFingerprint:
			theirFP, err := r.readBytes(format.FingerprintSize)
			if err != nil {
				return nil, nil, err
			}

			ourFP, err := e.store.Fingerprint(lower, upper)
			if err != nil {
				return nil, nil, err
			}

			if bytes.Equal(theirFP, ourFP.SV()) {
				skip = true
				break
			}

			doSkip()
			o, err = e.splitRange(w, o, lower, upper, currBound, !isInitiator)
			if err != nil {
				return nil, nil, err
			}

		case format.ModeIdList:
			theirList, theirSet, err := e.readIDList(r)
			if err != nil {
				return nil, nil, err
			}

			switch {
			case isInitiator:
				// Partition the range: ids both sides hold are settled, the
				// peer's extras become needs, local extras become haves and
				// are declared back since the peer cannot see them. The
				// declaration truncates at the frame budget; membership still
				// runs over the whole range so needs stay exact.
				endBound := currBound
				var payload []byte
				count := 0
				emitting := true

				err = e.store.Iterate(lower, upper, func(it storage.Item, i int) bool {
					if _, ok := theirSet[string(it.ID)]; ok {
						theirSet[string(it.ID)] = true

						return true
					}

					if emitting && e.overflows(w.len()+len(o)+len(payload)+e.idSize) {
						emitting = false
						endBound = storage.BoundFromItem(it)
						truncatedAt = i
					}
					if emitting {
						payload = append(payload, it.ID...)
						count++
						stagedHave = append(stagedHave, bytes.Clone(it.ID))
					}

					return true
				})
				if err != nil {
					return nil, nil, err
				}

				for _, id := range theirList {
					if !theirSet[string(id)] {
						stagedNeed = append(stagedNeed, bytes.Clone(id))
					}
				}

				if count == 0 && truncatedAt < 0 {
					// Nothing to declare; needs carry no wire cost, so they
					// commit right away and the range is settled.
					needIDs = e.commitNeeds(needIDs, stagedNeed)
					skip = true

					break
				}

				doSkip()
				o = w.appendBound(o, endBound)
				o = encoding.AppendVarint(o, uint64(format.ModeIdList))
				o = encoding.AppendVarint(o, uint64(count))
				o = append(o, payload...)

				if truncatedAt >= 0 {
					upper = truncatedAt
				}

			case firstMessage:
				// Opening message from an empty-store initiator: answer with
				// everything it did not list, truncating at the frame budget.
				endBound := currBound
				var payload []byte
				count := 0

				err = e.store.Iterate(lower, upper, func(it storage.Item, i int) bool {
					if e.overflows(w.len() + len(o) + len(payload) + e.idSize) {
						endBound = storage.BoundFromItem(it)
						truncatedAt = i

						return false
					}
					if _, ok := theirSet[string(it.ID)]; !ok {
						payload = append(payload, it.ID...)
						count++
					}

					return true
				})
				if err != nil {
					return nil, nil, err
				}

				if count == 0 && truncatedAt < 0 {
					// Nothing the peer lacks here; the range is settled.
					skip = true

					break
				}

				doSkip()
				o = w.appendBound(o, endBound)
				o = encoding.AppendVarint(o, uint64(format.ModeIdList))
				o = encoding.AppendVarint(o, uint64(count))
				o = append(o, payload...)

				if truncatedAt >= 0 {
					upper = truncatedAt
				}

			default:
				// Mid-exchange IdLists are the initiator declaring what the
				// local side is missing; the range itself is settled.
				skip = true
			}
		}

		if e.overflows(w.len() + len(o)) {
			// The staged record does not fit even truncated. Drop it, along
			// with its have/need contributions, and cover everything from its
			// range onward with a single fingerprint so the next round
			// revisits it.
			w.lastTimestamp = savedTimestamp
			if err := e.appendTailFingerprint(w, lower); err != nil {
				return nil, nil, err
			}

			break
		}

		w.appendRecord(o)
		haveIDs = append(haveIDs, stagedHave...)
		needIDs = e.commitNeeds(needIDs, stagedNeed)

		prevIndex = upper
		prevBound = currBound

		if truncatedAt >= 0 {
			// The id list stopped short of its range; fingerprint the rest of
			// the domain and let the next round continue from there.
			if err := e.appendTailFingerprint(w, truncatedAt); err != nil {
				return nil, nil, err
			}

			break
		}
	}

	// The responder closes every response with an explicit record at the
	// infinity bound; on the initiator a trailing skip carries no
	// information and is dropped, which is what makes a fully reconciled
	// round come out empty.
	if !isInitiator && skip {
		o = o[:0]
		doSkip()
		w.appendRecord(o)
	}

	return haveIDs, needIDs, nil
}

// splitRange stages the response for a range whose fingerprints disagree.
//
// A responder enumerates small ranges outright; otherwise the range is cut
// into roughly equal buckets, each answered by its own fingerprint, with
// minimal separating prefixes as the intermediate bounds. The initiator
// never enumerates: even a small range stays in fingerprint form so the
// peer drives the id exchange.
func (e *Engine) splitRange(w *messageWriter, o []byte, lower, upper int, upperBound storage.Bound, allowIDList bool) ([]byte, error) {
	numElems := upper - lower

	if allowIDList && numElems <= format.Buckets {
		o = w.appendBound(o, upperBound)
		o = encoding.AppendVarint(o, uint64(format.ModeIdList))
		o = encoding.AppendVarint(o, uint64(numElems))

		err := e.store.Iterate(lower, upper, func(it storage.Item, _ int) bool {
			o = append(o, it.ID...)

			return true
		})
		if err != nil {
			return nil, err
		}

		return o, nil
	}

	if numElems == 0 {
		fp, err := e.store.Fingerprint(lower, upper)
		if err != nil {
			return nil, err
		}

		o = w.appendBound(o, upperBound)
		o = encoding.AppendVarint(o, uint64(format.ModeFingerprint))

		return append(o, fp.SV()...), nil
	}

	itemsPerBucket := max(1, numElems/format.Buckets)

	curr := lower
	for i := 0; curr < upper; i++ {
		bucketEnd := curr + itemsPerBucket
		if i == format.Buckets-1 || bucketEnd > upper {
			bucketEnd = upper
		}

		fp, err := e.store.Fingerprint(curr, bucketEnd)
		if err != nil {
			return nil, err
		}

		nextBound := upperBound
		if bucketEnd < upper {
			prevItem, err := e.store.GetItem(bucketEnd - 1)
			if err != nil {
				return nil, err
			}
			currItem, err := e.store.GetItem(bucketEnd)
			if err != nil {
				return nil, err
			}
			nextBound = storage.MinimalBound(prevItem, currItem)
		}

		o = w.appendBound(o, nextBound)
		o = encoding.AppendVarint(o, uint64(format.ModeFingerprint))
		o = append(o, fp.SV()...)

		curr = bucketEnd
	}

	return o, nil
}

// readIDList consumes an IdList payload, returning the ids in wire order
// plus a presence map used for set subtraction. Duplicate ids collapse.
func (e *Engine) readIDList(r *messageReader) ([][]byte, map[string]bool, error) {
	num, err := r.readVarint()
	if err != nil {
		return nil, nil, err
	}

	list := make([][]byte, 0, num)
	set := make(map[string]bool, num)
	for range num {
		id, err := r.readBytes(e.idSize)
		if err != nil {
			return nil, nil, err
		}

		if _, ok := set[string(id)]; !ok {
			set[string(id)] = false
			list = append(list, id)
		}
	}

	return list, set, nil
}

// commitNeeds appends staged needs that were not reported in an earlier
// round. Ranges within one message are disjoint, so in-round duplicates
// cannot occur; the seen set itself is only updated once the whole round
// succeeds.
func (e *Engine) commitNeeds(needIDs [][]byte, staged [][]byte) [][]byte {
	for _, id := range staged {
		if !e.seenNeeds[string(id)] {
			needIDs = append(needIDs, id)
		}
	}

	return needIDs
}

// markNeed records a reported id so revisited ranges skip it.
func (e *Engine) markNeed(id []byte) {
	if e.seenNeeds == nil {
		e.seenNeeds = make(map[string]bool)
	}
	e.seenNeeds[string(id)] = true
}

// appendTailFingerprint commits a Fingerprint record over [from, size) up
// to the infinity bound. It fits inside the frame slack by construction.
func (e *Engine) appendTailFingerprint(w *messageWriter, from int) error {
	fp, err := e.store.Fingerprint(from, e.store.Size())
	if err != nil {
		return err
	}

	o := w.appendBound(nil, storage.InfiniteBound())
	o = encoding.AppendVarint(o, uint64(format.ModeFingerprint))
	o = append(o, fp.SV()...)
	w.appendRecord(o)

	return nil
}

// overflows reports whether an outgoing message of n bytes would break the
// frame budget, slack included.
func (e *Engine) overflows(n int) bool {
	return e.frameSizeLimit > 0 && uint64(n) > e.frameSizeLimit-frameSlack
}

func (e *Engine) roleName() string {
	switch e.role {
	case roleInitiator:
		return "initiator"
	case roleResponder:
		return "responder"
	default:
		return "fresh"
	}
}
