package event

import (
	"github.com/meshsync/chainwatch/pkg/io"
)

// Event is a single on-chain event emitted by a committed transaction. It is
// produced once by the ledger and never mutated afterwards.
type Event struct {
	// Key identifies the logical stream this event belongs to.
	Key Key `json:"key"`
	// SequenceNumber is the position of the event within its stream.
	SequenceNumber uint64 `json:"sequence_number"`
	// Version is the ledger version the event was committed at.
	Version uint64 `json:"version"`
	// Payload is the opaque serialized event data.
	Payload []byte `json:"payload"`
}

// MaxPayloadSize limits the decoded payload length, the chain rejects
// anything bigger at execution time.
const MaxPayloadSize = 1 << 20

// New returns a new Event.
func New(key Key, seq uint64, version uint64, payload []byte) Event {
	return Event{
		Key:            key,
		SequenceNumber: seq,
		Version:        version,
		Payload:        payload,
	}
}

// IsNewEpoch reports whether the event belongs to the reserved on-chain
// reconfiguration stream.
func (e *Event) IsNewEpoch() bool {
	return e.Key.Equals(NewEpochKey())
}

// EncodeBinary implements the io.Serializable interface.
func (e *Event) EncodeBinary(w *io.BinWriter) {
	e.Key.EncodeBinary(w)
	w.WriteU64LE(e.SequenceNumber)
	w.WriteU64LE(e.Version)
	w.WriteVarBytes(e.Payload)
}

// DecodeBinary implements the io.Serializable interface.
func (e *Event) DecodeBinary(r *io.BinReader) {
	e.Key.DecodeBinary(r)
	e.SequenceNumber = r.ReadU64LE()
	e.Version = r.ReadU64LE()
	e.Payload = r.ReadVarBytes(MaxPayloadSize)
}
