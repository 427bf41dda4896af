package epirb

import "beaconmap/beacon"

// DefaultPairTimeout is how many bursts a first frame waits for its
// second frame before it is reported alone.
const DefaultPairTimeout = 30

// Phase is the reassembly state.
type Phase int

const (
	WaitFirst Phase = iota
	WaitSecond
)

func (p Phase) String() string {
	if p == WaitSecond {
		return "WAIT_SECOND"
	}
	return "WAIT_FIRST"
}

// Event says what a burst did to the reassembly state.
type Event int

const (
	Discarded Event = iota // first frame rejected
	Emitted                // single-frame record emitted
	Pending                // first frame stored, waiting for its second
	Waiting                // burst did not complete the pending record
	Paired                 // long record emitted
	TimedOut               // pending record emitted without its second frame
)

// Emits reports whether the event produced a record.
func (e Event) Emits() bool {
	return e == Emitted || e == Paired || e == TimedOut
}

func (e Event) String() string {
	switch e {
	case Discarded:
		return "discarded"
	case Emitted:
		return "emitted"
	case Pending:
		return "pending"
	case Waiting:
		return "waiting"
	case Paired:
		return "paired"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Reassembler pairs a long-message first frame with the burst carrying
// its continuation. It holds the state of exactly one receive channel and
// is not safe for concurrent use.
type Reassembler struct {
	phase   Phase
	pending beacon.Record
	frames  int

	timeout           int
	keepUncorrectable bool
}

// NewReassembler builds a reassembler in WaitFirst. A non-positive
// timeout selects DefaultPairTimeout.
func NewReassembler(timeout int, keepUncorrectable bool) *Reassembler {
	if timeout <= 0 {
		timeout = DefaultPairTimeout
	}
	return &Reassembler{timeout: timeout, keepUncorrectable: keepUncorrectable}
}

// Phase returns the current state.
func (r *Reassembler) Phase() Phase {
	return r.phase
}

// Pending returns the stored first frame while in WaitSecond.
func (r *Reassembler) Pending() (beacon.Record, bool) {
	if r.phase != WaitSecond {
		return beacon.Record{}, false
	}
	return r.pending, true
}

// Push feeds one decoded burst through the state machine.
func (r *Reassembler) Push(d Decoded) (beacon.Record, Event) {
	if r.phase == WaitSecond {
		return r.pushSecond(d)
	}
	return r.pushFirst(d)
}

func (r *Reassembler) pushFirst(d Decoded) (beacon.Record, Event) {
	if d.Record.ID == 0 {
		return beacon.Record{}, Discarded
	}
	if d.Frame.Status == beacon.StatusError {
		if r.keepUncorrectable {
			return d.Record, Emitted
		}
		return beacon.Record{}, Discarded
	}
	if !d.LongMessage {
		return d.Record, Emitted
	}

	r.pending = d.Record
	r.frames = 0
	r.phase = WaitSecond
	return beacon.Record{}, Pending
}

func (r *Reassembler) pushSecond(d Decoded) (beacon.Record, Event) {
	r.frames++
	if r.frames > r.timeout {
		return r.take(), TimedOut
	}

	if d.LongMessage || d.Frame.Status == beacon.StatusError {
		return beacon.Record{}, Waiting
	}
	b := d.Frame.Data
	pos := secondPosition(b)
	if pos == nil {
		return beacon.Record{}, Waiting
	}

	rec := r.take()
	long := &beacon.LongFrame{Position: *pos}
	copy(long.Supplementary[:], b[6:10])
	rec.Long = long
	rec.Emergency = secondEmergency(b)
	return rec, Paired
}

// Flush hands back a pending first frame, e.g. when the source closes.
func (r *Reassembler) Flush() (beacon.Record, bool) {
	if r.phase != WaitSecond {
		return beacon.Record{}, false
	}
	return r.take(), true
}

func (r *Reassembler) take() beacon.Record {
	rec := r.pending
	r.pending = beacon.Record{}
	r.frames = 0
	r.phase = WaitFirst
	return rec
}
