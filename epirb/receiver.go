package epirb

import (
	"time"

	"beaconmap/beacon"
)

// Observer is told about every step of the receive pipeline. Methods are
// called synchronously from Feed.
type Observer interface {
	FrameDropped()
	FrameDecoded(cf CorrectedFrame, mode beacon.TransmissionMode)
	PairingTimedOut()
	RecordEmitted(rec beacon.Record)
}

type nopObserver struct{}

func (nopObserver) FrameDropped() {}
func (nopObserver) FrameDecoded(CorrectedFrame, beacon.TransmissionMode) {}
func (nopObserver) PairingTimedOut() {}
func (nopObserver) RecordEmitted(beacon.Record) {}

// Receiver decodes the bursts of one receive channel in capture order.
// Each channel needs its own Receiver; it is not safe for concurrent use.
type Receiver struct {
	asm      *Reassembler
	now      func() time.Time
	observer Observer

	timeout           int
	keepUncorrectable bool
}

type Option func(*Receiver)

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Receiver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithPairTimeout sets how many bursts a long message waits for its
// second frame.
func WithPairTimeout(frames int) Option {
	return func(r *Receiver) {
		if frames > 0 {
			r.timeout = frames
		}
	}
}

// WithUncorrectable controls whether uncorrectable frames are emitted
// tagged ERR with an error count of 255. They are emitted by default;
// false discards them.
func WithUncorrectable(keep bool) Option {
	return func(r *Receiver) {
		r.keepUncorrectable = keep
	}
}

func WithObserver(o Observer) Option {
	return func(r *Receiver) {
		if o != nil {
			r.observer = o
		}
	}
}

func NewReceiver(opts ...Option) *Receiver {
	r := &Receiver{
		now:      time.Now,
		observer: nopObserver{},
		timeout:  DefaultPairTimeout,

		keepUncorrectable: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.asm = NewReassembler(r.timeout, r.keepUncorrectable)
	return r
}

// Feed decodes one burst of hard bits. It returns a record when the burst
// completes one.
func (r *Receiver) Feed(bits []byte) (beacon.Record, bool) {
	d, ok := Decode(NewRawFrame(bits), r.now())
	if !ok {
		r.observer.FrameDropped()
		return beacon.Record{}, false
	}
	r.observer.FrameDecoded(d.Frame, d.Record.Mode)

	rec, ev := r.asm.Push(d)
	if ev == TimedOut {
		r.observer.PairingTimedOut()
	}
	if !ev.Emits() {
		return beacon.Record{}, false
	}
	r.observer.RecordEmitted(rec)
	return rec, true
}

// FeedSoft slices soft symbols at threshold and decodes the result.
func (r *Receiver) FeedSoft(soft []byte, threshold byte) (beacon.Record, bool) {
	return r.Feed(HardDecide(soft, threshold))
}

// Flush emits a long message still waiting for its second frame.
func (r *Receiver) Flush() (beacon.Record, bool) {
	rec, ok := r.asm.Flush()
	if ok {
		r.observer.RecordEmitted(rec)
	}
	return rec, ok
}

// Phase exposes the reassembly state.
func (r *Receiver) Phase() Phase {
	return r.asm.Phase()
}
