// Package engine fans decoded records out to the application's consumers.
package engine

import (
	"context"
	"sync"

	"beaconmap/beacon"
)

const (
	queueSize       = 64
	defaultClientSz = 32
)

// Hub delivers every published record to each subscriber in publish order.
// A subscriber that falls behind misses records instead of stalling the
// receiver. When the source ends, subscribers are closed after the last
// queued record has been handed out, so a closed channel means "no more".
type Hub struct {
	queue     chan beacon.Record
	register  chan chan beacon.Record
	clients   []chan beacon.Record
	clientBuf int

	closeOnce sync.Once
}

type Option func(*Hub)

// WithClientBuffer sets the default subscriber channel capacity.
func WithClientBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.clientBuf = size
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		queue:     make(chan beacon.Record, queueSize),
		register:  make(chan chan beacon.Record),
		clientBuf: defaultClientSz,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves the hub until the queue is closed and drained or ctx is done.
// Either way every subscriber is closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, ch := range h.clients {
			close(ch)
		}
		h.clients = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-h.register:
			h.clients = append(h.clients, ch)
		case rec, ok := <-h.queue:
			if !ok {
				return
			}
			for _, ch := range h.clients {
				select {
				case ch <- rec:
				default:
				}
			}
		}
	}
}

// Subscribe registers a consumer. Subscribers must be registered while Run
// is serving, before the source starts, to see every record.
func (h *Hub) Subscribe() <-chan beacon.Record {
	return h.SubscribeWithBuffer(h.clientBuf)
}

func (h *Hub) SubscribeWithBuffer(size int) <-chan beacon.Record {
	if size <= 0 {
		size = h.clientBuf
	}
	ch := make(chan beacon.Record, size)
	h.register <- ch
	return ch
}

// Publish queues one record. It must not be called after Close.
func (h *Hub) Publish(rec beacon.Record) {
	h.queue <- rec
}

// Close marks the end of the stream. Records already queued are still
// delivered before the subscribers are closed.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.queue) })
}

// Pump publishes everything a source emits and closes the hub once the
// source closes in.
func (h *Hub) Pump(ctx context.Context, in <-chan beacon.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-in:
			if !ok {
				h.Close()
				return
			}
			select {
			case h.queue <- rec:
			case <-ctx.Done():
				return
			}
		}
	}
}
