package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconmap/beacon"
	"beaconmap/engine"
)

// drain reads sub until it is closed.
func drain(t *testing.T, sub <-chan beacon.Record) []uint64 {
	t.Helper()
	var ids []uint64
	timeout := time.After(2 * time.Second)
	for {
		select {
		case rec, ok := <-sub:
			if !ok {
				return ids
			}
			ids = append(ids, rec.ID)
		case <-timeout:
			t.Fatal("subscriber never closed")
			return nil
		}
	}
}

func TestHubDoesNotBlockOnSlowConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := engine.NewHub(engine.WithClientBuffer(1))
	go hub.Run(ctx)

	fast := hub.SubscribeWithBuffer(128)
	slow := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 50; i++ {
			hub.Publish(beacon.Record{ID: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow consumer")
	}

	timeout := time.After(time.Second)
	for want := uint64(1); want <= 50; want++ {
		select {
		case rec := <-fast:
			require.Equal(t, want, rec.ID, "records must arrive in order")
		case <-timeout:
			t.Fatalf("fast consumer timeout waiting for record %d", want)
		}
	}

	assert.LessOrEqual(t, len(slow), 1)
}

func TestHubDeliversLastRecordBeforeClosing(t *testing.T) {
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		hub := engine.NewHub()
		go hub.Run(ctx)
		sub := hub.Subscribe()

		out := make(chan beacon.Record)
		go func() {
			out <- beacon.Record{ID: 0xABC}
			close(out)
		}()
		hub.Pump(ctx, out)

		require.Equal(t, []uint64{0xABC}, drain(t, sub), "shutdown %d", i)
		cancel()
	}
}

func TestHubClosesSubscribersOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := engine.NewHub()
	go hub.Run(ctx)

	sub := hub.Subscribe()
	cancel()
	assert.Empty(t, drain(t, sub))
}

func TestHubCloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := engine.NewHub()
	go hub.Run(ctx)
	sub := hub.Subscribe()

	hub.Publish(beacon.Record{ID: 1})
	hub.Publish(beacon.Record{ID: 2})
	hub.Close()
	hub.Close()
	assert.Equal(t, []uint64{1, 2}, drain(t, sub))
}
