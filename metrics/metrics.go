// Package metrics exports receiver counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beaconmap/beacon"
	"beaconmap/epirb"
)

// Metrics holds the receiver collectors. It implements epirb.Observer.
type Metrics struct {
	registry *prometheus.Registry

	framesDropped prometheus.Counter     // bursts too short to decode
	framesDecoded *prometheus.CounterVec // by correction status and mode
	bitsCorrected prometheus.Counter
	pairTimeouts  prometheus.Counter
	records       *prometheus.CounterVec // by beacon type and mode
	lastRecord    prometheus.Gauge       // unix time of the last emitted record
}

var _ epirb.Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "beaconmap_frames_dropped_total",
			Help: "Bursts too short to hold a frame",
		}),
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beaconmap_frames_decoded_total",
			Help: "Frames run through error correction",
		}, []string{"status", "mode"}),
		bitsCorrected: factory.NewCounter(prometheus.CounterOpts{
			Name: "beaconmap_bits_corrected_total",
			Help: "Bit errors repaired by error correction",
		}),
		pairTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "beaconmap_pair_timeouts_total",
			Help: "Long messages reported without their second frame",
		}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beaconmap_records_total",
			Help: "Beacon records emitted",
		}, []string{"type", "mode"}),
		lastRecord: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beaconmap_last_record_timestamp_seconds",
			Help: "Capture time of the last emitted record",
		}),
	}
}

func (m *Metrics) FrameDropped() {
	m.framesDropped.Inc()
}

func (m *Metrics) FrameDecoded(cf epirb.CorrectedFrame, mode beacon.TransmissionMode) {
	m.framesDecoded.WithLabelValues(cf.Status.String(), mode.String()).Inc()
	if cf.Status == beacon.StatusCorrected {
		m.bitsCorrected.Add(float64(cf.ErrorCount))
	}
}

func (m *Metrics) PairingTimedOut() {
	m.pairTimeouts.Inc()
}

func (m *Metrics) RecordEmitted(rec beacon.Record) {
	m.records.WithLabelValues(rec.Type.String(), rec.Mode.String()).Inc()
	m.lastRecord.Set(float64(rec.Timestamp.Unix()))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve runs an HTTP server with /metrics and any extra routes until ctx
// is done.
func (m *Metrics) Serve(ctx context.Context, addr string, extra map[string]http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	for path, h := range extra {
		mux.Handle(path, h)
	}

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics: Serving on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
