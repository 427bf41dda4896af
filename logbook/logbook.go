// Package logbook appends one CSV line per emitted beacon record.
package logbook

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"

	"beaconmap/beacon"
)

// Fields renders a record as logbook columns: hex ID, numeric type,
// numeric emergency, mode, format, latitude, longitude, country, status
// and error count. Latitude and longitude are empty without a position.
func Fields(rec beacon.Record) []string {
	lat, lon := "", ""
	if pos, ok := rec.BestPosition(); ok {
		lat = strconv.FormatFloat(pos.Lat, 'f', 6, 64)
		lon = strconv.FormatFloat(pos.Lon, 'f', 6, 64)
	}
	return []string{
		rec.HexID(),
		strconv.Itoa(int(rec.Type)),
		strconv.Itoa(int(rec.Emergency)),
		rec.Mode.String(),
		rec.Format.String(),
		lat,
		lon,
		strconv.Itoa(int(rec.CountryCode)),
		rec.Status.String(),
		strconv.Itoa(int(rec.ErrorCount)),
	}
}

// Writer logs records while enabled. It is safe for concurrent use so the
// UI can toggle it while Consume runs.
type Writer struct {
	mu      sync.Mutex
	csv     *csv.Writer
	closer  io.Closer
	enabled bool
}

// NewWriter logs to w. Records are dropped until the writer is enabled.
func NewWriter(w io.Writer) *Writer {
	lw := &Writer{csv: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		lw.closer = c
	}
	return lw
}

// Open appends to the logbook file at path, creating it when needed.
func Open(path string, enabled bool) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening logbook: %w", err)
	}
	w := NewWriter(f)
	w.enabled = enabled
	return w, nil
}

func (w *Writer) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

func (w *Writer) SetEnabled(on bool) {
	w.mu.Lock()
	w.enabled = on
	w.mu.Unlock()
}

// Toggle flips logging on or off and returns the new state.
func (w *Writer) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = !w.enabled
	return w.enabled
}

// Write logs one record if logging is enabled. Each line is flushed
// straight away so a crash loses nothing already received.
func (w *Writer) Write(rec beacon.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.enabled {
		return nil
	}
	if err := w.csv.Write(Fields(rec)); err != nil {
		return fmt.Errorf("writing logbook: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Consume logs records from in until it closes or ctx is done.
func (w *Writer) Consume(ctx context.Context, in <-chan beacon.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-in:
			if !ok {
				return
			}
			if err := w.Write(rec); err != nil {
				log.Printf("Logbook: %v", err)
			}
		}
	}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
