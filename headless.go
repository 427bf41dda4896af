package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"beaconmap/beacon"
	"beaconmap/tracker"
	"beaconmap/ui/msgbar"
)

// runHeadless prints one line per record until the source ends or ctx
// is cancelled.
func runHeadless(ctx context.Context, a *app) {
	log.Println("Running headless, press Ctrl+C to stop")
	printRecords(ctx, os.Stdout, a.tracker, a.records)
}

// printRecords reads records until the hub closes the channel, which
// happens only after the source's last record was delivered.
func printRecords(ctx context.Context, w io.Writer, tr *tracker.Tracker, records <-chan beacon.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				log.Println(errSourceClosed)
				return
			}
			seen := tr.Observe(rec)
			fmt.Fprintf(w, "%s  x%d\n", msgbar.Text(rec), seen.Bursts)
		}
	}
}
