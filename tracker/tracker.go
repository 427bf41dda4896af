// Package tracker remembers recently heard beacons.
package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"beaconmap/beacon"
)

// Sighting summarises every burst heard from one beacon while it stays
// in the cache.
type Sighting struct {
	First  time.Time
	Last   time.Time
	Bursts int
	Record beacon.Record // most recent record
}

// Tracker keys sightings by hex ID. Entries expire ttl after the beacon
// was last heard.
type Tracker struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func New(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tracker{cache: cache.New(ttl, ttl/2), ttl: ttl}
}

// Observe folds a record into its beacon's sighting and returns the
// updated sighting.
func (t *Tracker) Observe(rec beacon.Record) Sighting {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := rec.HexID()
	s := Sighting{First: rec.Timestamp}
	if v, found := t.cache.Get(key); found {
		s = v.(Sighting)
	}
	s.Last = rec.Timestamp
	s.Bursts++
	s.Record = rec
	t.cache.Set(key, s, t.ttl)
	return s
}

func (t *Tracker) Get(id uint64) (Sighting, bool) {
	v, found := t.cache.Get(beacon.Record{ID: id}.HexID())
	if !found {
		return Sighting{}, false
	}
	return v.(Sighting), true
}

// All returns the live sightings, most recently heard first.
func (t *Tracker) All() []Sighting {
	items := t.cache.Items()
	out := make([]Sighting, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(Sighting))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Last.Equal(out[j].Last) {
			return out[i].Record.ID < out[j].Record.ID
		}
		return out[i].Last.After(out[j].Last)
	})
	return out
}

func (t *Tracker) Count() int {
	return t.cache.ItemCount()
}

// Flush forgets every beacon.
func (t *Tracker) Flush() {
	t.cache.Flush()
}
