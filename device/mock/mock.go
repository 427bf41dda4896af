// Package mock is a synthetic beacon transmitter for demos and tests. It
// cycles through short distress bursts, long message pairs, self tests and
// bursts with a single bit error, so every decode path gets exercised.
package mock

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"beaconmap/beacon"
	"beaconmap/epirb"
)

const (
	defaultInterval = 2 * time.Second
	jitterDeg       = 0.05
)

type station struct {
	id        uint64
	country   uint16
	emergency beacon.EmergencyType
	home      beacon.Position
}

// fleet holds the simulated beacons. Bits 7..5 of each ID's low byte are
// the beacon type.
var fleet = []station{
	{id: 0x0003A5C1E2F4B620, country: 232, emergency: beacon.Sinking, home: beacon.Position{Lat: 50.80, Lon: -1.10}},
	{id: 0x0007F00D12345640, country: 366, emergency: beacon.Fire, home: beacon.Position{Lat: 47.60, Lon: -122.30}},
	{id: 0x00012345ABCDEF00, country: 503, emergency: beacon.ManOverboard, home: beacon.Position{Lat: -33.86, Lon: 151.20}},
	{id: 0x000BEEF00C0FFE80, country: 257, emergency: beacon.Grounding, home: beacon.Position{Lat: 69.65, Lon: 18.96}},
}

// Scenario names the kind of transmission produced by one step.
type Scenario int

const (
	ShortDistress Scenario = iota
	LongPair
	SelfTest
	Noisy
	scenarioCount
)

func (s Scenario) String() string {
	switch s {
	case ShortDistress:
		return "short distress"
	case LongPair:
		return "long pair"
	case SelfTest:
		return "self test"
	case Noisy:
		return "noisy"
	default:
		return "unknown"
	}
}

// Transmitter produces bursts on a timer and decodes them with its own
// receiver, behaving like a radio source.
type Transmitter struct {
	rx       *epirb.Receiver
	interval time.Duration
	rng      *rand.Rand
	seq      int

	stop chan struct{}
	once sync.Once
}

// New builds a transmitter. A non-positive interval selects two seconds.
func New(rx *epirb.Receiver, interval time.Duration, seed int64) *Transmitter {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Transmitter{
		rx:       rx,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		stop:     make(chan struct{}),
	}
}

// Next returns the bursts of the next scenario in the cycle.
func (t *Transmitter) Next() (Scenario, [][]byte) {
	sc := Scenario(t.seq % int(scenarioCount))
	st := fleet[(t.seq/int(scenarioCount))%len(fleet)]
	t.seq++

	pos := t.jitter(st.home)
	spec := epirb.FrameSpec{
		ID:        st.id,
		Country:   st.country,
		Emergency: st.emergency,
		Position:  &pos,
	}

	switch sc {
	case ShortDistress:
		bits, err := epirb.EncodeShort(spec)
		if err != nil {
			log.Printf("mock: %v", err)
			return sc, nil
		}
		return sc, [][]byte{bits}
	case LongPair:
		spec.LongMessage = true
		var supp [4]byte
		t.rng.Read(supp[:])
		return sc, [][]byte{
			epirb.EncodeLong(spec),
			epirb.EncodeSecond(t.jitter(st.home), supp, st.emergency),
		}
	case SelfTest:
		spec.Test = true
		return sc, [][]byte{epirb.EncodeLong(spec)}
	default:
		bits := epirb.EncodeLong(spec)
		// keep the sync field intact so the mode stays known
		i := 32 + t.rng.Intn(96)
		bits[i] ^= 1
		return sc, [][]byte{bits}
	}
}

func (t *Transmitter) jitter(p beacon.Position) beacon.Position {
	return beacon.Position{
		Lat: p.Lat + (t.rng.Float64()*2-1)*jitterDeg,
		Lon: p.Lon + (t.rng.Float64()*2-1)*jitterDeg,
	}
}

// Start transmits until Close, sending decoded records down out. out is
// closed on return.
func (t *Transmitter) Start(out chan<- beacon.Record) {
	defer close(out)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			_, bursts := t.Next()
			for _, bits := range bursts {
				rec, ok := t.rx.Feed(bits)
				if !ok {
					continue
				}
				select {
				case out <- rec:
				case <-t.stop:
					return
				}
			}
		}
	}
}

func (t *Transmitter) Close() {
	t.once.Do(func() { close(t.stop) })
}
