package epirb

import (
	"time"

	"beaconmap/beacon"
)

// Decoded is the result of decoding one burst on its own, before any
// pairing with a neighbouring burst.
type Decoded struct {
	Record      beacon.Record
	Frame       CorrectedFrame
	LongMessage bool
}

// Decode runs a single burst through correction, field parsing and
// classification. It reports false only when the burst is too short to
// hold a frame; every other input produces a best-effort record whose
// Status says how far it can be trusted.
func Decode(f RawFrame, ts time.Time) (Decoded, bool) {
	buf, ok := f.Pack()
	if !ok {
		return Decoded{}, false
	}

	cf := Correct(buf)
	b := cf.Data

	rec := beacon.Record{
		ID:          BeaconID(b),
		Type:        decodeBeaconType(typeBits(b)),
		Emergency:   decodeEmergencyType(emergencyBits(b)),
		CountryCode: CountryCode(b),
		Format:      DecodeFormat(f.Len()),
		Mode:        Classify(f, b),
		Position:    ShortPosition(b),
		Status:      cf.Status,
		ErrorCount:  cf.ErrorCount,
		Timestamp:   ts,
	}

	return Decoded{Record: rec, Frame: cf, LongMessage: LongMessage(b)}, true
}
