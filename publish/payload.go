package publish

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"beaconmap/beacon"
)

// Payload is the JSON form of a beacon record shared by MQTT and the
// live feed.
type Payload struct {
	MessageID  string       `json:"message_id"`
	Station    string       `json:"station,omitempty"`
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Emergency  string       `json:"emergency"`
	Country    uint16       `json:"country"`
	Format     string       `json:"format"`
	Mode       string       `json:"mode"`
	Lat        *float64     `json:"lat,omitempty"`
	Lon        *float64     `json:"lon,omitempty"`
	Long       *LongPayload `json:"long,omitempty"`
	Status     string       `json:"status"`
	ErrorCount uint8        `json:"error_count"`
	Timestamp  string       `json:"timestamp"`
}

type LongPayload struct {
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Supplementary string  `json:"supplementary"`
}

// NewPayload converts a record. Every payload gets a fresh message ID so
// consumers can drop duplicates delivered twice by QoS 1.
func NewPayload(rec beacon.Record, station string) Payload {
	p := Payload{
		MessageID:  uuid.New().String(),
		Station:    station,
		ID:         rec.HexID(),
		Type:       rec.Type.String(),
		Emergency:  rec.Emergency.String(),
		Country:    rec.CountryCode,
		Format:     rec.Format.String(),
		Mode:       rec.Mode.String(),
		Status:     rec.Status.String(),
		ErrorCount: rec.ErrorCount,
		Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if rec.Position != nil {
		lat, lon := rec.Position.Lat, rec.Position.Lon
		p.Lat, p.Lon = &lat, &lon
	}
	if rec.Long != nil {
		p.Long = &LongPayload{
			Lat:           rec.Long.Position.Lat,
			Lon:           rec.Long.Position.Lon,
			Supplementary: hex.EncodeToString(rec.Long.Supplementary[:]),
		}
	}
	return p
}
