package beacon

import (
	"fmt"
	"time"
)

// Type is the beacon category carried in the first frame.
type Type int

const (
	OrbitingLocationBeacon Type = iota
	PersonalLocatorBeacon
	EmergencyLocatorTransmitter
	SerialELT
	NationalELT
	TypeOther
)

func (t Type) String() string {
	switch t {
	case OrbitingLocationBeacon:
		return "OLB"
	case PersonalLocatorBeacon:
		return "PLB"
	case EmergencyLocatorTransmitter:
		return "ELT"
	case SerialELT:
		return "S-ELT"
	case NationalELT:
		return "N-ELT"
	default:
		return "Other"
	}
}

// EmergencyType is the nature of distress.
type EmergencyType int

const (
	Fire EmergencyType = iota
	Flooding
	Collision
	Grounding
	Sinking
	Disabled
	Abandoning
	Piracy
	ManOverboard
	EmergencyOther
)

func (e EmergencyType) String() string {
	switch e {
	case Fire:
		return "Fire"
	case Flooding:
		return "Flooding"
	case Collision:
		return "Collision"
	case Grounding:
		return "Grounding"
	case Sinking:
		return "Sinking"
	case Disabled:
		return "Disabled"
	case Abandoning:
		return "Abandoning"
	case Piracy:
		return "Piracy"
	case ManOverboard:
		return "MOB"
	default:
		return "Other"
	}
}

// MessageFormat is derived from the observed burst length.
type MessageFormat int

const (
	FormatUnknown MessageFormat = iota
	FormatShort
	FormatLong
)

func (f MessageFormat) String() string {
	switch f {
	case FormatShort:
		return "SHORT (112-bit)"
	case FormatLong:
		return "LONG (144-bit)"
	default:
		return "UNKNOWN"
	}
}

// TransmissionMode tells a real distress burst from a self-test.
type TransmissionMode int

const (
	ModeUnknown TransmissionMode = iota
	ModeEmergency
	ModeTest
)

func (m TransmissionMode) String() string {
	switch m {
	case ModeEmergency:
		return "EMERGENCY"
	case ModeTest:
		return "TEST"
	default:
		return "UNKNOWN"
	}
}

// PacketStatus is the outcome of error correction.
type PacketStatus int

const (
	StatusValid PacketStatus = iota
	StatusCorrected
	StatusError
)

func (s PacketStatus) String() string {
	switch s {
	case StatusValid:
		return "OK"
	case StatusCorrected:
		return "CORR"
	case StatusError:
		return "ERR"
	default:
		return "UNK"
	}
}

// Position is a decimal-degree fix. Decoders only build one after checking
// it lies inside [-90,90] x [-180,180].
type Position struct {
	Lat float64
	Lon float64
}

func (p Position) String() string {
	return fmt.Sprintf("%.4f°,%.4f°", p.Lat, p.Lon)
}

// LongFrame is what a paired second frame contributes.
type LongFrame struct {
	Position      Position
	Supplementary [4]byte
}

// Record is one decoded beacon report. Records are handed to consumers by
// value and are not modified after they leave the decoder.
type Record struct {
	ID          uint64
	Type        Type
	Emergency   EmergencyType
	CountryCode uint16
	Format      MessageFormat
	Mode        TransmissionMode

	Position *Position  // nil when the first frame carries no position
	Long     *LongFrame // nil unless a second frame was paired

	Status     PacketStatus
	ErrorCount uint8
	Timestamp  time.Time
}

// HasLongFrame reports whether a second frame was merged into the record.
func (r Record) HasLongFrame() bool {
	return r.Long != nil
}

// HexID renders the 60-bit identifier as 15 zero-padded hex digits.
func (r Record) HexID() string {
	return fmt.Sprintf("%015X", r.ID)
}

// BestPosition prefers the second-frame position over the first-frame one.
func (r Record) BestPosition() (Position, bool) {
	if r.Long != nil {
		return r.Long.Position, true
	}
	if r.Position != nil {
		return *r.Position, true
	}
	return Position{}, false
}

// Summary is the one-line form used by the console and the sidebar.
func (r Record) Summary() string {
	s := r.HexID() + " " + r.Type.String()
	if pos, ok := r.BestPosition(); ok {
		s += " " + pos.String()
	}
	return s + " " + r.Status.String()
}
