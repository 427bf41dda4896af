package epirb

import (
	"encoding/binary"

	"beaconmap/beacon"
)

const idMask = 1<<60 - 1

// rawID is bytes 3..10 big-endian, before masking to 60 bits.
func rawID(b Buffer) uint64 {
	return binary.BigEndian.Uint64(b[3:11])
}

// BeaconID extracts the 60-bit beacon identifier.
func BeaconID(b Buffer) uint64 {
	return rawID(b) & idMask
}

func typeBits(b Buffer) uint8      { return (b[10] >> 5) & 0x07 }
func emergencyBits(b Buffer) uint8 { return (b[11] >> 4) & 0x0F }
func protocolBits(b Buffer) uint8  { return (b[11] >> 1) & 0x03 }

// LongMessage reports whether the first frame announces a second frame.
func LongMessage(b Buffer) bool {
	return b[13]&0x01 != 0
}

// CountryCode is the 10-bit ITU maritime identification digits field.
func CountryCode(b Buffer) uint16 {
	return uint16(b[0]&0x03)<<8 | uint16(b[1])
}

func decodeBeaconType(bits uint8) beacon.Type {
	switch bits {
	case 0:
		return beacon.OrbitingLocationBeacon
	case 1:
		return beacon.PersonalLocatorBeacon
	case 2:
		return beacon.EmergencyLocatorTransmitter
	case 3:
		return beacon.SerialELT
	case 4:
		return beacon.NationalELT
	default:
		return beacon.TypeOther
	}
}

func decodeEmergencyType(bits uint8) beacon.EmergencyType {
	switch bits {
	case 0:
		return beacon.Fire
	case 1:
		return beacon.Flooding
	case 2:
		return beacon.Collision
	case 3:
		return beacon.Grounding
	case 4:
		return beacon.Sinking
	case 5:
		return beacon.Disabled
	case 6:
		return beacon.Abandoning
	case 7:
		return beacon.Piracy
	case 8:
		return beacon.ManOverboard
	default:
		return beacon.EmergencyOther
	}
}

// ShortPosition decodes the first-frame position. Frames without the
// position flag, or whose coordinates fall outside the globe, yield nil.
func ShortPosition(b Buffer) *beacon.Position {
	if b[12]&0x80 == 0 {
		return nil
	}

	latRaw := int32(b[12]&0x7F)<<10 | int32(b[13])<<2 | int32(b[14]>>6)&0x03
	if latRaw&0x10000 != 0 {
		latRaw |= ^int32(0x1FFFF)
	}
	lonRaw := int32(b[14]&0x3F)<<12 | int32(b[15])<<4 | int32(b[0]>>4)&0x0F
	if lonRaw&0x20000 != 0 {
		lonRaw |= ^int32(0x3FFFF)
	}

	return validPosition(
		float64(latRaw)*(180.0/131072.0),
		float64(lonRaw)*(360.0/262144.0),
	)
}

func validPosition(lat, lon float64) *beacon.Position {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &beacon.Position{Lat: lat, Lon: lon}
}

// DecodeFormat classifies a burst by its observed length, allowing for
// clock slip at either end.
func DecodeFormat(bitLen int) beacon.MessageFormat {
	switch {
	case bitLen >= ShortFrameBits-2 && bitLen <= ShortFrameBits+2:
		return beacon.FormatShort
	case bitLen >= LongFrameBits-2 && bitLen <= LongFrameBits+2:
		return beacon.FormatLong
	case bitLen > 120:
		return beacon.FormatLong
	case bitLen > 100:
		return beacon.FormatShort
	default:
		return beacon.FormatUnknown
	}
}

// Second frame layout: a 40-bit window at bytes 1..5 carries two 20-bit
// offset-binary coordinates in 1/600 degree, bytes 6..9 are passed through.
const (
	secondOffset = 0x80000
	secondScale  = 600.0
)

func secondPosition(b Buffer) *beacon.Position {
	var window uint64
	for i := 1; i <= 5; i++ {
		window = window<<8 | uint64(b[i])
	}
	latRaw := int64(window>>20) & 0xFFFFF
	lonRaw := int64(window) & 0xFFFFF
	return validPosition(
		float64(latRaw-secondOffset)/secondScale,
		float64(lonRaw-secondOffset)/secondScale,
	)
}

func secondEmergency(b Buffer) beacon.EmergencyType {
	return decodeEmergencyType((b[0] >> 3) & 0x0F)
}
