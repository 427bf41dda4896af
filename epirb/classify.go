package epirb

import (
	"math/bits"

	"beaconmap/beacon"
)

// Frame synchronisation patterns, 9 bits starting at bit 16.
const (
	syncOffset    = 16
	syncLen       = 9
	syncEmergency = 0b000101111
	syncTest      = 0b011010000

	syncMinBits     = 32
	syncMaxDistance = 2
)

// SyncWord reads the 9-bit frame sync field, MSB first.
func SyncWord(f RawFrame) uint16 {
	var w uint16
	for i := 0; i < syncLen; i++ {
		if f.Bit(syncOffset + i) {
			w |= 1 << (syncLen - 1 - i)
		}
	}
	return w
}

// ClassifySync matches the frame sync field against the normal and
// self-test patterns, tolerating up to two bit errors when one pattern is
// clearly closer.
func ClassifySync(f RawFrame) beacon.TransmissionMode {
	if f.Len() < syncMinBits {
		return beacon.ModeUnknown
	}

	w := SyncWord(f)
	switch w {
	case syncEmergency:
		return beacon.ModeEmergency
	case syncTest:
		return beacon.ModeTest
	}

	normal := bits.OnesCount16(w ^ syncEmergency)
	test := bits.OnesCount16(w ^ syncTest)
	switch {
	case normal <= syncMaxDistance && normal < test:
		return beacon.ModeEmergency
	case test <= syncMaxDistance && test < normal:
		return beacon.ModeTest
	default:
		return beacon.ModeUnknown
	}
}

var fillerBytes = [...]byte{0x00, 0xFF, 0xAA, 0x55}

// ClassifyPayload looks for self-test markers in the message content. With
// no marker present the burst is treated as a real distress call.
func ClassifyPayload(b Buffer) beacon.TransmissionMode {
	if protocolBits(b) == 0x03 {
		return beacon.ModeTest
	}
	if rawID(b)>>56 == 0xFF {
		return beacon.ModeTest
	}
	if emergencyBits(b) == 15 && typeBits(b) == 7 {
		return beacon.ModeTest
	}
	if repeatsFiller(b[:8]) {
		return beacon.ModeTest
	}
	return beacon.ModeEmergency
}

func repeatsFiller(p []byte) bool {
	for _, v := range p[1:] {
		if v != p[0] {
			return false
		}
	}
	for _, f := range fillerBytes {
		if p[0] == f {
			return true
		}
	}
	return false
}

// Classify runs the sync match first and only falls back to the payload
// heuristics when the sync field is inconclusive.
func Classify(f RawFrame, b Buffer) beacon.TransmissionMode {
	if mode := ClassifySync(f); mode != beacon.ModeUnknown {
		return mode
	}
	return ClassifyPayload(b)
}
