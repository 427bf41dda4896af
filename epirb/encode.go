package epirb

import (
	"encoding/binary"
	"math"

	"beaconmap/beacon"
)

// FrameSpec describes the content of a synthetic first frame.
//
// The layout overlaps: bits 7..5 of the ID's low byte are also the beacon
// type, and the long-message flag is the lowest latitude bit of byte 13.
// The flag wins over the latitude.
type FrameSpec struct {
	ID          uint64
	Country     uint16
	Emergency   beacon.EmergencyType
	Test        bool
	Position    *beacon.Position
	LongMessage bool
}

func (s FrameSpec) buffer() Buffer {
	var b Buffer
	binary.BigEndian.PutUint64(b[3:11], s.ID&idMask)

	sync := uint16(syncEmergency)
	if s.Test {
		sync = syncTest
	}
	b[2] = byte(sync >> 1)
	b[3] |= byte(sync&1) << 7

	b[0] = byte(s.Country>>8) & 0x03
	b[1] = byte(s.Country)
	b[11] = emergencyCode(s.Emergency) << 4

	if s.Position != nil {
		lat := int32(math.Round(s.Position.Lat*131072.0/180.0)) & 0x1FFFF
		lon := int32(math.Round(s.Position.Lon*262144.0/360.0)) & 0x3FFFF
		b[12] = 0x80 | byte(lat>>10)&0x7F
		b[13] = byte(lat >> 2)
		b[14] = byte(lat&0x03)<<6 | byte(lon>>12)&0x3F
		b[15] = byte(lon >> 4)
		b[0] |= byte(lon&0x0F) << 4
	}

	if s.LongMessage {
		b[13] |= 0x01
	} else {
		b[13] &^= 0x01
	}
	return b
}

// EncodeLong builds a 144-bit first frame with its parity bytes filled in.
func EncodeLong(s FrameSpec) []byte {
	return Unpack(Seal(s.buffer()), LongFrameBits)
}

// shortCheckBits carry the check bits of a short burst: the two leading
// longitude bits and the latitude bits of bytes 12 and 13. Without the
// position flag none of them is read, and their syndromes span all 16 bits.
var shortCheckBits = []int{0, 1, 97, 98, 99, 100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}

// EncodeShort builds a 112-bit first frame. A short burst ends after byte
// 13, so bytes 14 onwards are not sent and the frame carries no position;
// s.Position is ignored. The country code, ID, emergency and flags survive.
func EncodeShort(s FrameSpec) ([]byte, error) {
	s.Position = nil
	b := s.buffer()
	for i := ShortFrameBits / 8; i < BufferLen; i++ {
		b[i] = 0
	}
	b, err := SealBits(b, shortCheckBits)
	if err != nil {
		return nil, err
	}
	return Unpack(b, ShortFrameBits), nil
}

// EncodeSecond builds the 144-bit continuation of a long message.
func EncodeSecond(pos beacon.Position, supplementary [4]byte, e beacon.EmergencyType) []byte {
	var b Buffer
	b[0] = emergencyCode(e) << 3

	lat := uint64(math.Round(pos.Lat*secondScale)+secondOffset) & 0xFFFFF
	lon := uint64(math.Round(pos.Lon*secondScale)+secondOffset) & 0xFFFFF
	window := lat<<20 | lon
	for i := 5; i >= 1; i-- {
		b[i] = byte(window)
		window >>= 8
	}
	copy(b[6:10], supplementary[:])
	return Unpack(Seal(b), LongFrameBits)
}

func emergencyCode(e beacon.EmergencyType) byte {
	if e < beacon.Fire || e > beacon.ManOverboard {
		return 0x0F
	}
	return byte(e)
}
