package epirb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"beaconmap/beacon"
)

// syncFrame builds an n-bit burst whose sync field holds word.
func syncFrame(word uint16, n int) RawFrame {
	bits := make([]byte, n)
	for i := 0; i < syncLen && syncOffset+i < n; i++ {
		bits[syncOffset+i] = byte(word>>(syncLen-1-i)) & 1
	}
	return NewRawFrame(bits)
}

func TestSyncWord(t *testing.T) {
	assert.Equal(t, uint16(syncEmergency), SyncWord(syncFrame(syncEmergency, ShortFrameBits)))
	assert.Equal(t, uint16(syncTest), SyncWord(syncFrame(syncTest, ShortFrameBits)))
}

func TestClassifySync(t *testing.T) {
	cases := []struct {
		name string
		word uint16
		want beacon.TransmissionMode
	}{
		{"normal", 0b000101111, beacon.ModeEmergency},
		{"self test", 0b011010000, beacon.ModeTest},
		{"normal two errors", 0b000101100, beacon.ModeEmergency},
		{"self test one error", 0b011010001, beacon.ModeTest},
		{"all ones", 0b111111111, beacon.ModeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySync(syncFrame(tc.word, ShortFrameBits)))
		})
	}
}

func TestClassifySyncNeedsEnoughBits(t *testing.T) {
	assert.Equal(t, beacon.ModeUnknown, ClassifySync(syncFrame(syncEmergency, syncMinBits-1)))
	assert.Equal(t, beacon.ModeEmergency, ClassifySync(syncFrame(syncEmergency, syncMinBits)))
}

func TestClassifyPayload(t *testing.T) {
	base := func() Buffer {
		var b Buffer
		b[0] = 0x12
		return b
	}

	b := base()
	assert.Equal(t, beacon.ModeEmergency, ClassifyPayload(b))

	b = base()
	b[11] = 0x06
	assert.Equal(t, beacon.ModeTest, ClassifyPayload(b), "test protocol")

	b = base()
	b[3] = 0xFF
	assert.Equal(t, beacon.ModeTest, ClassifyPayload(b), "test id prefix")

	b = base()
	b[10] = 0xE0
	b[11] = 0xF0
	assert.Equal(t, beacon.ModeTest, ClassifyPayload(b), "reserved type and emergency")

	for _, f := range []byte{0x00, 0xFF, 0xAA, 0x55} {
		var filler Buffer
		for i := 0; i < 8; i++ {
			filler[i] = f
		}
		assert.Equal(t, beacon.ModeTest, ClassifyPayload(filler), "filler %02X", f)
	}
}

func TestClassifyPrefersSync(t *testing.T) {
	var b Buffer
	b[3] = 0xFF
	assert.Equal(t, beacon.ModeEmergency, Classify(syncFrame(syncEmergency, ShortFrameBits), b))
	assert.Equal(t, beacon.ModeTest, Classify(syncFrame(0b111111111, ShortFrameBits), b))

	b[3] = 0
	b[0] = 0x12
	assert.Equal(t, beacon.ModeEmergency, Classify(syncFrame(0b111111111, ShortFrameBits), b))
}
