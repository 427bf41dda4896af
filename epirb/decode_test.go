package epirb

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconmap/beacon"
)

var captured = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestDecodeShortDistressBurst(t *testing.T) {
	var b Buffer
	binary.BigEndian.PutUint64(b[3:11], 0x123456789ABCD)
	b[2] = 0x17
	b[3] |= 0x80
	b[13] = 0
	b, err := SealAt(b, 88)
	require.NoError(t, err)

	d, ok := Decode(NewRawFrame(Unpack(b, ShortFrameBits)), captured)
	require.True(t, ok)

	rec := d.Record
	assert.Equal(t, uint64(0x123456789ABCD), rec.ID)
	assert.Equal(t, beacon.FormatShort, rec.Format)
	assert.Equal(t, beacon.ModeEmergency, rec.Mode)
	assert.Equal(t, beacon.StatusValid, rec.Status)
	assert.Equal(t, uint8(0), rec.ErrorCount)
	assert.False(t, rec.HasLongFrame())
	assert.False(t, d.LongMessage)
	assert.Equal(t, captured, rec.Timestamp)
}

func TestDecodeTooShort(t *testing.T) {
	_, ok := Decode(NewRawFrame(make([]byte, 64)), captured)
	assert.False(t, ok)
}

func TestDecodeCorrectsSingleFlip(t *testing.T) {
	bits := EncodeLong(FrameSpec{
		ID:        0x00ABCDEF01234520,
		Country:   0x1F3,
		Emergency: beacon.Sinking,
	})
	bits[70] ^= 1

	d, ok := Decode(NewRawFrame(bits), captured)
	require.True(t, ok)
	assert.Equal(t, beacon.StatusCorrected, d.Record.Status)
	assert.Equal(t, uint8(1), d.Record.ErrorCount)
	assert.Equal(t, uint64(0x00ABCDEF01234520), d.Record.ID)
	assert.Equal(t, beacon.PersonalLocatorBeacon, d.Record.Type)
	assert.Equal(t, beacon.Sinking, d.Record.Emergency)
	assert.Equal(t, uint16(0x1F3), d.Record.CountryCode)
	assert.Equal(t, beacon.FormatLong, d.Record.Format)
}

func TestDecodeUncorrectableKeepsReceivedFields(t *testing.T) {
	bits := EncodeLong(FrameSpec{ID: 0x00ABCDEF01234520})
	bits[40] ^= 1
	bits[90] ^= 1

	d, ok := Decode(NewRawFrame(bits), captured)
	require.True(t, ok)
	assert.Equal(t, beacon.StatusError, d.Record.Status)
	assert.Equal(t, uint8(UnknownErrorCount), d.Record.ErrorCount)
}

func TestEncodeLongRoundTrip(t *testing.T) {
	spec := FrameSpec{
		ID:          0x00ABCDEF01234520,
		Country:     0x1F3,
		Emergency:   beacon.Grounding,
		Test:        true,
		Position:    &beacon.Position{Lat: -33.5, Lon: 151.25},
		LongMessage: true,
	}
	d, ok := Decode(NewRawFrame(EncodeLong(spec)), captured)
	require.True(t, ok)

	rec := d.Record
	assert.Equal(t, beacon.StatusValid, rec.Status)
	assert.Equal(t, beacon.ModeTest, rec.Mode)
	assert.Equal(t, beacon.Grounding, rec.Emergency)
	assert.True(t, d.LongMessage)
	require.NotNil(t, rec.Position)
	assert.InDelta(t, -33.5, rec.Position.Lat, 0.01)
	assert.InDelta(t, 151.25, rec.Position.Lon, 0.01)
}

func TestEncodeShortRoundTrip(t *testing.T) {
	bits, err := EncodeShort(FrameSpec{
		ID:        0x00ABCDEF01234540,
		Country:   232,
		Emergency: beacon.Piracy,
		Position:  &beacon.Position{Lat: 50.8, Lon: -1.1},
	})
	require.NoError(t, err)
	require.Len(t, bits, ShortFrameBits)

	d, ok := Decode(NewRawFrame(bits), captured)
	require.True(t, ok)
	assert.Equal(t, beacon.StatusValid, d.Record.Status)
	assert.Equal(t, beacon.FormatShort, d.Record.Format)
	assert.Equal(t, beacon.EmergencyLocatorTransmitter, d.Record.Type)
	assert.Equal(t, beacon.Piracy, d.Record.Emergency)
	assert.Equal(t, beacon.ModeEmergency, d.Record.Mode)
	assert.Equal(t, uint64(0x00ABCDEF01234540), d.Record.ID)
	assert.Equal(t, uint16(232), d.Record.CountryCode)
	assert.Nil(t, d.Record.Position)
	assert.False(t, d.LongMessage)
}

func TestEncodeSecondRoundTrip(t *testing.T) {
	bits := EncodeSecond(beacon.Position{Lat: 10, Lon: -20}, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, beacon.ManOverboard)
	buf, ok := NewRawFrame(bits).Pack()
	require.True(t, ok)

	assert.Equal(t, uint16(0), Syndrome(buf))
	assert.False(t, LongMessage(buf))
	pos := secondPosition(buf)
	require.NotNil(t, pos)
	assert.Equal(t, 10.0, pos.Lat)
	assert.Equal(t, -20.0, pos.Lon)
	assert.Equal(t, beacon.ManOverboard, secondEmergency(buf))
}
