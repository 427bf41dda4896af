package bitline

import (
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconmap/beacon"
	"beaconmap/config"
	"beaconmap/epirb"
)

func bitString(bits []byte) string {
	var sb strings.Builder
	for _, b := range bits {
		sb.WriteByte('0' + b)
	}
	return sb.String()
}

func hexString(bits []byte) string {
	var sb strings.Builder
	for i := 0; i+4 <= len(bits); i += 4 {
		fmt.Fprintf(&sb, "%X", bits[i]<<3|bits[i+1]<<2|bits[i+2]<<1|bits[i+3])
	}
	return sb.String()
}

func TestParseLineBits(t *testing.T) {
	want := epirb.EncodeLong(epirb.FrameSpec{ID: 42})
	got, err := ParseLine(bitString(want) + "\r\n")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseLineHex(t *testing.T) {
	got, err := ParseLine("0xA5")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 1, 0, 0, 1, 0, 1}, got)

	// a short run of 0/1 characters is hex, not bits
	got, err = ParseLine("10")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 0}, got)
}

func TestParseLineRejectsGarbage(t *testing.T) {
	_, err := ParseLine("hello")
	assert.ErrorIs(t, err, ErrBadLine)
	_, err = ParseLine("   ")
	assert.ErrorIs(t, err, ErrBadLine)
}

func TestClientReadsFeed(t *testing.T) {
	server, client := net.Pipe()
	c := NewClient(client, epirb.NewReceiver())

	go func() {
		defer server.Close()
		fmt.Fprintf(server, "# feed v1\n")
		fmt.Fprintf(server, "%s\n", bitString(epirb.EncodeLong(epirb.FrameSpec{ID: 0x1234, Emergency: beacon.Sinking})))
		fmt.Fprintf(server, "not a burst\n")
		fmt.Fprintf(server, "%s", hexString(epirb.EncodeLong(epirb.FrameSpec{ID: 0x5678})))
	}()

	out := make(chan beacon.Record, 4)
	c.Start(out)

	var ids []uint64
	for rec := range out {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []uint64{0x1234, 0x5678}, ids)
}

func TestHelloAnnouncesStation(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	c := NewClient(client, epirb.NewReceiver())
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		done <- c.hello(config.StationConfig{Name: "dock", GridSquare: "JO22"})
	}()

	buf := make([]byte, 128)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "# BeaconMap 0.1 station dock grid JO22\r\n", string(buf[:n]))
	assert.NoError(t, <-done)
}
