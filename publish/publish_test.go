package publish

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconmap/beacon"
	"beaconmap/config"
)

func sampleRecord() beacon.Record {
	return beacon.Record{
		ID:          0xABCDEF,
		Type:        beacon.EmergencyLocatorTransmitter,
		Emergency:   beacon.Fire,
		CountryCode: 366,
		Format:      beacon.FormatLong,
		Mode:        beacon.ModeTest,
		Position:    &beacon.Position{Lat: 1.5, Lon: 2.5},
		Long: &beacon.LongFrame{
			Position:      beacon.Position{Lat: 1.25, Lon: 2.75},
			Supplementary: [4]byte{0xDE, 0xAD, 0xBE, 0xEF},
		},
		Status:    beacon.StatusValid,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(sampleRecord(), "dock")
	assert.Equal(t, "000000000ABCDEF", p.ID)
	assert.Equal(t, "ELT", p.Type)
	assert.Equal(t, "TEST", p.Mode)
	assert.Equal(t, "dock", p.Station)
	require.NotNil(t, p.Lat)
	assert.Equal(t, 1.5, *p.Lat)
	require.NotNil(t, p.Long)
	assert.Equal(t, "deadbeef", p.Long.Supplementary)
	assert.Equal(t, "2026-01-02T03:04:05Z", p.Timestamp)
	assert.Len(t, p.MessageID, 36)
	assert.NotEqual(t, p.MessageID, NewPayload(sampleRecord(), "dock").MessageID)
}

func TestPayloadOmitsMissingPosition(t *testing.T) {
	rec := sampleRecord()
	rec.Position, rec.Long = nil, nil
	data, err := json.Marshal(NewPayload(rec, ""))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"lat"`)
	assert.NotContains(t, string(data), `"long"`)
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeClient struct {
	sent []published
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) {}

func TestMQTTPublish(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(fc, config.MQTTConfig{Topic: "sar/beacons/", QoS: 1, Retain: true}, "dock")

	require.NoError(t, p.Publish(sampleRecord()))
	require.Len(t, fc.sent, 1)
	assert.Equal(t, "sar/beacons/000000000ABCDEF", fc.sent[0].topic)
	assert.Equal(t, byte(1), fc.sent[0].qos)
	assert.True(t, fc.sent[0].retain)

	var got Payload
	require.NoError(t, json.Unmarshal(fc.sent[0].payload, &got))
	assert.Equal(t, "000000000ABCDEF", got.ID)
	assert.Equal(t, "dock", got.Station)
}

func TestMQTTPublishError(t *testing.T) {
	fc := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(fc, config.MQTTConfig{Topic: "x"}, "")
	assert.ErrorContains(t, p.Publish(sampleRecord()), "not connected")
}

func TestLiveFeedBroadcast(t *testing.T) {
	feed := NewLiveFeed("dock")
	srv := httptest.NewServer(feed)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feed.Clients() == 1 }, time.Second, 10*time.Millisecond)
	feed.Broadcast(sampleRecord())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Payload
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "000000000ABCDEF", got.ID)
	assert.Equal(t, 1.25, got.Long.Lat)

	conn.Close()
	assert.Eventually(t, func() bool { return feed.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
