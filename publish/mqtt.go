package publish

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"beaconmap/beacon"
	"beaconmap/config"
)

const publishTimeout = 5 * time.Second

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher sends every record to <topic>/<HEXID>.
type MQTTPublisher struct {
	client  client
	config  config.MQTTConfig
	station string
}

func generateClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "beaconmap_" + hex.EncodeToString(b)
}

// NewMQTTPublisher connects to the broker. The client reconnects on its
// own after the first successful connection.
func NewMQTTPublisher(conf config.MQTTConfig, station string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Broker)
	opts.SetClientID(generateClientID())

	if conf.Username != "" {
		opts.SetUsername(conf.Username)
	}
	if conf.Password != "" {
		opts.SetPassword(conf.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("MQTT: Connected to broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Println("MQTT: Attempting to reconnect...")
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.WaitTimeout(15*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Printf("MQTT: Publishing to %s on %s", conf.Topic, conf.Broker)
	return newPublisher(c, conf, station), nil
}

func newPublisher(c client, conf config.MQTTConfig, station string) *MQTTPublisher {
	return &MQTTPublisher{client: c, config: conf, station: station}
}

// Topic returns the topic a record is published on.
func (p *MQTTPublisher) Topic(rec beacon.Record) string {
	return strings.TrimSuffix(p.config.Topic, "/") + "/" + rec.HexID()
}

// Publish sends one record and waits for the broker to take it.
func (p *MQTTPublisher) Publish(rec beacon.Record) error {
	data, err := json.Marshal(NewPayload(rec, p.station))
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	token := p.client.Publish(p.Topic(rec), p.config.QoS, p.config.Retain, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s timed out", rec.HexID())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", rec.HexID(), err)
	}
	return nil
}

// Consume publishes records from in until it closes or ctx is done.
func (p *MQTTPublisher) Consume(ctx context.Context, in <-chan beacon.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-in:
			if !ok {
				return
			}
			if err := p.Publish(rec); err != nil {
				log.Printf("MQTT: %v", err)
			}
		}
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
	log.Println("MQTT: Disconnected")
}
