package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Station   StationConfig   `toml:"station"`
	Interface InterfaceConfig `toml:"interface"`
	Decoder   DecoderConfig   `toml:"decoder"`
	Map       MapConfig       `toml:"map"`
	Logbook   LogbookConfig   `toml:"logbook"`
	MQTT      MQTTConfig      `toml:"mqtt"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Tracker   TrackerConfig   `toml:"tracker"`
}

// StationConfig describes the receiving station
type StationConfig struct {
	Name       string `toml:"name"`
	GridSquare string `toml:"gridsquare"`
}

// InterfaceConfig selects where demodulated bursts come from.
// Type is one of "kiss", "bitline" or "mock". Device is a serial port
// path or a host:port address.
type InterfaceConfig struct {
	Type      string  `toml:"type"`
	Device    string  `toml:"device"`
	Baud      int     `toml:"baud"`
	Threshold uint8   `toml:"threshold"`
	Frequency float64 `toml:"frequency"` // MHz, display only
}

// DecoderConfig tunes the receiver. Uncorrectable frames are shown tagged
// ERR unless keep_uncorrectable is set to false.
type DecoderConfig struct {
	PairTimeout       int  `toml:"pair_timeout"`
	KeepUncorrectable bool `toml:"keep_uncorrectable"`
}

// MapConfig holds map-specific settings
type MapConfig struct {
	DefaultZoom float64 `toml:"defaultzoom"`
	Shapefile   string  `toml:"shapefile"`
}

type LogbookConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type MQTTConfig struct {
	Enabled  bool   `toml:"enabled"`
	Broker   string `toml:"broker"` // e.g. tcp://localhost:1883
	Topic    string `toml:"topic"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	QoS      byte   `toml:"qos"`
	Retain   bool   `toml:"retain"`
}

// MetricsConfig controls the HTTP endpoint serving /metrics and, when
// LiveFeed is set, the /ws record stream.
type MetricsConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	LiveFeed bool   `toml:"live_feed"`
}

type TrackerConfig struct {
	TTL Duration `toml:"ttl"`
}

// Duration reads TOML strings such as "90s" or "2h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Frequencies are the 406 MHz channel centres in MHz.
var Frequencies = []float64{406.025, 406.028, 406.037}

// Default returns a configuration that runs without any file.
func Default() Config {
	return Config{
		Station: StationConfig{Name: "beaconmap"},
		Interface: InterfaceConfig{
			Type:      "mock",
			Device:    "localhost:8001",
			Baud:      9600,
			Threshold: 0x80,
			Frequency: Frequencies[0],
		},
		Decoder: DecoderConfig{PairTimeout: 30, KeepUncorrectable: true},
		Map:     MapConfig{DefaultZoom: 1.0, Shapefile: "ne_110m_admin_0_countries/ne_110m_admin_0_countries.shp"},
		Logbook: LogbookConfig{Path: "beacons.csv"},
		MQTT:    MQTTConfig{Broker: "tcp://localhost:1883", Topic: "beaconmap/beacons"},
		Metrics: MetricsConfig{Addr: ":9406"},
		Tracker: TrackerConfig{TTL: Duration{time.Hour}},
	}
}

// LoadConfig reads the configuration from the specified path on top of
// Default. A missing file is an error.
func LoadConfig(path string) (Config, error) {
	conf := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &conf); err != nil {
		return conf, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := conf.Validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	switch c.Interface.Type {
	case "kiss", "bitline", "mock":
	default:
		return fmt.Errorf("unknown interface type %q", c.Interface.Type)
	}
	if c.Decoder.PairTimeout <= 0 {
		return fmt.Errorf("decoder.pair_timeout must be positive, got %d", c.Decoder.PairTimeout)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}
