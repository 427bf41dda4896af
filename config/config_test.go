package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())
	assert.Equal(t, 30, c.Decoder.PairTimeout)
	assert.Equal(t, uint8(0x80), c.Interface.Threshold)
	assert.Equal(t, time.Hour, c.Tracker.TTL.Duration)
	assert.True(t, c.Decoder.KeepUncorrectable)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[station]
name = "Harbour watch"
gridsquare = "IO91wm"

[interface]
type = "kiss"
device = "/dev/ttyUSB0"
baud = 115200

[decoder]
keep_uncorrectable = false

[tracker]
ttl = "90s"
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Harbour watch", c.Station.Name)
	assert.Equal(t, "kiss", c.Interface.Type)
	assert.Equal(t, 115200, c.Interface.Baud)
	assert.Equal(t, uint8(0x80), c.Interface.Threshold)
	assert.False(t, c.Decoder.KeepUncorrectable)
	assert.Equal(t, 30, c.Decoder.PairTimeout)
	assert.Equal(t, 90*time.Second, c.Tracker.TTL.Duration)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[interface]\ntype = \"sdr\"\n"))
	assert.ErrorContains(t, err, "sdr")

	_, err = LoadConfig(writeConfig(t, "[decoder]\npair_timeout = 0\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "[tracker]\nttl = \"soon\"\n"))
	assert.Error(t, err)
}
