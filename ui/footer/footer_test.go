package footer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	m := New("maps/world.shp")
	assert.Contains(t, m.Text(), "Map: world.shp  Zoom: 1.0x  Last: -  Log: off")

	m.SetZoom(2.5)
	m.SetLastBeacon("89ABCD EPIRB")
	m.SetLogging(true)
	assert.Contains(t, m.Text(), "Zoom: 2.5x  Last: 89ABCD EPIRB  Log: on")
	assert.Contains(t, m.Text(), "q quit")
}

func TestNoMap(t *testing.T) {
	assert.Contains(t, New("").Text(), "Map: none")
}
