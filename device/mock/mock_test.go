package mock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconmap/beacon"
	"beaconmap/epirb"
)

func TestScenariosDecodeToTheirInputs(t *testing.T) {
	tx := New(nil, 0, 7)
	rx := epirb.NewReceiver()

	for round := 0; round < len(fleet); round++ {
		st := fleet[round]
		for step := 0; step < int(scenarioCount); step++ {
			sc, bursts := tx.Next()
			require.Equal(t, Scenario(step), sc)

			var recs []beacon.Record
			for _, bits := range bursts {
				if rec, ok := rx.Feed(bits); ok {
					recs = append(recs, rec)
				}
			}
			require.Len(t, recs, 1, "%s from beacon %d", sc, round)
			rec := recs[0]

			assert.Equal(t, st.id, rec.ID, sc.String())
			assert.Equal(t, st.country, rec.CountryCode, sc.String())
			if sc != ShortDistress {
				require.NotNil(t, rec.Position, sc.String())
				assert.InDelta(t, st.home.Lat, rec.Position.Lat, 0.1, sc.String())
				assert.InDelta(t, st.home.Lon, rec.Position.Lon, 0.1, sc.String())
			}

			switch sc {
			case ShortDistress:
				assert.Nil(t, rec.Position)
				assert.Equal(t, beacon.FormatShort, rec.Format)
				assert.Equal(t, beacon.ModeEmergency, rec.Mode)
				assert.Equal(t, beacon.StatusValid, rec.Status)
			case LongPair:
				require.True(t, rec.HasLongFrame())
				assert.InDelta(t, st.home.Lat, rec.Long.Position.Lat, 0.1)
				assert.Equal(t, st.emergency, rec.Emergency)
			case SelfTest:
				assert.Equal(t, beacon.ModeTest, rec.Mode)
			case Noisy:
				assert.Equal(t, beacon.StatusCorrected, rec.Status)
				assert.Equal(t, uint8(1), rec.ErrorCount)
			}
		}
	}
}

func TestStartAndClose(t *testing.T) {
	tx := New(epirb.NewReceiver(), time.Millisecond, 1)
	out := make(chan beacon.Record)
	go tx.Start(out)

	select {
	case rec := <-out:
		assert.Equal(t, fleet[0].id, rec.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no record from transmitter")
	}

	tx.Close()
	tx.Close()
	for range out {
	}
}
