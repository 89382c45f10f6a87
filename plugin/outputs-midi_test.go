//go:build !nomidi

package plugin_test

import (
	"testing"
	"time"

	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

func TestMIDIOutput_WriteTrigger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live MIDI test in short mode")
	}

	adapter, err := Mp.NewMIDIOutput(0, 0)
	if err != nil {
		t.Skipf("no MIDI port available: %v", err)
	}
	defer adapter.Close()

	t.Run("Plays one simple note from a trigger", func(t *testing.T) {
		trig := &Mt.Trigger{
			Onset:    time.Now(),
			Duration: 200 * time.Millisecond,
			Payload:  map[string]any{"note": 60.0, "gain": 0.8},
		}
		assertError(t, adapter.WriteTrigger(trig), nil)
	})

	t.Run("Does not keep history", func(t *testing.T) {
		_, err := adapter.QueryRange(time.Now().Add(-time.Minute), time.Now())
		assertError(t, err, Mp.ErrNotQueryable)
	})

	t.Run("Names its port", func(t *testing.T) {
		assertStringContains(t, adapter.String(), "MIDI")
		assertString(t, adapter.Type(), "MIDI")
	})
}
