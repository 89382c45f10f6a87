//go:build nomidi

package plugin

import (
	"fmt"
	"time"

	Mt "github.com/maroda/madrigal/types"
)

type MIDIOutput struct {
	Channel uint8
}

func NewMIDIOutput(port int, channel uint8) (*MIDIOutput, error) {
	return nil, fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) WriteTrigger(trig *Mt.Trigger) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) WriteBatch(trigs []*Mt.Trigger) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	return nil, fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) Flush() error   { return nil }
func (m *MIDIOutput) Close() error   { return nil }
func (m *MIDIOutput) Type() string   { return "midi-disabled" }
func (m *MIDIOutput) String() string { return "MIDI (disabled)" }

func MIDIPorts() []string { return nil }
