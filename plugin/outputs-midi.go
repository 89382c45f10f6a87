//go:build !nomidi

package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Mt "github.com/maroda/madrigal/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type MIDIOutput struct {
	Port    drivers.Out
	Channel uint8
	Send    func(msg midi.Message) error
	WG      sync.WaitGroup
}

func NewMIDIOutput(port int, channel uint8) (*MIDIOutput, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %w", err)
	}

	return &MIDIOutput{
		Port:    out,
		Channel: channel & 0x0f,
		Send:    send,
	}, nil
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// WriteTrigger plays the trigger's note for the trigger's duration.
// It is called at the onset, so the note starts right away
// and a goroutine holds it until the note off.
func (mo *MIDIOutput) WriteTrigger(trig *Mt.Trigger) error {
	note := MIDINote(trig.Payload)
	velocity := MIDIVelocity(trig.Payload)
	channel := mo.Channel

	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		if err := mo.SendNoteOnMIDI(channel, note, velocity); err != nil {
			slog.Error("NoteOn event failed", slog.Any("error", err))
			return
		}
		time.Sleep(noteLength(trig.Duration))
		if err := mo.SendNoteOffMIDI(channel, note); err != nil {
			slog.Error("NoteOff event failed, attempting Flush", slog.Any("error", err))
			mo.Flush()
		}
	}()

	return nil
}

func (mo *MIDIOutput) WriteBatch(trigs []*Mt.Trigger) error {
	for _, t := range trigs {
		if err := mo.WriteTrigger(t); err != nil {
			return err
		}
	}
	return nil
}

func (mo *MIDIOutput) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	return nil, ErrNotQueryable
}

func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(mo.Channel, midi.AllNotesOff, midi.Off))
}

func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }

// String names the port for status displays
func (mo *MIDIOutput) String() string {
	if mo.Port == nil {
		return "MIDI (no port)"
	}
	return fmt.Sprintf("MIDI %s ch%d", mo.Port.String(), mo.Channel+1)
}

// MIDIPorts names the MIDI out ports the driver can see, by index
func MIDIPorts() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, o := range outs {
		names = append(names, o.String())
	}
	return names
}
