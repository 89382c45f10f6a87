package plugin

/*
	MIDINote

	Resolves the MIDI key and velocity a trigger plays at,
	and stamps them into the payload as "midinote" and "midivel"
	so every output (and the journal) agrees on them.
*/

import (
	"math"
	"time"

	Mt "github.com/maroda/madrigal/types"
)

const (
	defaultNote     = 36 // c2, where a sound with no pitch lands
	defaultVelocity = 100
	shortestNote    = 10 * time.Millisecond
)

// DrumKeys puts common drum machine sample names on the
// General MIDI percussion map, used when a trigger carries no pitch.
var DrumKeys = map[string]uint8{
	"bd": 36, "kick": 36,
	"rim": 37, "rm": 37,
	"sd": 38, "snare": 38,
	"cp": 39, "clap": 39,
	"lt": 41,
	"hh": 42, "ch": 42,
	"mt": 45,
	"oh": 46,
	"ht": 48,
	"cr": 49, "crash": 49,
	"rd": 51, "ride": 51,
	"cb": 56,
}

type MIDINotePlugin struct{}

func (p *MIDINotePlugin) Transform(trig *Mt.Trigger) error {
	if trig.Payload == nil {
		trig.Payload = make(map[string]any)
	}
	trig.Payload["midinote"] = float64(MIDINote(trig.Payload))
	trig.Payload["midivel"] = float64(MIDIVelocity(trig.Payload))
	return nil
}

func (p *MIDINotePlugin) Type() string { return "midi_note" }

// MIDINote picks the key: an explicit midinote, then note,
// then the drum map for the sound (n is a sample index there),
// then n, then the default.
func MIDINote(payload map[string]any) uint8 {
	for _, k := range []string{"midinote", "note"} {
		if v, ok := payload[k].(float64); ok {
			return clampMIDI(math.Round(v), 0)
		}
	}
	if s, ok := payload["s"].(string); ok {
		if key, ok := DrumKeys[s]; ok {
			return key
		}
	}
	if v, ok := payload["n"].(float64); ok {
		return clampMIDI(math.Round(v), 0)
	}
	return defaultNote
}

// MIDIVelocity scales 127 by gain and velocity,
// with neither set it falls back to a steady 100.
func MIDIVelocity(payload map[string]any) uint8 {
	if v, ok := payload["midivel"].(float64); ok {
		return clampMIDI(math.Round(v), 1)
	}
	gain, hasGain := payload["gain"].(float64)
	vel, hasVel := payload["velocity"].(float64)
	if !hasGain && !hasVel {
		return defaultVelocity
	}
	level := 1.0
	if hasGain {
		level *= gain
	}
	if hasVel {
		level *= vel
	}
	return clampMIDI(math.Round(level*127), 1)
}

func clampMIDI(v, lo float64) uint8 {
	if math.IsNaN(v) || v < lo {
		return uint8(lo)
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// noteLength keeps a note audible when the event has no whole
func noteLength(d time.Duration) time.Duration {
	if d < shortestNote {
		return shortestNote
	}
	return d
}
