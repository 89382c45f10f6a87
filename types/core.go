package types

/*

	These are the "immutable" core types of Madrigal,
	provided for cross-package use (e.g. Plugins) and testing.

	The only methods defined here are for formatting.
	Pattern helpers for Controls live in /pattern/,
	constructors for Trigger live in /server/.

*/

import (
	"fmt"
	"time"
)

// Controls is the parameter record carried by a sounding event.
// Every field is optional, nil means "not set on this event".
// Controls values are never modified once they are inside a Pattern,
// setters always build a new record.
type Controls struct {
	S             *string  // sample or synth name
	N             *float64 // sample index or scale degree
	Note          *float64 // MIDI note number (c4 = 60)
	Gain          *float64 // linear gain, 1 is unity
	Velocity      *float64 // 0.0-1.0, multiplied into gain
	Pan           *float64 // 0 left, 0.5 centre, 1 right
	Speed         *float64 // playback rate, negative plays backwards
	Cutoff        *float64 // low pass filter frequency (lpf)
	Resonance     *float64 // low pass filter q (lpq)
	Room          *float64 // reverb send
	Size          *float64 // reverb room size
	Delay         *float64 // delay send
	DelayTime     *float64 // delay time in cycles
	DelayFeedback *float64 // delay feedback
	Shape         *float64 // waveshaping distortion amount
}

// Trigger is one dispatched event handed to an output.
// Onset is the wall clock instant it should sound,
// Offset is how far ahead of dispatch that was.
type Trigger struct {
	SessionID string         `json:"session"`           // scheduler session, new on every Start
	Epoch     uint64         `json:"epoch"`             // transport epoch at scheduling time
	Cycle     string         `json:"cycle"`             // exact onset position in cycles, e.g. "17/4"
	Onset     time.Time      `json:"onset"`             // wall clock onset
	Offset    time.Duration  `json:"offset"`            // onset minus scheduling time, zero when late
	Duration  time.Duration  `json:"duration"`          // length of the event's whole
	Late      bool           `json:"late,omitempty"`    // scheduled after its onset had passed
	Payload   map[string]any `json:"payload,omitempty"` // parameter name to value
}

// TransportState is the scheduler state machine position.
type TransportState int

const (
	Stopped TransportState = iota // no session, no anchor
	Running                       // ticking and dispatching
	Paused                        // anchor released, cycle position kept
)

var stateNames = [...]string{"stopped", "running", "paused"}

func (s TransportState) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s TransportState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TransportState) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = TransportState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown transport state %q", b)
}

// Transport is a point-in-time view of the scheduler.
type Transport struct {
	State     TransportState `json:"state"`
	SessionID string         `json:"session,omitempty"`
	Epoch     uint64         `json:"epoch"`
	CPS       string         `json:"cps"`     // cycles per second, exact
	Cycle     string         `json:"cycle"`   // current cycle position, exact
	Pending   int            `json:"pending"` // triggers scheduled but not yet fired
}
