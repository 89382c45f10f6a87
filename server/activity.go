package madrigal

import (
	"sort"
	"sync"
	"time"

	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

const (
	DefaultActivityWindow = 60
	unnamedSound          = "note"
)

// Timeseries is a rolling window of runes, one per step
type Timeseries struct {
	Runes   []rune
	MaxSize int
	Current int
}

// Activity is an output that keeps a rolling timeline per sound.
// Each step sums the MIDI velocity of the triggers it saw and
// turns that into a bar rune; a silent step is blank.
//
// Step is called from outside (the display does it once per refresh),
// Activity itself never looks at the clock.
type Activity struct {
	MU     sync.RWMutex
	Window int
	Layer  map[string]*Timeseries // rolling timeline by sound name
	Level  map[string]int64       // summed velocity in the current step
	Total  map[string]int64       // triggers per sound since creation
}

func NewActivity(window int) *Activity {
	if window < 1 {
		window = DefaultActivityWindow
	}
	return &Activity{
		Window: window,
		Layer:  make(map[string]*Timeseries),
		Level:  make(map[string]int64),
		Total:  make(map[string]int64),
	}
}

func soundName(trig *Mt.Trigger) string {
	if s, ok := trig.Payload["s"].(string); ok && s != "" {
		return s
	}
	return unnamedSound
}

func (a *Activity) WriteTrigger(trig *Mt.Trigger) error {
	name := soundName(trig)

	a.MU.Lock()
	defer a.MU.Unlock()

	if _, ok := a.Layer[name]; !ok {
		a.Layer[name] = &Timeseries{
			Runes:   make([]rune, a.Window),
			MaxSize: a.Window,
		}
	}
	a.Level[name] += int64(Mp.MIDIVelocity(trig.Payload))
	a.Total[name]++
	return nil
}

func (a *Activity) WriteBatch(trigs []*Mt.Trigger) error {
	for _, t := range trigs {
		a.WriteTrigger(t)
	}
	return nil
}

func (a *Activity) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	return nil, Mp.ErrNotQueryable
}

func (a *Activity) Flush() error { return nil }
func (a *Activity) Close() error { return nil }
func (a *Activity) Type() string { return "Activity" }

// Step closes the current step on every layer
func (a *Activity) Step() {
	a.MU.Lock()
	defer a.MU.Unlock()

	for name, layer := range a.Layer {
		// This is the index of the rune, and also the current step
		layer.Current = (layer.Current + 1) % layer.MaxSize

		// translate this val into a rune for display
		level := a.Level[name]
		layer.Runes[layer.Current] = ValToRuneWithCheck(level, level > 0)
		a.Level[name] = 0
	}
}

// Names lists the sounds seen so far, sorted
func (a *Activity) Names() []string {
	a.MU.RLock()
	defer a.MU.RUnlock()
	names := make([]string, 0, len(a.Layer))
	for n := range a.Layer {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetDisplay provides the string of runes for drawing using the sound name
func (a *Activity) GetDisplay(name string) []rune {
	a.MU.RLock()
	defer a.MU.RUnlock()

	layer, ok := a.Layer[name]
	if !ok {
		return nil
	}
	display := make([]rune, layer.MaxSize)
	for i := 0; i < layer.MaxSize; i++ {
		// Start from oldest and go to newest (left to right)
		idx := (layer.Current + 1 + i) % layer.MaxSize
		display[i] = layer.Runes[idx]
	}
	return display
}

// Count is how many triggers for this sound have passed
func (a *Activity) Count(name string) int64 {
	a.MU.RLock()
	defer a.MU.RUnlock()
	return a.Total[name]
}

func ValToRuneWithCheck(val int64, sounded bool) rune {
	if !sounded {
		return ' '
	}
	return ValToRune(val)
}

func ValToRune(val int64) rune {
	switch {
	case val < 10:
		return '▁'
	case val < 20:
		return '▂'
	case val < 30:
		return '▃'
	case val < 50:
		return '▄'
	case val < 80:
		return '▅'
	case val < 120:
		return '▆'
	case val < 210:
		return '▇'
	default:
		return '█'
	}
}
