package pattern

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/maroda/madrigal/cycle"
)

// Slider is a live value between Min and Max, moved in Step increments.
// It is the one mutable input a pattern may read: Set can be called from
// any goroutine while the scheduler queries Pattern().
type Slider struct {
	Name string
	Min  float64
	Max  float64
	Step float64
	bits atomic.Uint64
}

// NewSlider mirrors slider(default, min, max, step).
// lo and hi are swapped when given backwards, step <= 0 means continuous.
func NewSlider(name string, def, lo, hi, step float64) *Slider {
	if lo > hi {
		lo, hi = hi, lo
	}
	s := &Slider{Name: name, Min: lo, Max: hi, Step: step}
	s.Set(def)
	return s
}

// Set clamps v into range, snapping it to the step grid from Min.
// It returns the value actually stored.
func (s *Slider) Set(v float64) float64 {
	if math.IsNaN(v) {
		return s.Value()
	}
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	v = math.Max(s.Min, math.Min(s.Max, v))
	s.bits.Store(math.Float64bits(v))
	return v
}

func (s *Slider) Value() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Nudge moves the slider by n steps, or by a hundredth of its range
// when it has no step.
func (s *Slider) Nudge(n int) float64 {
	step := s.Step
	if step <= 0 {
		step = (s.Max - s.Min) / 100
	}
	return s.Set(s.Value() + float64(n)*step)
}

// Pattern is a continuous pattern of the slider's value at query time.
func (s *Slider) Pattern() Pattern[float64] {
	return Signal(func(cycle.Fraction) float64 { return s.Value() })
}

// SliderBank is a registry of named sliders shared by a sheet and the
// controls that move it (terminal keys, HTTP).
type SliderBank struct {
	mu      sync.RWMutex
	sliders map[string]*Slider
}

func NewSliderBank() *SliderBank {
	return &SliderBank{sliders: make(map[string]*Slider)}
}

// Slider registers a new slider, or returns the existing one of that name
// so a sheet can be rebuilt without losing live positions.
func (b *SliderBank) Slider(name string, def, lo, hi, step float64) *Slider {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sliders[name]; ok {
		return s
	}
	s := NewSlider(name, def, lo, hi, step)
	b.sliders[name] = s
	return s
}

func (b *SliderBank) Get(name string) (*Slider, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.sliders[name]
	if !ok {
		return nil, &UnknownReferenceError{Kind: "slider", Name: name}
	}
	return s, nil
}

// Set moves a named slider, returning the stored value.
func (b *SliderBank) Set(name string, v float64) (float64, error) {
	s, err := b.Get(name)
	if err != nil {
		return 0, err
	}
	return s.Set(v), nil
}

// Names lists registered sliders in sorted order.
func (b *SliderBank) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.sliders))
	for n := range b.sliders {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Values is a snapshot of every slider position.
func (b *SliderBank) Values() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]float64, len(b.sliders))
	for n, s := range b.sliders {
		out[n] = s.Value()
	}
	return out
}
