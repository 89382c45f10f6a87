package pattern

import (
	"fmt"

	"github.com/maroda/madrigal/cycle"
)

// Event is one value occupying a span of cycle time.
// Part is the fragment visible to the query that produced it,
// Whole is the full extent, nil for continuous signals.
type Event[T any] struct {
	Whole *cycle.TimeSpan
	Part  cycle.TimeSpan
	Value T
}

// HasOnset is true when this fragment contains the start of its whole,
// the only fragments that are sounded.
func (e Event[T]) HasOnset() bool {
	return e.Whole != nil && e.Whole.Begin.Eq(e.Part.Begin)
}

// IsContinuous is true for signal samples.
func (e Event[T]) IsContinuous() bool {
	return e.Whole == nil
}

// WholeOrPart is the span used when another pattern is sampled for this event.
func (e Event[T]) WholeOrPart() cycle.TimeSpan {
	if e.Whole != nil {
		return *e.Whole
	}
	return e.Part
}

// Duration of the whole, zero for continuous events.
func (e Event[T]) Duration() cycle.Fraction {
	if e.Whole == nil {
		return cycle.Zero
	}
	return e.Whole.Width()
}

// withSpan returns a copy with f applied to part and whole.
func (e Event[T]) withSpan(f func(cycle.TimeSpan) cycle.TimeSpan) Event[T] {
	out := Event[T]{Part: f(e.Part), Value: e.Value}
	if e.Whole != nil {
		w := f(*e.Whole)
		out.Whole = &w
	}
	return out
}

func (e Event[T]) String() string {
	if e.Whole == nil {
		return fmt.Sprintf("~%s %v", e.Part, e.Value)
	}
	if e.Whole.Eq(e.Part) {
		return fmt.Sprintf("%s %v", e.Part, e.Value)
	}
	return fmt.Sprintf("%s(%s) %v", e.Part, *e.Whole, e.Value)
}

func spanPtr(s cycle.TimeSpan) *cycle.TimeSpan {
	return &s
}
