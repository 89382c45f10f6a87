package pattern

import (
	"math"

	"github.com/maroda/madrigal/cycle"
)

// Signal is a continuous pattern: one event per query with no whole,
// valued f at the midpoint of the queried span.
func Signal[T any](f func(t cycle.Fraction) T) Pattern[T] {
	return New(func(span cycle.TimeSpan) []Event[T] {
		return []Event[T]{{Part: span, Value: f(span.Midpoint())}}
	})
}

// Sine goes 0.5 → 1 → 0 → 0.5 over each cycle.
func Sine() Pattern[float64] {
	return Signal(func(t cycle.Fraction) float64 {
		return (math.Sin(2*math.Pi*t.Float64()) + 1) / 2
	})
}

// Cosine is Sine a quarter cycle early.
func Cosine() Pattern[float64] {
	return Sine().Early(cycle.New(1, 4))
}

// Saw rises from 0 to 1 over each cycle.
func Saw() Pattern[float64] {
	return Signal(func(t cycle.Fraction) float64 { return t.CyclePos().Float64() })
}

// ISaw falls from 1 to 0 over each cycle.
func ISaw() Pattern[float64] {
	return Signal(func(t cycle.Fraction) float64 { return 1 - t.CyclePos().Float64() })
}

// Square is 0 for the first half of each cycle and 1 for the second.
func Square() Pattern[float64] {
	half := cycle.New(1, 2)
	return Signal(func(t cycle.Fraction) float64 {
		if t.CyclePos().Lt(half) {
			return 0
		}
		return 1
	})
}

// Tri rises to 1 at half cycle and falls back to 0.
func Tri() Pattern[float64] {
	return Signal(func(t cycle.Fraction) float64 {
		x := t.CyclePos().Float64()
		if x < 0.5 {
			return 2 * x
		}
		return 2 - 2*x
	})
}

// Range scales a unipolar pattern from [0, 1] onto [lo, hi].
func Range(p Pattern[float64], lo, hi float64) Pattern[float64] {
	return Fmap(p, func(v float64) float64 { return v*(hi-lo) + lo })
}

// RangeTo is Range as a standalone transformation.
func RangeTo(lo, hi float64) func(Pattern[float64]) Pattern[float64] {
	return func(p Pattern[float64]) Pattern[float64] { return Range(p, lo, hi) }
}
