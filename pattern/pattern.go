// Package pattern is the cycle-time pattern algebra.
//
// A Pattern is a pure function from a queried TimeSpan to the Events that
// fall inside it. Patterns are immutable: every combinator wraps its inputs
// in a new Pattern and never touches them again, so one Pattern value can be
// queried from any goroutine without locking.
//
// Query splits spans at cycle boundaries before a query function built
// with New sees them, so those can assume they are asked about at most one
// cycle at a time. Time transforms and value wrappers are built with
// newSpanning instead: they hand the whole span to the patterns they wrap,
// which split it again in their own frame. That keeps an event whole when a
// transform stretches it across a cycle boundary.
package pattern

import (
	"sort"

	"github.com/maroda/madrigal/cycle"
)

// QueryFunc answers one query for a span inside a single cycle.
type QueryFunc[T any] func(span cycle.TimeSpan) []Event[T]

// Pattern is a pure, immutable event generator.
// The zero value is silence.
type Pattern[T any] struct {
	query    QueryFunc[T]
	spanning bool // query takes spans crossing cycle boundaries
}

// New wraps a query function.
func New[T any](q QueryFunc[T]) Pattern[T] {
	return Pattern[T]{query: q}
}

// newSpanning wraps a query function that accepts any span.
func newSpanning[T any](q QueryFunc[T]) Pattern[T] {
	return Pattern[T]{query: q, spanning: true}
}

// Query returns the events visible in span, ordered by part begin.
// Zero-width and inverted spans return nothing.
func (p Pattern[T]) Query(span cycle.TimeSpan) []Event[T] {
	if p.query == nil || span.IsEmpty() {
		return nil
	}

	var out []Event[T]
	if p.spanning {
		out = p.query(span)
	} else {
		for _, s := range span.CycleSpans() {
			out = append(out, p.query(s)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Part.Begin.Lt(out[j].Part.Begin)
	})
	return out
}

// QueryCycles is shorthand for querying [from, to).
func (p Pattern[T]) QueryCycles(from, to int64) []Event[T] {
	return p.Query(cycle.Span(cycle.Int(from), cycle.Int(to)))
}

// Onsets drops fragments that do not contain the start of their event.
func (p Pattern[T]) Onsets(span cycle.TimeSpan) []Event[T] {
	var out []Event[T]
	for _, e := range p.Query(span) {
		if e.HasOnset() {
			out = append(out, e)
		}
	}
	return out
}

// Silence never produces an event.
func Silence[T any]() Pattern[T] {
	return Pattern[T]{}
}

// Pure repeats v once per cycle.
func Pure[T any](v T) Pattern[T] {
	return New(func(span cycle.TimeSpan) []Event[T] {
		whole := span.CycleOf()
		return []Event[T]{{Whole: &whole, Part: span, Value: v}}
	})
}

// Fmap maps every value through f, timing untouched.
func Fmap[T, U any](p Pattern[T], f func(T) U) Pattern[U] {
	return newSpanning(func(span cycle.TimeSpan) []Event[U] {
		evs := p.Query(span)
		out := make([]Event[U], len(evs))
		for i, e := range evs {
			out[i] = Event[U]{Whole: e.Whole, Part: e.Part, Value: f(e.Value)}
		}
		return out
	})
}

// FilterEvents keeps events for which keep returns true.
func (p Pattern[T]) FilterEvents(keep func(Event[T]) bool) Pattern[T] {
	return newSpanning(func(span cycle.TimeSpan) []Event[T] {
		var out []Event[T]
		for _, e := range p.Query(span) {
			if keep(e) {
				out = append(out, e)
			}
		}
		return out
	})
}

// FilterValues keeps events whose value passes keep.
func (p Pattern[T]) FilterValues(keep func(T) bool) Pattern[T] {
	return p.FilterEvents(func(e Event[T]) bool { return keep(e.Value) })
}

// OnsetsOnly drops fragments without an onset, and continuous events.
func (p Pattern[T]) OnsetsOnly() Pattern[T] {
	return p.FilterEvents(Event[T].HasOnset)
}

// WithTime transforms the queried span with queryXform before delegating,
// and every returned event span with eventXform.
func (p Pattern[T]) WithTime(queryXform, eventXform func(cycle.Fraction) cycle.Fraction) Pattern[T] {
	return newSpanning(func(span cycle.TimeSpan) []Event[T] {
		evs := p.Query(span.WithTime(queryXform))
		for i := range evs {
			evs[i] = evs[i].withSpan(func(s cycle.TimeSpan) cycle.TimeSpan {
				return s.WithTime(eventXform)
			})
		}
		return evs
	})
}

// FastE compresses n cycles into one. Negative n also reverses.
func (p Pattern[T]) FastE(n cycle.Fraction) (Pattern[T], error) {
	if n.IsZero() {
		return Pattern[T]{}, &cycle.ArithmeticError{Op: "division by zero", Operand: "fast(0)"}
	}
	if n.Sign() < 0 {
		q, err := p.FastE(n.Neg())
		if err != nil {
			return Pattern[T]{}, err
		}
		return q.Rev(), nil
	}
	inv := cycle.One.MustDiv(n)
	return p.WithTime(
		func(t cycle.Fraction) cycle.Fraction { return t.Mul(n) },
		func(t cycle.Fraction) cycle.Fraction { return t.Mul(inv) },
	), nil
}

// SlowE stretches one cycle over n.
func (p Pattern[T]) SlowE(n cycle.Fraction) (Pattern[T], error) {
	if n.IsZero() {
		return Pattern[T]{}, &cycle.ArithmeticError{Op: "division by zero", Operand: "slow(0)"}
	}
	return p.FastE(cycle.One.MustDiv(n))
}

// Fast is FastE for factors known to be non-zero.
// Fast(0) panics with *cycle.ArithmeticError.
func (p Pattern[T]) Fast(n cycle.Fraction) Pattern[T] {
	q, err := p.FastE(n)
	if err != nil {
		panic(err)
	}
	return q
}

// Slow is SlowE for factors known to be non-zero.
// Slow(0) panics with *cycle.ArithmeticError.
func (p Pattern[T]) Slow(n cycle.Fraction) Pattern[T] {
	q, err := p.SlowE(n)
	if err != nil {
		panic(err)
	}
	return q
}

// Early shifts the pattern back in time by t cycles.
func (p Pattern[T]) Early(t cycle.Fraction) Pattern[T] {
	return p.WithTime(
		func(x cycle.Fraction) cycle.Fraction { return x.Add(t) },
		func(x cycle.Fraction) cycle.Fraction { return x.Sub(t) },
	)
}

// Late shifts the pattern forward in time by t cycles.
func (p Pattern[T]) Late(t cycle.Fraction) Pattern[T] {
	return p.Early(t.Neg())
}

// Rev reverses every cycle: t' = cycleStart + (cycleEnd - t).
func (p Pattern[T]) Rev() Pattern[T] {
	return New(func(span cycle.TimeSpan) []Event[T] {
		sam := span.Begin.Sam()
		next := span.Begin.NextSam()
		reflect := func(s cycle.TimeSpan) cycle.TimeSpan {
			return cycle.Span(sam.Add(next.Sub(s.End)), sam.Add(next.Sub(s.Begin)))
		}

		evs := p.Query(reflect(span))
		for i := range evs {
			evs[i] = evs[i].withSpan(reflect)
		}
		return evs
	})
}

// Apply runs each transformation in order, left to right.
func (p Pattern[T]) Apply(fs ...func(Pattern[T]) Pattern[T]) Pattern[T] {
	for _, f := range fs {
		p = f(p)
	}
	return p
}

// Rev, Fast and Slow as standalone transformations, for Every, Sometimes and Jux.
func Rev[T any](p Pattern[T]) Pattern[T] { return p.Rev() }

func Fast[T any](n cycle.Fraction) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Fast(n) }
}

func Slow[T any](n cycle.Fraction) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Slow(n) }
}

func Early[T any](t cycle.Fraction) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Early(t) }
}

func Late[T any](t cycle.Fraction) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Late(t) }
}

// appLeft keeps the structure of left and samples right across each left
// event, combining the two values with f.
func appLeft[A, B, C any](left Pattern[A], right Pattern[B], f func(A, B) C) Pattern[C] {
	return newSpanning(func(span cycle.TimeSpan) []Event[C] {
		var out []Event[C]
		for _, l := range left.Query(span) {
			for _, r := range right.Query(l.WholeOrPart()) {
				part, ok := l.Part.Intersection(r.Part)
				if !ok {
					continue
				}
				ev := Event[C]{Part: part, Value: f(l.Value, r.Value)}
				if l.Whole != nil {
					ev.Whole = spanPtr(*l.Whole)
				}
				out = append(out, ev)
			}
		}
		return out
	})
}

// Struct re-times p onto the true events of bools: the rhythm comes
// from bools, the values from p.
func (p Pattern[T]) Struct(bools Pattern[bool]) Pattern[T] {
	on := bools.FilterValues(func(b bool) bool { return b })
	return appLeft(on, p, func(_ bool, v T) T { return v })
}

// Mask keeps p's own rhythm, silencing it wherever bools is false or silent.
func (p Pattern[T]) Mask(bools Pattern[bool]) Pattern[T] {
	return newSpanning(func(span cycle.TimeSpan) []Event[T] {
		var out []Event[T]
		for _, l := range p.Query(span) {
			for _, r := range bools.Query(l.WholeOrPart()) {
				if !r.Value {
					continue
				}
				part, ok := l.Part.Intersection(r.Part)
				if !ok {
					continue
				}
				ev := Event[T]{Part: part, Value: l.Value}
				if l.Whole != nil {
					ev.Whole = spanPtr(*l.Whole)
				}
				out = append(out, ev)
			}
		}
		return out
	})
}

// Segment samples p n times per cycle, turning signals into discrete steps.
func (p Pattern[T]) Segment(n int) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	grid := Pure(struct{}{}).Fast(cycle.Int(int64(n)))
	return appLeft(grid, p, func(_ struct{}, v T) T { return v })
}
