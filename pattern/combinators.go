package pattern

import (
	"slices"
	"strings"

	"github.com/maroda/madrigal/cycle"
)

// Rest is the silence token used by Words and Bools.
const Rest = "~"

// Stack plays every layer at the same time. A layer that panics while being
// queried is reported and replaced by silence for that query only.
func Stack[T any](layers ...Pattern[T]) Pattern[T] {
	layers = slices.Clone(layers)
	return newSpanning(func(span cycle.TimeSpan) []Event[T] {
		var out []Event[T]
		for i, l := range layers {
			out = append(out, queryLayer(i, l, span)...)
		}
		return out
	})
}

func queryLayer[T any](i int, p Pattern[T], span cycle.TimeSpan) (evs []Event[T]) {
	defer func() {
		if r := recover(); r != nil {
			reportLayerError(&LayerError{Layer: i, Span: span, Cause: recovered(r)})
			evs = nil
		}
	}()
	return p.Query(span)
}

// Sequence divides each cycle into len(steps) equal slots, item i playing a
// whole cycle of itself squeezed into slot i.
func Sequence[T any](steps ...Pattern[T]) Pattern[T] {
	switch len(steps) {
	case 0:
		return Silence[T]()
	case 1:
		return steps[0]
	}

	steps = slices.Clone(steps)
	n := int64(len(steps))
	nf := cycle.Int(n)

	return New(func(span cycle.TimeSpan) []Event[T] {
		sam := span.Begin.Sam()
		var out []Event[T]

		for i, item := range steps {
			offset := sam.Add(cycle.New(int64(i), n))
			slot := cycle.Span(offset, sam.Add(cycle.New(int64(i+1), n)))
			sub, ok := slot.Intersection(span)
			if !ok || sub.IsEmpty() {
				continue
			}

			toItem := func(t cycle.Fraction) cycle.Fraction { return sam.Add(t.Sub(offset).Mul(nf)) }
			fromItem := func(t cycle.Fraction) cycle.Fraction { return offset.Add(t.Sub(sam).MustDiv(nf)) }

			for _, e := range item.Query(sub.WithTime(toItem)) {
				out = append(out, e.withSpan(func(s cycle.TimeSpan) cycle.TimeSpan {
					return s.WithTime(fromItem)
				}))
			}
		}
		return out
	})
}

// Seq is a Sequence of literal values.
func Seq[T any](values ...T) Pattern[T] {
	steps := make([]Pattern[T], len(values))
	for i, v := range values {
		steps[i] = Pure(v)
	}
	return Sequence(steps...)
}

// Words is a Sequence of space separated names, "~" is a rest.
// Only flat steps are understood, nesting is built with Sequence.
func Words(s string) Pattern[string] {
	fields := strings.Fields(s)
	steps := make([]Pattern[string], len(fields))
	for i, f := range fields {
		if f == Rest {
			steps[i] = Silence[string]()
			continue
		}
		steps[i] = Pure(f)
	}
	return Sequence(steps...)
}

// Bools reads a rhythm such as "x ~ x x" or "1 0 1 1": "~" is a rest,
// "0", "f" and "false" are explicit false steps, anything else is true.
func Bools(s string) Pattern[bool] {
	fields := strings.Fields(s)
	steps := make([]Pattern[bool], len(fields))
	for i, f := range fields {
		switch f {
		case Rest:
			steps[i] = Silence[bool]()
		case "0", "f", "false":
			steps[i] = Pure(false)
		default:
			steps[i] = Pure(true)
		}
	}
	return Sequence(steps...)
}

// SlowCat plays one item per cycle, in turn. Each item advances through
// its own cycles only when it is playing.
func SlowCat[T any](items ...Pattern[T]) Pattern[T] {
	switch len(items) {
	case 0:
		return Silence[T]()
	case 1:
		return items[0]
	}

	items = slices.Clone(items)
	n := cycle.Int(int64(len(items)))

	return New(func(span cycle.TimeSpan) []Event[T] {
		sam := span.Begin.Sam()
		idx, _ := sam.Mod(n)
		item := items[idx.Int64()]

		// item sees cycle floor(sam / n)
		shift := sam.Sub(sam.MustDiv(n).Floor())
		evs := item.Query(span.WithTime(func(t cycle.Fraction) cycle.Fraction { return t.Sub(shift) }))
		for i := range evs {
			evs[i] = evs[i].withSpan(func(s cycle.TimeSpan) cycle.TimeSpan {
				return s.WithTime(func(t cycle.Fraction) cycle.Fraction { return t.Add(shift) })
			})
		}
		return evs
	})
}

// Alternate is SlowCat over literal values, "<a b c>".
func Alternate[T any](values ...T) Pattern[T] {
	items := make([]Pattern[T], len(values))
	for i, v := range values {
		items[i] = Pure(v)
	}
	return SlowCat(items...)
}

// Polymeter layers step lists of different lengths at the step rate of the
// first layer. Every layer plays step (i mod its own length) at shared step
// i, so a 3 step and a 4 step layer drift against each other.
func Polymeter[T any](layers ...[]Pattern[T]) Pattern[T] {
	var kept [][]Pattern[T]
	for _, l := range layers {
		if len(l) > 0 {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return Silence[T]()
	}

	steps := int64(len(kept[0]))
	out := make([]Pattern[T], len(kept))
	for i, l := range kept {
		out[i] = Sequence(l...).Fast(cycle.New(steps, int64(len(l))))
	}
	return Stack(out...)
}

// Every applies f on cycles where cycle mod n == 0, counted from the
// queried span, so cycle 0 is always transformed.
// n < 1 leaves the pattern untouched.
func (p Pattern[T]) Every(n int, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	if n < 1 {
		return p
	}
	transformed := f(p)
	nf := cycle.Int(int64(n))

	return New(func(span cycle.TimeSpan) []Event[T] {
		pos, _ := span.Begin.Sam().Mod(nf)
		if pos.IsZero() {
			return transformed.Query(span)
		}
		return p.Query(span)
	})
}

// Every as a standalone transformation.
func Every[T any](n int, f func(Pattern[T]) Pattern[T]) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Every(n, f) }
}
