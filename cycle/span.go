package cycle

import "fmt"

// TimeSpan is the half-open interval [Begin, End) in cycles.
type TimeSpan struct {
	Begin Fraction
	End   Fraction
}

// Span builds a TimeSpan, it does not validate ordering.
func Span(begin, end Fraction) TimeSpan {
	return TimeSpan{Begin: begin, End: end}
}

// WholeCycle returns [n, n+1).
func WholeCycle(n int64) TimeSpan {
	return TimeSpan{Begin: Int(n), End: Int(n + 1)}
}

// Validate reports spans whose end precedes their begin.
func (s TimeSpan) Validate() error {
	if s.End.Lt(s.Begin) {
		return &MalformedSpanError{Begin: s.Begin, End: s.End}
	}
	return nil
}

func (s TimeSpan) Width() Fraction { return s.End.Sub(s.Begin) }

// IsEmpty is true for zero-width and inverted spans.
func (s TimeSpan) IsEmpty() bool { return !s.Begin.Lt(s.End) }

func (s TimeSpan) Midpoint() Fraction {
	return s.Begin.Add(s.Width().Mul(New(1, 2)))
}

func (s TimeSpan) Eq(o TimeSpan) bool {
	return s.Begin.Eq(o.Begin) && s.End.Eq(o.End)
}

// Contains reports whether o lies entirely within s.
func (s TimeSpan) Contains(o TimeSpan) bool {
	return s.Begin.Lte(o.Begin) && o.End.Lte(s.End)
}

// CycleSpans splits s at every integer boundary it crosses.
// A zero-width span comes back unchanged.
func (s TimeSpan) CycleSpans() []TimeSpan {
	if s.Begin.Eq(s.End) {
		return []TimeSpan{s}
	}
	var spans []TimeSpan
	begin := s.Begin
	for s.End.Gt(begin) {
		next := begin.NextSam()
		if s.End.Lte(next) {
			spans = append(spans, TimeSpan{Begin: begin, End: s.End})
			break
		}
		spans = append(spans, TimeSpan{Begin: begin, End: next})
		begin = next
	}
	return spans
}

// Subdivide cuts s into n equal spans with exact boundaries.
func (s TimeSpan) Subdivide(n int) ([]TimeSpan, error) {
	if n <= 0 {
		return nil, &ArithmeticError{Op: "subdivision into no steps", Operand: fmt.Sprintf("%d steps", n)}
	}
	step := s.Width().MustDiv(Int(int64(n)))
	spans := make([]TimeSpan, n)
	for i := 0; i < n; i++ {
		b := s.Begin.Add(step.Mul(Int(int64(i))))
		e := s.Begin.Add(step.Mul(Int(int64(i + 1))))
		spans[i] = TimeSpan{Begin: b, End: e}
	}
	// the last boundary is s.End by construction, keep it identical
	spans[n-1].End = s.End
	return spans, nil
}

// Intersection returns the overlap of s and o. Zero-width results are kept
// only when both inputs share the instant, matching how onsets are compared.
func (s TimeSpan) Intersection(o TimeSpan) (TimeSpan, bool) {
	b := Max(s.Begin, o.Begin)
	e := Min(s.End, o.End)
	if b.Gt(e) {
		return TimeSpan{}, false
	}
	if b.Eq(e) {
		// touching at the edge of a non-zero span is no overlap
		if b.Eq(s.End) && s.Begin.Lt(s.End) {
			return TimeSpan{}, false
		}
		if b.Eq(o.End) && o.Begin.Lt(o.End) {
			return TimeSpan{}, false
		}
	}
	return TimeSpan{Begin: b, End: e}, true
}

// WithTime applies f to both ends.
func (s TimeSpan) WithTime(f func(Fraction) Fraction) TimeSpan {
	return TimeSpan{Begin: f(s.Begin), End: f(s.End)}
}

// WithCycle applies f to the cycle-relative position of both ends,
// using the cycle of Begin as the origin.
func (s TimeSpan) WithCycle(f func(Fraction) Fraction) TimeSpan {
	sam := s.Begin.Sam()
	return TimeSpan{
		Begin: sam.Add(f(s.Begin.Sub(sam))),
		End:   sam.Add(f(s.End.Sub(sam))),
	}
}

// CycleOf is the cycle span that contains Begin.
func (s TimeSpan) CycleOf() TimeSpan {
	return TimeSpan{Begin: s.Begin.Sam(), End: s.Begin.NextSam()}
}

func (s TimeSpan) String() string {
	return fmt.Sprintf("[%s, %s)", s.Begin, s.End)
}
