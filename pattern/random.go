package pattern

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/maroda/madrigal/cycle"
)

// DefaultSeed is the seed used when none is given.
// Changing it changes every random choice, so sheets pin it.
const DefaultSeed uint64 = 0

// randAt is a value in [0, 1) that depends only on seed and the exact time t.
func randAt(seed uint64, t cycle.Fraction) float64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)

	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(t.String())

	// top 53 bits fill a float64 mantissa exactly
	return float64(d.Sum64()>>11) * (1.0 / (1 << 53))
}

// SometimesBySeed applies f to the events whose random value for
// (seed, onset) is below prob. The rest pass through untouched.
func (p Pattern[T]) SometimesBySeed(seed uint64, prob float64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	chosen := func(e Event[T]) bool { return randAt(seed, e.WholeOrPart().Begin) < prob }

	untouched := p.FilterEvents(func(e Event[T]) bool { return !chosen(e) })
	picked := p.FilterEvents(chosen)
	return Stack(untouched, f(picked))
}

// SometimesBy uses DefaultSeed.
func (p Pattern[T]) SometimesBy(prob float64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return p.SometimesBySeed(DefaultSeed, prob, f)
}

func (p Pattern[T]) Sometimes(f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return p.SometimesBy(0.5, f)
}

func (p Pattern[T]) Often(f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return p.SometimesBy(0.75, f)
}

func (p Pattern[T]) Rarely(f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return p.SometimesBy(0.25, f)
}

func (p Pattern[T]) AlmostNever(f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return p.SometimesBy(0.1, f)
}

func (p Pattern[T]) AlmostAlways(f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return p.SometimesBy(0.9, f)
}

// Sometimes as a standalone transformation.
func Sometimes[T any](f func(Pattern[T]) Pattern[T]) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Sometimes(f) }
}

// DegradeBySeed drops each event with probability prob, the "?" of a step.
func (p Pattern[T]) DegradeBySeed(seed uint64, prob float64) Pattern[T] {
	return p.FilterEvents(func(e Event[T]) bool {
		return randAt(seed, e.WholeOrPart().Begin) >= prob
	})
}

func (p Pattern[T]) DegradeBy(prob float64) Pattern[T] {
	return p.DegradeBySeed(DefaultSeed, prob)
}

// Degrade drops half of the events.
func (p Pattern[T]) Degrade() Pattern[T] {
	return p.DegradeBy(0.5)
}

// Rand is a continuous random signal in [0, 1).
func Rand() Pattern[float64] {
	return RandSeed(DefaultSeed)
}

func RandSeed(seed uint64) Pattern[float64] {
	return Signal(func(t cycle.Fraction) float64 { return randAt(seed, t) })
}

// Perlin is smooth noise in [0, 1): random values at every whole cycle,
// eased between with a smootherstep curve.
func Perlin() Pattern[float64] {
	return PerlinSeed(DefaultSeed)
}

func PerlinSeed(seed uint64) Pattern[float64] {
	return Signal(func(t cycle.Fraction) float64 {
		sam := t.Sam()
		a := randAt(seed, sam)
		b := randAt(seed, sam.Add(cycle.One))
		x := t.CyclePos().Float64()
		return a + smootherStep(x)*(b-a)
	})
}

func smootherStep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

// Chance reports the fraction of onsets in [0, cycles) that SometimesBySeed
// would pick, useful to check a seed before committing a sheet to it.
func Chance[T any](p Pattern[T], seed uint64, prob float64, cycles int64) float64 {
	evs := p.Onsets(cycle.Span(cycle.Zero, cycle.Int(cycles)))
	if len(evs) == 0 {
		return math.NaN()
	}
	picked := 0
	for _, e := range evs {
		if randAt(seed, e.Whole.Begin) < prob {
			picked++
		}
	}
	return float64(picked) / float64(len(evs))
}
