package pattern_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroda/madrigal/cycle"
	"github.com/maroda/madrigal/pattern"
)

func TestSequence_Nested(t *testing.T) {
	p := pattern.Sequence(pattern.Pure("bd"), pattern.Words("sd sd"))
	evs := p.QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/2) bd", "[1/2, 3/4) sd", "[3/4, 1) sd"}, show(evs))
}

func TestWords_Rest(t *testing.T) {
	evs := pattern.Words("bd ~ bd sd").QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/4) bd", "[1/2, 3/4) bd", "[3/4, 1) sd"}, show(evs))
	assert.Empty(t, pattern.Words("").QueryCycles(0, 1))
	assert.Empty(t, pattern.Words("~ ~").QueryCycles(0, 1))
}

func TestSequence_TilesExactly(t *testing.T) {
	// thousands of cycles in, steps still meet without gaps
	p := pattern.Seq(0, 1, 2, 3, 4, 5, 6)
	evs := p.Query(cycle.Span(cycle.Int(5000), cycle.Int(5003)))
	require.Len(t, evs, 21)
	assert.True(t, evs[0].Part.Begin.Eq(cycle.Int(5000)))
	for i := 1; i < len(evs); i++ {
		assert.True(t, evs[i-1].Part.End.Eq(evs[i].Part.Begin), "gap at %d", i)
	}
	assert.True(t, evs[20].Part.End.Eq(cycle.Int(5003)))
}

func TestBools(t *testing.T) {
	evs := pattern.Bools("x ~ 0 t").QueryCycles(0, 1)
	require.Len(t, evs, 3)
	assert.True(t, evs[0].Value)
	assert.False(t, evs[1].Value)
	assert.True(t, evs[2].Value)
}

func TestSlowCat(t *testing.T) {
	evs := pattern.Alternate("a", "b", "c").QueryCycles(0, 4)
	assert.Equal(t, []string{"[0, 1) a", "[1, 2) b", "[2, 3) c", "[3, 4) a"}, show(evs))

	// items only advance while they play
	p := pattern.SlowCat(pattern.Alternate("x", "y"), pattern.Pure("z"))
	evs = p.QueryCycles(0, 4)
	assert.Equal(t, []string{"[0, 1) x", "[1, 2) z", "[2, 3) y", "[3, 4) z"}, show(evs))

	neg := pattern.Alternate("a", "b", "c").QueryCycles(-1, 0)
	assert.Equal(t, []string{"[-1, 0) c"}, show(neg))
}

func TestStack_Union(t *testing.T) {
	a := pattern.Words("bd sd")
	b := pattern.Words("hh hh hh").Late(cycle.New(1, 5))
	for _, s := range sampleSpans {
		want := append(show(a.Query(s)), show(b.Query(s))...)
		assert.ElementsMatch(t, want, show(pattern.Stack(a, b).Query(s)))
		assert.ElementsMatch(t, want, show(pattern.Stack(b, a).Query(s)))
	}
}

func TestStack_LayerIsolation(t *testing.T) {
	var reported []error
	pattern.OnLayerError(func(err error) { reported = append(reported, err) })
	t.Cleanup(func() { pattern.OnLayerError(nil) })

	broken := pattern.New(func(cycle.TimeSpan) []pattern.Event[string] {
		panic(errors.New("sample table missing"))
	})
	p := pattern.Stack(pattern.Words("bd sd"), broken, pattern.Pure("hh"))

	evs := p.QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/2) bd", "[0, 1) hh", "[1/2, 1) sd"}, show(evs))

	require.Len(t, reported, 1)
	var le *pattern.LayerError
	require.True(t, errors.As(reported[0], &le))
	assert.Equal(t, 1, le.Layer)
	assert.Contains(t, le.Error(), "sample table missing")
}

func TestPolymeter(t *testing.T) {
	three := []pattern.Pattern[string]{pattern.Pure("a"), pattern.Pure("b"), pattern.Pure("c")}
	four := []pattern.Pattern[string]{pattern.Pure("1"), pattern.Pure("2"), pattern.Pure("3"), pattern.Pure("4")}
	p := pattern.Polymeter(three, four)

	var cycle1 []string
	for _, e := range p.Onsets(cycle.Span(cycle.One, cycle.Int(2))) {
		cycle1 = append(cycle1, e.Value)
	}
	// the four step layer runs three steps per cycle and drifts by one
	assert.Equal(t, []string{"a", "4", "b", "1", "c", "2"}, cycle1)

	assert.Empty(t, pattern.Polymeter[string]().QueryCycles(0, 1))
}

func onsetSteps(p pattern.Pattern[bool], n int) []int {
	var out []int
	for _, e := range p.QueryCycles(0, 1) {
		if !e.Value {
			continue
		}
		step := e.Whole.Begin.Mul(cycle.Int(int64(n)))
		out = append(out, int(step.Int64()))
	}
	return out
}

func TestEuclid(t *testing.T) {
	tests := []struct {
		k, n, rot int
		want      []int
	}{
		{3, 8, 0, []int{0, 3, 6}},
		{5, 8, 0, []int{0, 2, 3, 5, 6}},
		{5, 8, 5, []int{0, 1, 3, 5, 6}},
		{2, 5, 0, []int{0, 2}},
		{3, 4, 0, []int{0, 1, 2}},
		{4, 12, 0, []int{0, 3, 6, 9}},
		{7, 16, 0, []int{0, 3, 5, 7, 10, 12, 14}},
		{3, 8, 2, []int{1, 4, 6}},
		{3, 8, -1, []int{1, 4, 7}},
		{0, 4, 0, nil},
		{9, 4, 0, []int{0, 1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d,%d,%d", tt.k, tt.n, tt.rot), func(t *testing.T) {
			assert.Equal(t, tt.want, onsetSteps(pattern.Euclid(tt.k, tt.n, tt.rot), tt.n))
			assert.Equal(t, tt.want, pattern.EuclidOnsets(tt.k, tt.n, tt.rot))
		})
	}
	assert.Empty(t, pattern.Euclid(3, 0, 0).QueryCycles(0, 1))
}

func TestStruct(t *testing.T) {
	evs := pattern.Pure("heartbeat").Struct(pattern.Bools("x ~ ~ ~")).QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/4) heartbeat"}, show(evs))

	hh := pattern.Words("hh hh hh hh hh hh hh hh").Struct(pattern.Euclid(3, 8, 0)).QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/8) hh", "[3/8, 1/2) hh", "[3/4, 7/8) hh"}, show(hh))

	// the rhythm decides timing, values are sampled from the source
	abc := pattern.Words("a b").Struct(pattern.Bools("x x x x")).QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/4) a", "[1/4, 1/2) a", "[1/2, 3/4) b", "[3/4, 1) b"}, show(abc))
}

func TestMask(t *testing.T) {
	p := pattern.Words("a b c d").Mask(pattern.Bools("1 0 1 1"))
	assert.Equal(t, []string{"[0, 1/4) a", "[1/2, 3/4) c", "[3/4, 1) d"}, show(p.QueryCycles(0, 1)))

	alt := pattern.Pure("technologic").Mask(pattern.Alternate(true, false, true, false, true, false, true, true))
	var playing []int64
	for _, e := range alt.QueryCycles(0, 8) {
		playing = append(playing, e.Whole.Begin.Int64())
	}
	assert.Equal(t, []int64{0, 2, 4, 6, 7}, playing)

	// a masked fragment keeps its whole
	half := pattern.Pure(7).Mask(pattern.Bools("1 0")).QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/2)([0, 1)) 7"}, show(half))
}

func TestEvery(t *testing.T) {
	p := pattern.Words("a b c d")
	q := p.Every(4, pattern.Rev[string])

	for c := int64(0); c < 8; c++ {
		got := show(q.QueryCycles(c, c+1))
		if c%4 == 0 {
			assert.Equal(t, show(p.Rev().QueryCycles(c, c+1)), got, "cycle %d", c)
			assert.NotEqual(t, show(p.QueryCycles(c, c+1)), got, "cycle %d", c)
		} else {
			assert.Equal(t, show(p.QueryCycles(c, c+1)), got, "cycle %d", c)
		}
	}

	// floored modulo, cycle -4 is transformed too
	assert.Equal(t, show(p.Rev().QueryCycles(-4, -3)), show(q.QueryCycles(-4, -3)))
	assert.Equal(t, show(p.QueryCycles(0, 3)), show(p.Every(0, pattern.Rev[string]).QueryCycles(0, 3)))
}

func TestSometimesBy_Deterministic(t *testing.T) {
	p := pattern.Words("bd sd hh cp").Fast(cycle.Int(4)).SometimesBy(0.5, pattern.Fast[string](cycle.Int(2)))
	s := cycle.Span(cycle.Int(3), cycle.Int(11))
	first := show(p.Query(s))
	assert.Equal(t, first, show(p.Query(s)))
	assert.NotEmpty(t, first)
}

func TestSometimesBy_Rate(t *testing.T) {
	const marked = 1000
	mark := func(p pattern.Pattern[int]) pattern.Pattern[int] {
		return pattern.Fmap(p, func(v int) int { return v + marked })
	}

	for _, prob := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		p := pattern.Seq(0, 1, 2, 3, 4, 5, 6, 7).SometimesBy(prob, mark)
		evs := p.QueryCycles(0, 500)
		require.Len(t, evs, 4000)

		hit := 0
		for _, e := range evs {
			if e.Value >= marked {
				hit++
			}
		}
		rate := float64(hit) / float64(len(evs))
		// four standard deviations of a binomial with 4000 trials
		tol := 4 * math.Sqrt(prob*(1-prob)/4000)
		assert.InDelta(t, prob, rate, tol, "prob %v", prob)
		assert.InDelta(t, prob, pattern.Chance(pattern.Seq(0, 1, 2, 3, 4, 5, 6, 7), pattern.DefaultSeed, prob, 500), tol)
	}
}

func TestSometimesBy_SeedChangesChoice(t *testing.T) {
	p := pattern.Seq(0, 1, 2, 3, 4, 5, 6, 7)
	drop := func(q pattern.Pattern[int]) pattern.Pattern[int] { return pattern.Silence[int]() }

	a := show(p.SometimesBySeed(1, 0.5, drop).QueryCycles(0, 4))
	b := show(p.SometimesBySeed(2, 0.5, drop).QueryCycles(0, 4))
	assert.NotEqual(t, a, b)
}

func TestDegrade(t *testing.T) {
	p := pattern.Words("bd sd cp").Fast(cycle.Int(8))
	all := p.QueryCycles(0, 100)
	kept := p.DegradeBy(0.3).QueryCycles(0, 100)
	assert.InDelta(t, 0.7, float64(len(kept))/float64(len(all)), 0.05)
	assert.Equal(t, show(kept), show(p.DegradeBy(0.3).QueryCycles(0, 100)))
	assert.Empty(t, p.DegradeBy(1).QueryCycles(0, 10))
}
