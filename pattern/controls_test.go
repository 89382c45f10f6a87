package pattern_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroda/madrigal/cycle"
	"github.com/maroda/madrigal/pattern"
	Mt "github.com/maroda/madrigal/types"
)

func describe(evs []pattern.Event[Mt.Controls]) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Part.String() + " " + pattern.Describe(e.Value)
	}
	return out
}

func TestS(t *testing.T) {
	evs := pattern.S("bd ~ sd").QueryCycles(0, 1)
	assert.Equal(t, []string{"[0, 1/3) s=bd", "[2/3, 1) s=sd"}, describe(evs))
}

func TestSetters(t *testing.T) {
	p := pattern.S("sd").Apply(pattern.Room(0.7), pattern.Size(0.8), pattern.Gain(1))
	evs := p.QueryCycles(0, 1)
	require.Len(t, evs, 1)
	assert.Equal(t, map[string]any{"s": "sd", "room": 0.7, "size": 0.8, "gain": 1.0}, pattern.Payload(evs[0].Value))

	filt := pattern.S("arpy").Apply(pattern.LPF(500), pattern.LPQ(5), pattern.Shape(0.5))
	assert.Equal(t, "s=arpy cutoff=500 resonance=5 shape=0.5", pattern.Describe(filt.QueryCycles(0, 1)[0].Value))
}

func TestSetters_DoNotShareRecords(t *testing.T) {
	base := pattern.S("bd")
	loud := base.Apply(pattern.Gain(1.0))
	quiet := base.Apply(pattern.Gain(0.2))

	assert.Equal(t, "s=bd gain=1", pattern.Describe(loud.QueryCycles(0, 1)[0].Value))
	assert.Equal(t, "s=bd gain=0.2", pattern.Describe(quiet.QueryCycles(0, 1)[0].Value))
	assert.Equal(t, "s=bd", pattern.Describe(base.QueryCycles(0, 1)[0].Value))
}

func TestSetters_PatternedValueKeepsStructure(t *testing.T) {
	p := pattern.S("forget").Apply(pattern.Speed(pattern.Seq(0.5, 2.0)))
	evs := p.QueryCycles(0, 1)
	require.Len(t, evs, 2)

	// one sound, split where the speed changes, only the first fragment sounds
	assert.Equal(t, []string{"[0, 1/2) s=forget speed=0.5", "[1/2, 1) s=forget speed=2"}, describe(evs))
	assert.True(t, evs[0].HasOnset())
	assert.False(t, evs[1].HasOnset())
}

func TestSetters_Signal(t *testing.T) {
	wah := pattern.Range(pattern.Sine(), 500, 2000).Slow(cycle.Int(4))
	notes, err := pattern.Notes("c4")
	require.NoError(t, err)

	evs := notes.Apply(pattern.SetSound("sawtooth"), pattern.LPF(wah)).QueryCycles(0, 8)
	require.Len(t, evs, 8)
	for _, e := range evs {
		c := *e.Value.Cutoff
		assert.True(t, c >= 500 && c <= 2000, "cutoff %v", c)
		assert.Equal(t, "sawtooth", *e.Value.S)
	}
	// signal sampled at the middle of each whole cycle
	assert.InDelta(t, 500+1500*(math.Sin(math.Pi/4)+1)/2, *evs[0].Value.Cutoff, 1e-9)
	assert.InDelta(t, 500+1500*(math.Sin(5*math.Pi/4)+1)/2, *evs[2].Value.Cutoff, 1e-9)
}

func TestSetters_Slider(t *testing.T) {
	bank := pattern.NewSliderBank()
	fb := bank.Slider("delayfeedback", 0.5, 0, 0.95, 0.01)

	p := pattern.S("cp cp cp cp").Apply(pattern.Delay(0.5), pattern.DelayTime(pattern.Cycles(1, 8)), pattern.DelayFeedback(fb.Pattern()))
	assert.InDelta(t, 0.5, *p.QueryCycles(0, 1)[0].Value.DelayFeedback, 1e-9)

	fb.Set(0.9)
	assert.InDelta(t, 0.9, *p.QueryCycles(0, 1)[0].Value.DelayFeedback, 1e-9)
	assert.Equal(t, 0.125, *p.QueryCycles(0, 1)[0].Value.DelayTime)
}

func TestN_And_Notes(t *testing.T) {
	n, err := pattern.Numbers("0 8 4 2")
	require.NoError(t, err)
	evs := pattern.N(n).Apply(pattern.SetSound("square")).QueryCycles(0, 1)
	require.Len(t, evs, 4)
	assert.Equal(t, 8.0, *evs[1].Value.N)

	notes, err := pattern.Notes("c4 g4 e4 d4")
	require.NoError(t, err)
	var got []float64
	for _, e := range notes.QueryCycles(0, 1) {
		got = append(got, *e.Value.Note)
	}
	assert.Equal(t, []float64{60, 67, 64, 62}, got)

	_, err = pattern.Notes("c4 h4")
	var ue *pattern.UnknownReferenceError
	assert.True(t, errors.As(err, &ue))
}

func TestJux(t *testing.T) {
	p := pattern.S("a b").Apply(pattern.Jux(pattern.Rev[Mt.Controls]))
	evs := p.QueryCycles(0, 1)
	assert.Equal(t, []string{
		"[0, 1/2) s=a pan=0",
		"[0, 1/2) s=b pan=1",
		"[1/2, 1) s=b pan=0",
		"[1/2, 1) s=a pan=1",
	}, describe(evs))
}

func TestJux_InsideEvery(t *testing.T) {
	forget := pattern.S("forget").Every(3, func(x pattern.ControlPattern) pattern.ControlPattern {
		return x.Apply(pattern.Speed(pattern.Seq(0.5, 2.0)), pattern.Jux(pattern.Rev[Mt.Controls]))
	})

	assert.Len(t, forget.QueryCycles(0, 1), 4)
	assert.Equal(t, []string{"[1, 2) s=forget"}, describe(forget.QueryCycles(1, 2)))
}

func TestMerge(t *testing.T) {
	notes, err := pattern.Notes("c4 e4")
	require.NoError(t, err)
	p := pattern.Merge(notes, pattern.S("piano").Apply(pattern.Gain(0.5)))
	assert.Equal(t, []string{"[0, 1/2) s=piano note=60 gain=0.5", "[1/2, 1) s=piano note=64 gain=0.5"},
		describe(p.QueryCycles(0, 1)))
}

func TestSetParam(t *testing.T) {
	var c Mt.Controls
	c, err := pattern.SetParam(c, "lpf", 5000)
	require.NoError(t, err)
	c, err = pattern.SetParam(c, "sound", "hh")
	require.NoError(t, err)
	c, err = pattern.SetParam(c, "note", "a4")
	require.NoError(t, err)
	c, err = pattern.SetParam(c, "room", nil)
	require.NoError(t, err)
	assert.Equal(t, "s=hh note=69 cutoff=5000", pattern.Describe(c))

	_, err = pattern.SetParam(c, "wobble", 1)
	var ue *pattern.UnknownReferenceError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "control", ue.Kind)

	_, err = pattern.SetParam(c, "s", 3)
	assert.Error(t, err)
	_, err = pattern.SetParam(c, "gain", "loud")
	assert.Error(t, err)
}

func TestZip(t *testing.T) {
	p, err := pattern.Zip(
		pattern.Column{Param: "n", Values: []any{0, 1, 2, 3}},
		pattern.Column{Param: "s", Values: []any{"bd", "sd", "hh", "cp"}},
		pattern.Column{Param: "gain", Values: []any{1, 0.8, 0.7, 0.9}},
		pattern.Column{Param: "lpf", Values: []any{nil, nil, 5000, nil}},
		pattern.Column{Param: "room", Values: []any{nil, nil, nil, 0.5}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[0, 1/4) s=bd n=0 gain=1",
		"[1/4, 1/2) s=sd n=1 gain=0.8",
		"[1/2, 3/4) s=hh n=2 gain=0.7 cutoff=5000",
		"[3/4, 1) s=cp n=3 gain=0.9 room=0.5",
	}, describe(p.QueryCycles(0, 1)))

	rec, err := pattern.FromRecords([]map[string]any{
		{"n": 0, "s": "bd", "gain": 1},
		{"n": 1, "s": "sd", "gain": 0.8},
		{"n": 2, "s": "hh", "gain": 0.7, "lpf": 5000},
		{"n": 3, "s": "cp", "gain": 0.9, "room": 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, describe(p.QueryCycles(0, 2)), describe(rec.QueryCycles(0, 2)))
}

func TestZip_LengthMismatch(t *testing.T) {
	_, err := pattern.Zip(
		pattern.Column{Param: "n", Values: []any{0, 1, 2}},
		pattern.Column{Param: "s", Values: []any{"bd", "sd"}},
	)
	assert.ErrorIs(t, err, pattern.ErrLengthMismatch)

	_, err = pattern.FromRecords([]map[string]any{{"bogus": 1}})
	var ue *pattern.UnknownReferenceError
	assert.True(t, errors.As(err, &ue))
}
