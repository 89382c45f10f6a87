package cycle_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroda/madrigal/cycle"
)

func TestFraction_Reduced(t *testing.T) {
	f := cycle.New(6, 8)
	assert.Equal(t, "3/4", f.String())
	assert.Equal(t, "2", cycle.New(4, 2).String())
	assert.Equal(t, "-1/3", cycle.New(1, -3).String())
}

func TestFraction_ZeroValue(t *testing.T) {
	var f cycle.Fraction
	assert.True(t, f.IsZero())
	assert.Equal(t, "1/2", f.Add(cycle.New(1, 2)).String())
}

func TestFraction_DivRoundTrip(t *testing.T) {
	values := []cycle.Fraction{
		cycle.Int(0), cycle.Int(1), cycle.Int(-7), cycle.New(1, 3),
		cycle.New(22, 7), cycle.New(-5, 12), cycle.New(1, 1_000_003),
	}
	divisors := []cycle.Fraction{
		cycle.Int(1), cycle.Int(-2), cycle.New(3, 8), cycle.New(7, 11), cycle.New(-1, 9),
	}

	for _, a := range values {
		for _, b := range divisors {
			q, err := a.Div(b)
			require.NoError(t, err)
			assert.True(t, q.Mul(b).Eq(a), "(%s/%s)*%s != %s", a, b, b, a)
		}
	}
}

func TestFraction_DivByZero(t *testing.T) {
	_, err := cycle.One.Div(cycle.Zero)
	var ae *cycle.ArithmeticError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, err.Error(), "division by zero")

	_, err = cycle.One.Mod(cycle.Zero)
	require.True(t, errors.As(err, &ae))

	_, err = cycle.Zero.Inverse()
	require.Error(t, err)

	assert.Panics(t, func() { cycle.One.MustDiv(cycle.Zero) })
	assert.Panics(t, func() { cycle.New(1, 0) })
}

func TestFraction_FloorAndCyclePos(t *testing.T) {
	tests := []struct {
		in    cycle.Fraction
		floor string
		ceil  string
		pos   string
	}{
		{cycle.New(7, 4), "1", "2", "3/4"},
		{cycle.New(-1, 4), "-1", "0", "3/4"},
		{cycle.Int(3), "3", "3", "0"},
		{cycle.New(-9, 4), "-3", "-2", "3/4"},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.floor, tt.in.Floor().String())
			assert.Equal(t, tt.ceil, tt.in.Ceil().String())
			assert.Equal(t, tt.pos, tt.in.CyclePos().String())
		})
	}
}

func TestFraction_Mod(t *testing.T) {
	m, err := cycle.Int(-1).Mod(cycle.Int(4))
	require.NoError(t, err)
	assert.Equal(t, "3", m.String())

	m, err = cycle.New(7, 2).Mod(cycle.Int(2))
	require.NoError(t, err)
	assert.Equal(t, "3/2", m.String())
}

func TestFraction_FromFloat(t *testing.T) {
	f, err := cycle.FromFloat(130.0 / 60 / 4)
	require.NoError(t, err)
	assert.Equal(t, "13/24", f.String())

	f, err = cycle.FromFloat(0.5)
	require.NoError(t, err)
	assert.Equal(t, "1/2", f.String())

	f, err = cycle.FromFloat(1.0 / 3)
	require.NoError(t, err)
	assert.Equal(t, "1/3", f.String())
}

func TestFraction_Parse(t *testing.T) {
	f, err := cycle.Parse("3/12")
	require.NoError(t, err)
	assert.Equal(t, "1/4", f.String())

	f, err = cycle.Parse("0.75")
	require.NoError(t, err)
	assert.Equal(t, "3/4", f.String())

	_, err = cycle.Parse("1/0")
	var ae *cycle.ArithmeticError
	assert.True(t, errors.As(err, &ae))

	_, err = cycle.Parse("craquemattic")
	assert.Error(t, err)
}

func TestFraction_TextMarshal(t *testing.T) {
	type doc struct {
		At cycle.Fraction `json:"at"`
	}
	b, err := json.Marshal(doc{At: cycle.New(5, 8)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"5/8"}`, string(b))

	var back doc
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.At.Eq(cycle.New(5, 8)))
}

func TestFraction_NoDriftAcrossManyCycles(t *testing.T) {
	step := cycle.New(1, 3)
	pos := cycle.Zero
	for i := 0; i < 3000; i++ {
		pos = pos.Add(step)
	}
	assert.Equal(t, "1000", pos.String())
	assert.True(t, pos.CyclePos().IsZero())
}
