// Package cycle holds the exact time model shared by patterns and the
// scheduler. One cycle is one unit of time; every position is a Fraction.
package cycle

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// maxFloatDenominator bounds FromFloat so tempo values such as 130/60/4
// come back as 13/24 rather than the exact binary expansion.
const maxFloatDenominator = 1_000_000

// Fraction is an immutable exact rational number.
// The zero value is 0.
type Fraction struct {
	r *big.Rat
}

var (
	Zero = Int(0)
	One  = Int(1)
)

// New returns num/den reduced. A zero denominator panics with *ArithmeticError,
// the same way integer division by zero panics.
func New(num, den int64) Fraction {
	if den == 0 {
		panic(&ArithmeticError{Op: "division by zero", Operand: fmt.Sprintf("%d/0", num)})
	}
	return Fraction{r: big.NewRat(num, den)}
}

// Int returns the whole number n as a Fraction.
func Int(n int64) Fraction {
	return Fraction{r: new(big.Rat).SetInt64(n)}
}

// FromRat copies r into a Fraction.
func FromRat(r *big.Rat) Fraction {
	return Fraction{r: new(big.Rat).Set(r)}
}

// FromFloat returns the closest Fraction to f whose denominator does not
// exceed one million. NaN and infinities are rejected.
func FromFloat(f float64) (Fraction, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Fraction{}, &ArithmeticError{Op: "not a finite number", Operand: fmt.Sprint(f)}
	}
	exact := new(big.Rat).SetFloat64(f)
	return Fraction{r: limitDenominator(exact, maxFloatDenominator)}, nil
}

// Parse reads "n", "n/d" or a decimal such as "0.25".
func Parse(s string) (Fraction, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		parts := strings.SplitN(s, "/", 2)
		if strings.TrimSpace(parts[1]) == "0" {
			return Fraction{}, &ArithmeticError{Op: "division by zero", Operand: s}
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Fraction{}, fmt.Errorf("cannot parse %q as a fraction", s)
	}
	return Fraction{r: r}, nil
}

func (f Fraction) rat() *big.Rat {
	if f.r == nil {
		return new(big.Rat)
	}
	return f.r
}

// Rat returns a copy of the underlying big.Rat.
func (f Fraction) Rat() *big.Rat {
	return new(big.Rat).Set(f.rat())
}

func (f Fraction) Add(o Fraction) Fraction {
	return Fraction{r: new(big.Rat).Add(f.rat(), o.rat())}
}

func (f Fraction) Sub(o Fraction) Fraction {
	return Fraction{r: new(big.Rat).Sub(f.rat(), o.rat())}
}

func (f Fraction) Mul(o Fraction) Fraction {
	return Fraction{r: new(big.Rat).Mul(f.rat(), o.rat())}
}

// Div returns f/o, or *ArithmeticError when o is zero.
func (f Fraction) Div(o Fraction) (Fraction, error) {
	if o.IsZero() {
		return Fraction{}, &ArithmeticError{Op: "division by zero", Operand: f.String() + "/0"}
	}
	return Fraction{r: new(big.Rat).Quo(f.rat(), o.rat())}, nil
}

// MustDiv is Div for divisors known to be non-zero. It panics with the
// *ArithmeticError otherwise.
func (f Fraction) MustDiv(o Fraction) Fraction {
	q, err := f.Div(o)
	if err != nil {
		panic(err)
	}
	return q
}

// Inverse returns 1/f.
func (f Fraction) Inverse() (Fraction, error) {
	return One.Div(f)
}

func (f Fraction) Neg() Fraction {
	return Fraction{r: new(big.Rat).Neg(f.rat())}
}

// Floor rounds towards negative infinity.
func (f Fraction) Floor() Fraction {
	r := f.rat()
	q := new(big.Int).Div(r.Num(), r.Denom()) // Euclidean, Denom > 0
	return Fraction{r: new(big.Rat).SetInt(q)}
}

// Ceil rounds towards positive infinity.
func (f Fraction) Ceil() Fraction {
	return f.Neg().Floor().Neg()
}

// Mod is the floored modulo, result has the sign of o.
func (f Fraction) Mod(o Fraction) (Fraction, error) {
	if o.IsZero() {
		return Fraction{}, &ArithmeticError{Op: "modulo by zero", Operand: f.String() + " mod 0"}
	}
	q := f.MustDiv(o).Floor()
	return f.Sub(o.Mul(q)), nil
}

// Sam is the start of the cycle containing f.
func (f Fraction) Sam() Fraction { return f.Floor() }

// NextSam is the start of the following cycle.
func (f Fraction) NextSam() Fraction { return f.Sam().Add(One) }

// CyclePos is f - floor(f), the position inside the current cycle.
func (f Fraction) CyclePos() Fraction { return f.Sub(f.Floor()) }

func (f Fraction) Cmp(o Fraction) int { return f.rat().Cmp(o.rat()) }
func (f Fraction) Eq(o Fraction) bool { return f.Cmp(o) == 0 }
func (f Fraction) Lt(o Fraction) bool { return f.Cmp(o) < 0 }
func (f Fraction) Lte(o Fraction) bool {
	return f.Cmp(o) <= 0
}
func (f Fraction) Gt(o Fraction) bool  { return f.Cmp(o) > 0 }
func (f Fraction) Gte(o Fraction) bool { return f.Cmp(o) >= 0 }
func (f Fraction) IsZero() bool        { return f.rat().Sign() == 0 }
func (f Fraction) Sign() int           { return f.rat().Sign() }

func Min(a, b Fraction) Fraction {
	if a.Lt(b) {
		return a
	}
	return b
}

func Max(a, b Fraction) Fraction {
	if a.Gt(b) {
		return a
	}
	return b
}

// Float64 is the nearest float, for DSP-facing values only.
func (f Fraction) Float64() float64 {
	v, _ := f.rat().Float64()
	return v
}

// Int64 returns the floor of f as an int64.
func (f Fraction) Int64() int64 {
	return f.Floor().rat().Num().Int64()
}

// Num and Denom expose the reduced parts, Denom is always positive.
func (f Fraction) Num() *big.Int   { return new(big.Int).Set(f.rat().Num()) }
func (f Fraction) Denom() *big.Int { return new(big.Int).Set(f.rat().Denom()) }

// String renders "n" for whole numbers and "n/d" otherwise.
func (f Fraction) String() string {
	r := f.rat()
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

// MarshalText keeps JSON and YAML output exact.
func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fraction) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = p
	return nil
}

// limitDenominator finds the best approximation of x with denominator <= max
// by walking its continued fraction convergents.
func limitDenominator(x *big.Rat, max int64) *big.Rat {
	maxDen := big.NewInt(max)
	if x.Denom().Cmp(maxDen) <= 0 {
		return new(big.Rat).Set(x)
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n, d := new(big.Int).Set(x.Num()), new(big.Int).Set(x.Denom())

	for {
		a := new(big.Int).Div(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(maxDen) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, new(big.Int).Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}

	k := new(big.Int).Div(new(big.Int).Sub(maxDen, q0), q1)
	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	bound2 := new(big.Rat).SetFrac(p1, q1)

	diff1 := new(big.Rat).Abs(new(big.Rat).Sub(bound1, x))
	diff2 := new(big.Rat).Abs(new(big.Rat).Sub(bound2, x))
	if diff2.Cmp(diff1) <= 0 {
		return bound2
	}
	return bound1
}
