package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maroda/madrigal/cycle"
	Mt "github.com/maroda/madrigal/types"
)

// ControlPattern is a pattern of sounding events, the root type a sheet
// hands to the scheduler.
type ControlPattern = Pattern[Mt.Controls]

// ControlFunc transforms a control pattern, it is what every setter returns.
type ControlFunc = func(ControlPattern) ControlPattern

// Arg is what a numeric control accepts: a constant or a pattern of values.
type Arg interface {
	float64 | int | Pattern[float64]
}

func argPattern[V Arg](v V) Pattern[float64] {
	switch x := any(v).(type) {
	case float64:
		return Pure(x)
	case int:
		return Pure(float64(x))
	case Pattern[float64]:
		return x
	}
	return Silence[float64]()
}

// param names one numeric field of Controls.
type param struct {
	name  string
	field func(*Mt.Controls) **float64
}

// params is the payload order, also used by Describe.
var params = []param{
	{"n", func(c *Mt.Controls) **float64 { return &c.N }},
	{"note", func(c *Mt.Controls) **float64 { return &c.Note }},
	{"gain", func(c *Mt.Controls) **float64 { return &c.Gain }},
	{"velocity", func(c *Mt.Controls) **float64 { return &c.Velocity }},
	{"pan", func(c *Mt.Controls) **float64 { return &c.Pan }},
	{"speed", func(c *Mt.Controls) **float64 { return &c.Speed }},
	{"cutoff", func(c *Mt.Controls) **float64 { return &c.Cutoff }},
	{"resonance", func(c *Mt.Controls) **float64 { return &c.Resonance }},
	{"room", func(c *Mt.Controls) **float64 { return &c.Room }},
	{"size", func(c *Mt.Controls) **float64 { return &c.Size }},
	{"delay", func(c *Mt.Controls) **float64 { return &c.Delay }},
	{"delaytime", func(c *Mt.Controls) **float64 { return &c.DelayTime }},
	{"delayfeedback", func(c *Mt.Controls) **float64 { return &c.DelayFeedback }},
	{"shape", func(c *Mt.Controls) **float64 { return &c.Shape }},
}

// aliases are the short names scripts use for the same fields.
var aliases = map[string]string{
	"sound":    "s",
	"lpf":      "cutoff",
	"lpq":      "resonance",
	"roomsize": "size",
	"dt":       "delaytime",
	"dfb":      "delayfeedback",
}

func lookupParam(name string) (param, bool) {
	if a, ok := aliases[name]; ok {
		name = a
	}
	for _, p := range params {
		if p.name == name {
			return p, true
		}
	}
	return param{}, false
}

// setter builds a ControlFunc that writes values, sampled at each event,
// into the field named name. The control pattern keeps its structure.
func setter[V Arg](name string, v V) ControlFunc {
	p, ok := lookupParam(name)
	if !ok {
		panic(&UnknownReferenceError{Kind: "control", Name: name})
	}
	vals := argPattern(v)
	return func(cp ControlPattern) ControlPattern {
		return appLeft(cp, vals, func(c Mt.Controls, f float64) Mt.Controls {
			*p.field(&c) = &f
			return c
		})
	}
}

// S is a sequence of sample or synth names: S("bd ~ sd hh").
func S(words string) ControlPattern {
	return Sound(Words(words))
}

// Sound turns a pattern of names into sounding events.
func Sound(names Pattern[string]) ControlPattern {
	return Fmap(names, func(s string) Mt.Controls { return Mt.Controls{S: &s} })
}

// N turns numbers into events carrying n, a sample index or scale degree.
func N[V Arg](v V) ControlPattern {
	return Fmap(argPattern(v), func(f float64) Mt.Controls { return Mt.Controls{N: &f} })
}

// Note turns note numbers into events carrying note.
func Note[V Arg](v V) ControlPattern {
	return Fmap(argPattern(v), func(f float64) Mt.Controls { return Mt.Controls{Note: &f} })
}

// Notes reads note names or numbers, Notes("c4 g4 e4 d4").
func Notes(s string) (ControlPattern, error) {
	p, err := NoteNumbers(s)
	if err != nil {
		return ControlPattern{}, err
	}
	return Note(p), nil
}

// SetS sets the sound of every event: the .s("sawtooth") of a melody.
func SetS(names Pattern[string]) ControlFunc {
	return func(cp ControlPattern) ControlPattern {
		return appLeft(cp, names, func(c Mt.Controls, s string) Mt.Controls {
			c.S = &s
			return c
		})
	}
}

// SetSound is SetS for one fixed name.
func SetSound(name string) ControlFunc {
	return SetS(Pure(name))
}

func SetN[V Arg](v V) ControlFunc    { return setter("n", v) }
func SetNote[V Arg](v V) ControlFunc { return setter("note", v) }

func Gain[V Arg](v V) ControlFunc          { return setter("gain", v) }
func Velocity[V Arg](v V) ControlFunc      { return setter("velocity", v) }
func Pan[V Arg](v V) ControlFunc           { return setter("pan", v) }
func Speed[V Arg](v V) ControlFunc         { return setter("speed", v) }
func LPF[V Arg](v V) ControlFunc           { return setter("cutoff", v) }
func LPQ[V Arg](v V) ControlFunc           { return setter("resonance", v) }
func Room[V Arg](v V) ControlFunc          { return setter("room", v) }
func Size[V Arg](v V) ControlFunc          { return setter("size", v) }
func Delay[V Arg](v V) ControlFunc         { return setter("delay", v) }
func DelayTime[V Arg](v V) ControlFunc     { return setter("delaytime", v) }
func DelayFeedback[V Arg](v V) ControlFunc { return setter("delayfeedback", v) }
func Shape[V Arg](v V) ControlFunc         { return setter("shape", v) }

// Cycles is a control value given in cycles, DelayTime(Cycles(1, 8)).
func Cycles(num, den int64) float64 {
	return cycle.New(num, den).Float64()
}

// Merge keeps the structure of a and fills in every field b sets.
func Merge(a, b ControlPattern) ControlPattern {
	return appLeft(a, b, mergeControls)
}

func mergeControls(a, b Mt.Controls) Mt.Controls {
	if b.S != nil {
		a.S = b.S
	}
	for _, p := range params {
		if v := *p.field(&b); v != nil {
			*p.field(&a) = v
		}
	}
	return a
}

// Jux plays the pattern hard left and f of it hard right.
func Jux(f ControlFunc) ControlFunc {
	return func(cp ControlPattern) ControlPattern {
		return Stack(Pan(0.0)(cp), Pan(1.0)(f(cp)))
	}
}

// Payload is the parameter map handed to outputs, set fields only.
func Payload(c Mt.Controls) map[string]any {
	out := make(map[string]any, len(params)+1)
	if c.S != nil {
		out["s"] = *c.S
	}
	for _, p := range params {
		if v := *p.field(&c); v != nil {
			out[p.name] = *v
		}
	}
	return out
}

// SetParam writes one named value into c. Numbers may be float64, int or
// numeric strings, note and n also accept note names.
// nil leaves c untouched.
func SetParam(c Mt.Controls, name string, v any) (Mt.Controls, error) {
	if v == nil {
		return c, nil
	}
	if a, ok := aliases[name]; ok {
		name = a
	}

	if name == "s" {
		s, ok := v.(string)
		if !ok {
			return c, fmt.Errorf("param s: want a name, got %T", v)
		}
		c.S = &s
		return c, nil
	}

	p, ok := lookupParam(name)
	if !ok {
		return c, &UnknownReferenceError{Kind: "control", Name: name}
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		var err error
		f, err = strconv.ParseFloat(x, 64)
		if err != nil && (name == "n" || name == "note") {
			f, err = NoteNumber(x)
		}
		if err != nil {
			return c, fmt.Errorf("param %s: %w", name, err)
		}
	default:
		return c, fmt.Errorf("param %s: unsupported value type %T", name, v)
	}
	*p.field(&c) = &f
	return c, nil
}

// Describe renders the set fields in payload order: "s=bd n=0 gain=0.8".
func Describe(c Mt.Controls) string {
	var parts []string
	if c.S != nil {
		parts = append(parts, "s="+*c.S)
	}
	for _, p := range params {
		if v := *p.field(&c); v != nil {
			parts = append(parts, p.name+"="+strconv.FormatFloat(*v, 'g', -1, 64))
		}
	}
	return strings.Join(parts, " ")
}
