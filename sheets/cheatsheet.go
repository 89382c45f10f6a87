package sheets

import (
	"github.com/maroda/madrigal/cycle"
	Mpat "github.com/maroda/madrigal/pattern"
	Mt "github.com/maroda/madrigal/types"
)

// CheatSheet is the name of the sheet that plays every example in turn,
// one per cycle. Each example is also a sheet of its own, "cheat-sheet/<name>".
const CheatSheet = "cheat-sheet"

type example struct {
	name  string
	about string
	build BuildFunc
}

func n(v int64) cycle.Fraction { return cycle.Int(v) }

var rev = Mpat.Rev[Mt.Controls]

// funky is the reusable transformation from the functions example
func funky(p Mpat.ControlPattern) Mpat.ControlPattern {
	return p.
		Every(3, rev).
		Every(4, Mpat.Fast[Mt.Controls](n(2))).
		Apply(Mpat.Shape(0.4))
}

var cheatSheetExamples = []example{
	// basics
	{"kick", "a kick drum on every cycle", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd"), nil
	}},
	{"sequence", "four sounds in one cycle", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd sd bd hh"), nil
	}},
	{"stack", "two layers", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Stack(
			Mpat.S("bd sd"),
			Mpat.S("hh").Fast(n(4)),
		), nil
	}},

	// structure
	{"subdivide", "steps split into smaller steps", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Sequence(
			Mpat.S("bd"),
			Mpat.S("sd sd"),
			Mpat.S("bd"),
			Mpat.S("hh hh hh hh"),
		), nil
	}},
	{"rest", "~ is silence", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd ~ bd sd"), nil
	}},
	{"euclid", "3 hits spread over 8 steps", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("hh").Fast(n(8)).Struct(Mpat.Euclid(3, 8, 0)), nil
	}},
	{"polymeter", "3 against 4", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Stack(
			Mpat.S("bd").Fast(n(3)),
			Mpat.S("hh").Fast(n(4)),
		), nil
	}},
	{"degrade", "each step may drop out", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd sd cp").Degrade(), nil
	}},

	// transformations
	{"every", "reversed every 4th cycle", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd sd").Every(4, rev), nil
	}},
	{"sometimes", "reversed half the time", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd sd").Sometimes(rev), nil
	}},
	{"gain", "quieter", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd sd").Apply(Mpat.Gain(0.8)), nil
	}},
	{"slow", "hats at half speed", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Stack(
			Mpat.S("bd sd"),
			Mpat.S("hh").Fast(n(4)).Slow(n(2)),
		), nil
	}},

	// effects
	{"reverb", "room and size", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("sd").Apply(Mpat.Room(0.7), Mpat.Size(0.8)), nil
	}},
	{"delay", "delay send and time", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("cp").Apply(Mpat.Delay(0.5), Mpat.DelayTime(0.75)), nil
	}},
	{"filter", "low pass filter", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("arpy").Apply(Mpat.LPF(500), Mpat.LPQ(5)), nil
	}},
	{"distortion", "waveshaping", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd").Apply(Mpat.Shape(0.5)), nil
	}},

	// synths and notes
	{"notes", "note names on the default synth", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		notes, err := Mpat.NoteNumbers("c4 g4 e4 d4")
		if err != nil {
			return Mpat.ControlPattern{}, err
		}
		return Mpat.N(notes), nil
	}},
	{"synth", "the same notes on a sawtooth", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		notes, err := Mpat.NoteNumbers("c4 g4 e4 d4")
		if err != nil {
			return Mpat.ControlPattern{}, err
		}
		return Mpat.N(notes).Apply(Mpat.SetSound("sawtooth")), nil
	}},
	{"numbers", "numbered notes on a square", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		nums, err := Mpat.Numbers("0 8 4 2")
		if err != nil {
			return Mpat.ControlPattern{}, err
		}
		return Mpat.N(nums).Apply(Mpat.SetSound("square")), nil
	}},
	{"chords", "Am C G F", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		chords, err := Mpat.Chord("Am C G F")
		if err != nil {
			return Mpat.ControlPattern{}, err
		}
		return Mpat.Note(chords).Apply(Mpat.SetSound("gm_epiano1")), nil
	}},
	{"scale", "C major up one octave", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return scaleRun("major")
	}},
	{"minor-scale", "the same run in C minor", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return scaleRun("minor")
	}},

	// signals
	{"wah", "a sine on the filter cutoff", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.N(Mpat.Pure(60.0)).Apply(
			Mpat.SetSound("sawtooth"),
			Mpat.LPF(Mpat.Range(Mpat.Sine(), 500, 2000).Slow(n(4))),
		), nil
	}},
	{"perlin", "smooth random gain", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.S("bd sd").Apply(Mpat.Gain(Mpat.Range(Mpat.Perlin(), 0.5, 1).Slow(n(8)))), nil
	}},

	// plain Go values
	{"variables", "patterns held in variables", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		drums := Mpat.Sequence(Mpat.S("bd"), Mpat.S("sd sd"), Mpat.S("bd"), Mpat.S("hh"))
		notes, err := Mpat.NoteNumbers("c4 g4 e4 d4")
		if err != nil {
			return Mpat.ControlPattern{}, err
		}
		melody := Mpat.N(notes).Apply(Mpat.SetSound("sawtooth"))
		return Mpat.Stack(drums, melody), nil
	}},
	{"arrays", "notes and samples from slices", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		var notes []float64
		for _, name := range []string{"c4", "e4", "g4", "b4"} {
			v, err := Mpat.NoteNumber(name)
			if err != nil {
				return Mpat.ControlPattern{}, err
			}
			notes = append(notes, v)
		}
		samples := []string{"bd", "sd", "hh", "cp"}
		return Mpat.Stack(
			Mpat.N(Mpat.Seq(notes...)).Apply(Mpat.SetSound("square")),
			Mpat.Sound(Mpat.Seq(samples...)),
		), nil
	}},
	{"functions", "one transformation on two patterns", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Stack(
			funky(Mpat.S("bd sd")),
			funky(Mpat.S("arpy")).Apply(Mpat.LPF(800)),
		), nil
	}},
	{"loops", "16 rising notes", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		rising := make([]float64, 16)
		for i := range rising {
			rising[i] = float64(i)
		}
		return Mpat.N(Mpat.Seq(rising...)).Apply(Mpat.SetSound("marimba")), nil
	}},
	{"records", "one record of parameters per step", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Zip(
			Mpat.Column{Param: "n", Values: []any{0, 1, 2, 3}},
			Mpat.Column{Param: "s", Values: []any{"bd", "sd", "hh", "cp"}},
			Mpat.Column{Param: "gain", Values: []any{1, 0.8, 0.7, 0.9}},
			Mpat.Column{Param: "lpf", Values: []any{nil, nil, 5000, nil}},
			Mpat.Column{Param: "room", Values: []any{nil, nil, nil, 0.5}},
		)
	}},
	{"spiral", "a six step beat", func(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
		return Mpat.Sequence(
			Mpat.S("bd"), Mpat.S("sd"), Mpat.S("hh"), Mpat.S("cp"),
			Mpat.S("~ bd"), Mpat.S("~ sd"),
		), nil
	}},

	// sliders
	{"sliders", "cutoff and resonance on sliders", func(bank *Mpat.SliderBank) (Mpat.ControlPattern, error) {
		lpf := bank.Slider("lpf", 500, 100, 2000, 1)
		lpq := bank.Slider("lpq", 8, 0.1, 20, 0.1)
		return Mpat.N(Mpat.Pure(60.0)).Apply(
			Mpat.SetSound("sawtooth"),
			Mpat.LPF(lpf.Pattern()),
			Mpat.LPQ(lpq.Pattern()),
		), nil
	}},
	{"slider-delay", "delay feedback on a slider", func(bank *Mpat.SliderBank) (Mpat.ControlPattern, error) {
		feedback := bank.Slider("delayfeedback", 0.5, 0, 0.95, 0.01)
		return Mpat.S("cp").Fast(n(4)).Apply(
			Mpat.Delay(0.5),
			Mpat.DelayTime(Mpat.Cycles(1, 8)),
			Mpat.DelayFeedback(feedback.Pattern()),
			Mpat.Room(0.3),
		), nil
	}},
}

func scaleRun(name string) (Mpat.ControlPattern, error) {
	degrees, err := Mpat.Numbers("0 1 2 3 4 5 6 7")
	if err != nil {
		return Mpat.ControlPattern{}, err
	}
	notes, err := Mpat.Scale(name, degrees)
	if err != nil {
		return Mpat.ControlPattern{}, err
	}
	return Mpat.Note(notes).Apply(Mpat.SetSound("marimba")), nil
}

// buildCheatSheet plays the examples one per cycle
func buildCheatSheet(bank *Mpat.SliderBank) (Mpat.ControlPattern, error) {
	items := make([]Mpat.ControlPattern, 0, len(cheatSheetExamples))
	for _, ex := range cheatSheetExamples {
		p, err := ex.build(bank)
		if err != nil {
			return Mpat.ControlPattern{}, err
		}
		items = append(items, p)
	}
	return Mpat.SlowCat(items...), nil
}

func init() {
	Register(Sheet{
		Name:  CheatSheet,
		About: "every cheat sheet example, one per cycle",
		CPS:   cycle.New(1, 2),
	}, buildCheatSheet)

	for _, ex := range cheatSheetExamples {
		Register(Sheet{
			Name:  CheatSheet + "/" + ex.name,
			About: ex.about,
			CPS:   cycle.New(1, 2),
		}, ex.build)
	}
}
