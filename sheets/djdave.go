package sheets

import (
	"github.com/maroda/madrigal/cycle"
	Mpat "github.com/maroda/madrigal/pattern"
	Mt "github.com/maroda/madrigal/types"
)

const DJDave = "dj-dave"

// DJDaveSamples is where the dj-dave sounds are mapped
const DJDaveSamples = "github:algorave-dave/samples"

// buildDJDave layers every sample of the map, each on its own rhythm
func buildDJDave(*Mpat.SliderBank) (Mpat.ControlPattern, error) {
	speeds, err := Mpat.Numbers("0.5 2")
	if err != nil {
		return Mpat.ControlPattern{}, err
	}
	rest := Mpat.Silence[bool]()

	return Mpat.Stack(
		Mpat.S("heartbeat").Struct(Mpat.Bools("x ~ ~ ~")),
		Mpat.S("spilltab").Struct(Mpat.Bools("~ x ~ ~")),
		Mpat.S("giveittome").Struct(Mpat.Bools("x x").Slow(n(2))),
		Mpat.S("cocaina").Every(4, rev),
		Mpat.S("overgame").Sometimes(Mpat.Fast[Mt.Controls](n(2))),
		Mpat.S("technologic").Mask(Mpat.Alternate(true, false, true, false, true, false, true, true)),
		Mpat.S("ecotone").Apply(Mpat.Jux(rev)).Slow(n(2)),
		Mpat.S("trial").Struct(Mpat.SlowCat(rest, rest, Mpat.Pure(true), rest)),
		Mpat.S("forget").Every(3, func(p Mpat.ControlPattern) Mpat.ControlPattern {
			return p.Apply(Mpat.Speed(speeds), Mpat.Jux(rev))
		}),
	), nil
}

func init() {
	Register(Sheet{
		Name:    DJDave,
		About:   "the algorave-dave sample map, stacked",
		CPS:     cycle.New(130, 60*4),
		Samples: []string{DJDaveSamples},
	}, buildDJDave)
}
