// Package sheets holds the playable programs: each Sheet builds one
// control pattern, reading its live values from a SliderBank.
//
// Sheets register themselves by name at init, the CLI and the
// HTTP API only ever look them up.
package sheets

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/maroda/madrigal/cycle"
	Mpat "github.com/maroda/madrigal/pattern"
)

// BuildFunc builds a sheet's pattern. Sliders it creates land in bank.
type BuildFunc func(bank *Mpat.SliderBank) (Mpat.ControlPattern, error)

// Sheet is a named pattern program and the tempo it expects.
type Sheet struct {
	Name    string
	About   string
	CPS     cycle.Fraction // zero means no preference
	Samples []string       // sample maps the sheet's sounds come from
	build   BuildFunc
}

// Build evaluates the sheet. A nil bank gets a private one.
func (s Sheet) Build(bank *Mpat.SliderBank) (Mpat.ControlPattern, error) {
	if bank == nil {
		bank = Mpat.NewSliderBank()
	}
	p, err := s.build(bank)
	if err != nil {
		return Mpat.ControlPattern{}, fmt.Errorf("sheet %s: %w", s.Name, err)
	}
	return p, nil
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Sheet)
)

// Register adds a sheet. Names are unique, registering one twice panics.
func Register(s Sheet, build BuildFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[s.Name]; ok {
		panic(fmt.Sprintf("sheet %q registered twice", s.Name))
	}
	s.build = build
	registry[s.Name] = s
}

func Lookup(name string) (Sheet, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[name]
	if !ok {
		slog.Warn("Sheet not found", slog.String("sheet", name))
		return Sheet{}, &Mpat.UnknownReferenceError{Kind: "sheet", Name: name}
	}
	return s, nil
}

// Names lists every registered sheet, sorted
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Render lists the onsets of cycles [from, to), one per line:
// "[1/4, 1/2) s=sd gain=0.8".
func Render(p Mpat.ControlPattern, from, to int64) []string {
	var lines []string
	for _, e := range p.Onsets(cycle.Span(cycle.Int(from), cycle.Int(to))) {
		lines = append(lines, fmt.Sprintf("%s %s", e.WholeOrPart(), Mpat.Describe(e.Value)))
	}
	return lines
}
