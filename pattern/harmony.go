package pattern

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultOctave is used for note names written without one ("c" is c3).
const DefaultOctave = 3

var pitchClass = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

var sharpNames = []string{"c", "cs", "d", "ds", "e", "f", "fs", "g", "gs", "a", "as", "b"}

// NoteNumber converts a note name into a MIDI note number, c4 = 60.
// Sharps are "#" or "s", flats "b" or "f", and may repeat: "ebb4", "f##".
func NoteNumber(name string) (float64, error) {
	root, rest, err := splitRoot(name)
	if err != nil {
		return 0, err
	}
	octave := DefaultOctave
	if rest != "" {
		octave, err = strconv.Atoi(rest)
		if err != nil {
			return 0, &UnknownReferenceError{Kind: "note", Name: name}
		}
	}
	return float64((octave+1)*12 + root), nil
}

// splitRoot reads a letter and its accidentals, returning the semitone
// offset from c and whatever follows.
func splitRoot(name string) (int, string, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, "", &UnknownReferenceError{Kind: "note", Name: name}
	}
	pc, ok := pitchClass[s[0]]
	if !ok {
		return 0, "", &UnknownReferenceError{Kind: "note", Name: name}
	}

	i := 1
	for ; i < len(s); i++ {
		switch s[i] {
		case '#', 's':
			pc++
			continue
		case 'b', 'f':
			pc--
			continue
		}
		break
	}
	return pc, s[i:], nil
}

// NoteName is the sharp spelling of a MIDI note number, 61 is "cs4".
func NoteName(midi int) string {
	octave := floorDiv(midi, 12) - 1
	return fmt.Sprintf("%s%d", sharpNames[midi-floorDiv(midi, 12)*12], octave)
}

// NoteNumbers reads space separated note names or numbers,
// "~" is a rest: "c4 g4 ~ 62".
func NoteNumbers(s string) (Pattern[float64], error) {
	fields := strings.Fields(s)
	steps := make([]Pattern[float64], len(fields))
	for i, f := range fields {
		if f == Rest {
			steps[i] = Silence[float64]()
			continue
		}
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			steps[i] = Pure(v)
			continue
		}
		v, err := NoteNumber(f)
		if err != nil {
			return Pattern[float64]{}, fmt.Errorf("step %d: %w", i, err)
		}
		steps[i] = Pure(v)
	}
	return Sequence(steps...), nil
}

// Numbers reads space separated numbers, "~" is a rest.
func Numbers(s string) (Pattern[float64], error) {
	fields := strings.Fields(s)
	steps := make([]Pattern[float64], len(fields))
	for i, f := range fields {
		if f == Rest {
			steps[i] = Silence[float64]()
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Pattern[float64]{}, fmt.Errorf("step %d: %w", i, err)
		}
		steps[i] = Pure(v)
	}
	return Sequence(steps...), nil
}

// scales are semitone offsets from the tonic within one octave.
var scales = map[string][]int{
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"ionian":           {0, 2, 4, 5, 7, 9, 11},
	"minor":            {0, 2, 3, 5, 7, 8, 10},
	"aeolian":          {0, 2, 3, 5, 7, 8, 10},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"locrian":          {0, 1, 3, 5, 6, 8, 10},
	"harmonic minor":   {0, 2, 3, 5, 7, 8, 11},
	"melodic minor":    {0, 2, 3, 5, 7, 9, 11},
	"major pentatonic": {0, 2, 4, 7, 9},
	"pentatonic":       {0, 2, 4, 7, 9},
	"minor pentatonic": {0, 3, 5, 7, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"whole tone":       {0, 2, 4, 6, 8, 10},
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// Scale maps scale degrees onto note numbers. name is "major",
// "C:major" or "a2:minor pentatonic"; the tonic defaults to c3.
// Degrees past the scale length climb into the next octave, negative
// degrees descend, fractional degrees are floored.
func Scale(name string, degrees Pattern[float64]) (Pattern[float64], error) {
	tonic := float64(pitchClass['c'] + (DefaultOctave+1)*12)
	mode := name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		t, err := NoteNumber(name[:i])
		if err != nil {
			return Pattern[float64]{}, err
		}
		tonic, mode = t, name[i+1:]
	}

	steps, ok := scales[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		return Pattern[float64]{}, &UnknownReferenceError{Kind: "scale", Name: mode}
	}

	size := len(steps)
	return Fmap(degrees, func(d float64) float64 {
		deg := int(math.Floor(d))
		octave := floorDiv(deg, size)
		return tonic + float64(octave*12+steps[deg-octave*size])
	}), nil
}

// chordQualities are intervals above the root, spelled the way chord
// symbols are written: "", "m", "7", "^7", "m7b5" ...
var chordQualities = map[string][]int{
	"":     {0, 4, 7},
	"M":    {0, 4, 7},
	"maj":  {0, 4, 7},
	"m":    {0, 3, 7},
	"min":  {0, 3, 7},
	"-":    {0, 3, 7},
	"dim":  {0, 3, 6},
	"o":    {0, 3, 6},
	"aug":  {0, 4, 8},
	"+":    {0, 4, 8},
	"^7":   {0, 4, 7, 11},
	"maj7": {0, 4, 7, 11},
	"M7":   {0, 4, 7, 11},
	"m7":   {0, 3, 7, 10},
	"-7":   {0, 3, 7, 10},
	"7":    {0, 4, 7, 10},
	"m7b5": {0, 3, 6, 10},
	"dim7": {0, 3, 6, 9},
	"o7":   {0, 3, 6, 9},
	"^9":   {0, 4, 7, 11, 14},
	"maj9": {0, 4, 7, 11, 14},
	"m9":   {0, 3, 7, 10, 14},
	"9":    {0, 4, 7, 10, 14},
	"7b9":  {0, 4, 7, 10, 13},
	"7#9":  {0, 4, 7, 10, 15},
	"add9": {0, 4, 7, 14},
	"sus2": {0, 2, 7},
	"sus4": {0, 5, 7},
	"6":    {0, 4, 7, 9},
	"m6":   {0, 3, 7, 9},
}

// ChordNotes spells one chord symbol ("Am", "G7", "Bb^7") as note numbers
// with the root in DefaultOctave.
func ChordNotes(symbol string) ([]float64, error) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return nil, &UnknownReferenceError{Kind: "chord", Name: symbol}
	}
	pc, ok := pitchClass[strings.ToLower(s)[0]]
	if !ok {
		return nil, &UnknownReferenceError{Kind: "chord", Name: symbol}
	}

	// only '#' and 'b' are accidentals here, "s" would eat "sus"
	i := 1
	for ; i < len(s) && (s[i] == '#' || s[i] == 'b'); i++ {
		if s[i] == '#' {
			pc++
		} else {
			pc--
		}
	}

	intervals, ok := chordQualities[s[i:]]
	if !ok {
		return nil, &UnknownReferenceError{Kind: "chord", Name: symbol}
	}

	root := (DefaultOctave+1)*12 + pc
	notes := make([]float64, len(intervals))
	for j, iv := range intervals {
		notes[j] = float64(root + iv)
	}
	return notes, nil
}

// Chord is a sequence of chord symbols, each step sounding all of its
// notes together: Chord("Am C G F").
func Chord(symbols string) (Pattern[float64], error) {
	fields := strings.Fields(symbols)
	steps := make([]Pattern[float64], len(fields))
	for i, f := range fields {
		if f == Rest {
			steps[i] = Silence[float64]()
			continue
		}
		notes, err := ChordNotes(f)
		if err != nil {
			return Pattern[float64]{}, fmt.Errorf("step %d: %w", i, err)
		}
		voices := make([]Pattern[float64], len(notes))
		for j, n := range notes {
			voices[j] = Pure(n)
		}
		steps[i] = Stack(voices...)
	}
	return Sequence(steps...), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
