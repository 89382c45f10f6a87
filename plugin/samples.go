package plugin

/*
	SampleBank

	The sample registry, read from a strudel.json map:

	{
	  "_base": "https://example.org/samples/",
	  "bd": ["bd/1.wav", "bd/2.wav"],
	  "cocaina": "cocaina.wav",
	  "piano": {"a0": "piano/a0.mp3", "c1": "piano/c1.mp3"}
	}

	Madrigal never loads audio, it only needs to know
	which names exist and where they point.
*/

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	Mpat "github.com/maroda/madrigal/pattern"
)

// BuiltinSounds are played by the synth, not from samples
var BuiltinSounds = map[string]bool{
	"sine": true, "sawtooth": true, "saw": true, "square": true,
	"triangle": true, "tri": true, "supersaw": true,
	"white": true, "pink": true, "brown": true,
}

// soundfontPrefix marks General MIDI soundfont instruments
const soundfontPrefix = "gm_"

type SampleBank struct {
	MU      sync.RWMutex
	Sources []string
	Base    map[string]string // sound name to the base of the map it came from
	Sounds  map[string]any    // sound name to its decoded entry
}

func NewSampleBank() *SampleBank {
	return &SampleBank{
		Base:   make(map[string]string),
		Sounds: make(map[string]any),
	}
}

// ParseSampleBank reads one strudel.json map.
// source is where it came from, its directory is the base
// when the map carries no "_base".
func ParseSampleBank(data []byte, source string) (*SampleBank, error) {
	b := NewSampleBank()
	if err := b.Load(data, source); err != nil {
		return nil, err
	}
	return b, nil
}

// Load adds a strudel.json map to the bank,
// later maps replace sounds of the same name.
func (b *SampleBank) Load(data []byte, source string) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Error("Error unmarshalling sample map",
			slog.String("source", source),
			slog.Any("error", err))
		return fmt.Errorf("error unmarshalling sample map %s: %w", source, err)
	}

	base := baseOf(source)
	if v, ok := raw["_base"].(string); ok {
		base = v
	}

	b.MU.Lock()
	defer b.MU.Unlock()

	b.Sources = append(b.Sources, source)
	count := 0
	for name, entry := range raw {
		if strings.HasPrefix(name, "_") {
			continue
		}
		switch entry.(type) {
		case string, []any, map[string]any:
		default:
			slog.Warn("Skipping sample entry", slog.String("name", name), slog.String("type", fmt.Sprintf("%T", entry)))
			continue
		}
		b.Sounds[name] = entry
		b.Base[name] = base
		count++
	}

	slog.Info("Sample map loaded", slog.String("source", source), slog.Int("sounds", count))
	return nil
}

func baseOf(source string) string {
	if source == "" {
		return ""
	}
	return strings.TrimSuffix(source, path.Base(source))
}

// Has reports whether a trigger naming this sound can play
func (b *SampleBank) Has(name string) bool {
	if BuiltinSounds[name] || strings.HasPrefix(name, soundfontPrefix) {
		return true
	}
	b.MU.RLock()
	defer b.MU.RUnlock()
	_, ok := b.Sounds[name]
	return ok
}

// Check returns an UnknownReferenceError for sounds the bank does not hold
func (b *SampleBank) Check(name string) error {
	if b.Has(name) {
		return nil
	}
	return &Mpat.UnknownReferenceError{Kind: "sample", Name: name}
}

// Names lists the sounds, sorted
func (b *SampleBank) Names() []string {
	b.MU.RLock()
	defer b.MU.RUnlock()
	names := make([]string, 0, len(b.Sounds))
	for n := range b.Sounds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve finds the location of variant n of a sound.
// n wraps around the number of variants, as sample indexes do.
func (b *SampleBank) Resolve(name string, n int) (string, error) {
	b.MU.RLock()
	defer b.MU.RUnlock()

	entry, ok := b.Sounds[name]
	if !ok {
		return "", &Mpat.UnknownReferenceError{Kind: "sample", Name: name}
	}

	var file string
	switch v := entry.(type) {
	case string:
		file = v
	case []any:
		if len(v) == 0 {
			return "", fmt.Errorf("sound %s has no files", name)
		}
		value, err := ExtractValue(entry, strconv.Itoa(wrap(n, len(v))))
		if err != nil {
			return "", err
		}
		file = fmt.Sprint(value)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			return "", fmt.Errorf("sound %s has no files", name)
		}
		sort.Strings(keys)
		file = fmt.Sprint(v[keys[wrap(n, len(keys))]])
	}

	if strings.Contains(file, "://") {
		return file, nil
	}
	return b.Base[name] + file, nil
}

// Lookup walks a dotted path through the bank, e.g. "piano.a0" or "bd.1"
func (b *SampleBank) Lookup(key string) (string, error) {
	b.MU.RLock()
	defer b.MU.RUnlock()

	data := make(map[string]any, len(b.Sounds))
	for k, v := range b.Sounds {
		data[k] = v
	}
	v, err := ExtractValue(data, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("key %s is not a file, found %T", key, v)
	}
	return s, nil
}

func wrap(n, length int) int {
	return ((n % length) + length) % length
}

// ExtractValue walks decoded JSON by a dotted key,
// numeric parts index into arrays.
func ExtractValue(data any, key string) (any, error) {
	keys := strings.Split(key, ".")
	current := data

	for _, k := range keys {
		switch v := current.(type) {
		case map[string]any:
			var ok bool
			current, ok = v[k]
			if !ok {
				return nil, fmt.Errorf("key %s not found", k)
			}
		case []any:
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("array index %q is not a number", k)
			}
			if i < 0 || i >= len(v) {
				return nil, fmt.Errorf("array index %d out of range [0,%d)", i, len(v))
			}
			current = v[i]
		default:
			return nil, fmt.Errorf("cannot traverse into type %T at key %s", v, k)
		}
	}

	return current, nil
}
