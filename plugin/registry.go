package plugin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

var (
	ErrUnknownOutput      = errors.New("unknown output")
	ErrUnknownTransformer = errors.New("unknown transformer")
)

// OutputConfig carries everything any output factory might need.
// Factories ignore the fields that do not apply to them.
type OutputConfig struct {
	BadgerPath  string    // on-disk journal location, empty for in-memory
	BatchSize   int       // journal write batch
	MIDIPort    int       // MIDI out port index
	MIDIChannel uint8     // MIDI channel, 0-15
	Writer      io.Writer // log output destination, stderr when nil
}

// Outputs is a global map of OutputAdapter factories.
var Outputs = map[string]func(OutputConfig) (OutputAdapter, error){
	"log": func(c OutputConfig) (OutputAdapter, error) {
		w := c.Writer
		if w == nil {
			w = os.Stderr
		}
		return NewLogOutput(w), nil
	},
	"badger": func(c OutputConfig) (OutputAdapter, error) {
		batch := c.BatchSize
		if batch < 1 {
			batch = 64
		}
		return NewBadgerOutput(c.BadgerPath, batch)
	},
	"midi": func(c OutputConfig) (OutputAdapter, error) {
		return NewMIDIOutput(c.MIDIPort, c.MIDIChannel)
	},
}

// Transformers is a global map of TriggerTransformer plugins.
var Transformers = map[string]func() TriggerTransformer{
	"trigger_rate": func() TriggerTransformer {
		return &TriggerRatePlugin{}
	},
	"midi_note": func() TriggerTransformer {
		return &MIDINotePlugin{}
	},
}

func OutputLookup(name string, c OutputConfig) (OutputAdapter, error) {
	factory, ok := Outputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutput, name)
	}
	return factory(c)
}

func TransformerLookup(name string) (TriggerTransformer, error) {
	factory, ok := Transformers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransformer, name)
	}
	return factory(), nil
}

// OutputNames lists the registered outputs, sorted.
func OutputNames() []string {
	names := make([]string, 0, len(Outputs))
	for n := range Outputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
