package madrigal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/maroda/madrigal/cycle"
	Mo "github.com/maroda/madrigal/obvy"
	Mpat "github.com/maroda/madrigal/pattern"
	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

// Madrigal is the transport surface the display and the HTTP API drive.
// *Engine implements it, tests use fakes.
type Madrigal interface {
	Start() error
	Pause() error
	Resume() error
	Stop() error
	SetCPS(cycle.Fraction) error
	State() Mt.Transport
	Fired() int64
}

// Engine is one configured session:
// outputs, transformers, the sample bank and a scheduler wired together.
type Engine struct {
	Config       *ConfigFile
	Scheduler    *Scheduler
	Output       *Mp.Fanout
	Activity     *Activity
	Rate         *Mp.TriggerRatePlugin
	Samples      *Mp.SampleBank
	Transformers []Mp.TriggerTransformer
	Stats        *Mo.StatsInternal
}

// EngineOptions are the parts of an Engine that do not come from a file
type EngineOptions struct {
	LogWriter io.Writer          // where the log output writes, stderr when nil
	Outputs   []Mp.OutputAdapter // added to the configured outputs
	Stats     *Mo.StatsInternal
	OnError   func(error)
}

// NewEngine builds everything the config names and leaves the transport stopped.
// Outputs opened before a failure are closed again.
func NewEngine(c *ConfigFile, opts EngineOptions) (*Engine, error) {
	if c == nil {
		c = &ConfigFile{}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cps, err := c.Tempo()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Config:   c,
		Activity: NewActivity(DefaultActivityWindow),
		Stats:    opts.Stats,
	}
	if e.Stats == nil {
		e.Stats = Mo.NewStatsInternal()
	}

	outputs, err := openOutputs(c, opts.LogWriter)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, opts.Outputs...)
	outputs = append(outputs, e.Activity)
	e.Output = Mp.NewFanout(outputs...)

	e.Transformers, e.Rate, err = lookupTransformers(c.Transformers)
	if err != nil {
		e.Output.Close()
		return nil, err
	}

	if len(c.Samples) > 0 {
		e.Samples, err = LoadSampleBank(c.Samples)
		if err != nil {
			e.Output.Close()
			return nil, err
		}
	}

	e.Scheduler = NewScheduler(SchedulerConfig{
		CPS:          cps,
		Tick:         c.Tick(),
		Lookahead:    c.Lookahead(),
		Output:       e.Output,
		Samples:      e.Samples,
		Transformers: e.Transformers,
		Stats:        e.Stats,
		OnError:      opts.OnError,
	})

	slog.Info("Engine ready",
		slog.String("cps", cps.String()),
		slog.Int("outputs", len(e.Output.Outputs)),
		slog.Int("transformers", len(e.Transformers)))
	return e, nil
}

func openOutputs(c *ConfigFile, w io.Writer) ([]Mp.OutputAdapter, error) {
	names := c.Outputs
	if len(names) == 0 {
		names = []string{"log"}
	}
	oc := Mp.OutputConfig{
		BadgerPath:  c.BadgerPath,
		BatchSize:   c.BatchSize,
		MIDIPort:    c.MIDIPort,
		MIDIChannel: c.MIDIChannel,
		Writer:      w,
	}

	var outputs []Mp.OutputAdapter
	for _, name := range names {
		o, err := Mp.OutputLookup(name, oc)
		if err != nil {
			slog.Error("Could not open output", slog.String("output", name), slog.Any("Error", err))
			closeErr := Mp.NewFanout(outputs...).Close()
			return nil, errors.Join(fmt.Errorf("output %s: %w", name, err), closeErr)
		}
		outputs = append(outputs, o)
	}
	return outputs, nil
}

// lookupTransformers always ends up with a trigger_rate plugin,
// the display reads its rate
func lookupTransformers(names []string) ([]Mp.TriggerTransformer, *Mp.TriggerRatePlugin, error) {
	if !slices.Contains(names, "trigger_rate") {
		names = append(slices.Clone(names), "trigger_rate")
	}

	var rate *Mp.TriggerRatePlugin
	transformers := make([]Mp.TriggerTransformer, 0, len(names))
	for _, name := range names {
		tr, err := Mp.TransformerLookup(name)
		if err != nil {
			return nil, nil, err
		}
		if r, ok := tr.(*Mp.TriggerRatePlugin); ok {
			rate = r
		}
		transformers = append(transformers, tr)
	}
	return transformers, rate, nil
}

// Play swaps in the pattern and starts the transport if it is stopped
func (e *Engine) Play(p Mpat.ControlPattern) error {
	if err := e.Scheduler.SetPattern(p); err != nil {
		return err
	}
	err := e.Scheduler.Start()
	if errors.Is(err, ErrAlreadyRunning) {
		return nil
	}
	return err
}

func (e *Engine) Start() error                    { return e.Scheduler.Start() }
func (e *Engine) Pause() error                    { return e.Scheduler.Pause() }
func (e *Engine) Resume() error                   { return e.Scheduler.Resume() }
func (e *Engine) Stop() error                     { return e.Scheduler.Stop() }
func (e *Engine) SetCPS(cps cycle.Fraction) error { return e.Scheduler.SetCPS(cps) }
func (e *Engine) State() Mt.Transport             { return e.Scheduler.State() }
func (e *Engine) Fired() int64                    { return e.Scheduler.Fired() }

// TriggerRate is triggers per second, as last measured
func (e *Engine) TriggerRate() int64 {
	if e.Rate == nil {
		return 0
	}
	return e.Rate.Rate()
}

// Close stops the scheduler, then flushes and closes every output
func (e *Engine) Close() error {
	e.Scheduler.Close()
	return errors.Join(e.Output.Flush(), e.Output.Close())
}
