package plugin

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	Mt "github.com/maroda/madrigal/types"
)

// LogOutput writes one structured line per trigger.
// It is the output of last resort when nothing else is configured.
type LogOutput struct {
	Logger *slog.Logger
}

func NewLogOutput(w io.Writer) *LogOutput {
	return &LogOutput{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (lo *LogOutput) WriteTrigger(trig *Mt.Trigger) error {
	attrs := []any{
		slog.String("cycle", trig.Cycle),
		slog.Duration("duration", trig.Duration),
		slog.Uint64("epoch", trig.Epoch),
	}
	if trig.Late {
		attrs = append(attrs, slog.Bool("late", true))
	}
	keys := make([]string, 0, len(trig.Payload))
	for k := range trig.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, trig.Payload[k]))
	}
	lo.Logger.Info("Trigger", attrs...)
	return nil
}

func (lo *LogOutput) WriteBatch(trigs []*Mt.Trigger) error {
	for _, t := range trigs {
		lo.WriteTrigger(t)
	}
	return nil
}

func (lo *LogOutput) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	return nil, ErrNotQueryable
}

func (lo *LogOutput) Flush() error { return nil }
func (lo *LogOutput) Close() error { return nil }
func (lo *LogOutput) Type() string { return "Log" }

// Fanout hands every trigger to each of its outputs.
// One failing output does not stop the others.
type Fanout struct {
	Outputs []OutputAdapter
}

func NewFanout(outputs ...OutputAdapter) *Fanout {
	return &Fanout{Outputs: outputs}
}

func (f *Fanout) WriteTrigger(trig *Mt.Trigger) error {
	var errs []error
	for _, o := range f.Outputs {
		if err := o.WriteTrigger(trig); err != nil {
			slog.Error("Output failed to write trigger", slog.String("output", o.Type()), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WriteBatch(trigs []*Mt.Trigger) error {
	var errs []error
	for _, o := range f.Outputs {
		if err := o.WriteBatch(trigs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// QueryRange asks the first output that keeps history
func (f *Fanout) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	for _, o := range f.Outputs {
		trigs, err := o.QueryRange(start, end)
		if errors.Is(err, ErrNotQueryable) {
			continue
		}
		return trigs, err
	}
	return nil, ErrNotQueryable
}

func (f *Fanout) Flush() error {
	var errs []error
	for _, o := range f.Outputs {
		errs = append(errs, o.Flush())
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, o := range f.Outputs {
		errs = append(errs, o.Close())
	}
	return errors.Join(errs...)
}

func (f *Fanout) Type() string { return "Fanout" }
