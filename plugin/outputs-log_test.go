package plugin_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	out := Mp.NewLogOutput(&buf)

	trig := &Mt.Trigger{
		Cycle:   "3/4",
		Onset:   time.Now(),
		Late:    true,
		Payload: map[string]any{"s": "cp", "delay": 0.5},
	}
	assertError(t, out.WriteTrigger(trig), nil)

	line := buf.String()
	assertStringContains(t, line, "msg=Trigger")
	assertStringContains(t, line, "cycle=3/4")
	assertStringContains(t, line, "late=true")
	assertStringContains(t, line, "delay=0.5 s=cp")

	_, err := out.QueryRange(time.Now(), time.Now())
	assertError(t, err, Mp.ErrNotQueryable)
}

// failingOutput refuses every trigger
type failingOutput struct{ Mp.LogOutput }

var errRefused = errors.New("refused")

func (f *failingOutput) WriteTrigger(*Mt.Trigger) error { return errRefused }
func (f *failingOutput) Type() string                  { return "failing" }

func TestFanout(t *testing.T) {
	var buf bytes.Buffer
	journal, err := Mp.NewBadgerOutput("", 1)
	assertError(t, err, nil)

	fan := Mp.NewFanout(&failingOutput{}, Mp.NewLogOutput(&buf), journal)
	defer fan.Close()

	now := time.Now()
	err = fan.WriteTrigger(&Mt.Trigger{Onset: now, Payload: map[string]any{"s": "bd"}})

	t.Run("Reports the failing output", func(t *testing.T) {
		assertError(t, err, errRefused)
	})

	t.Run("Other outputs still receive the trigger", func(t *testing.T) {
		assertStringContains(t, buf.String(), "s=bd")
		got, err := fan.QueryRange(now.Add(-time.Second), now.Add(time.Second))
		assertError(t, err, nil)
		assertInt(t, len(got), 1)
	})
}
