package madrigal_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	Mpat "github.com/maroda/madrigal/pattern"
	Mp "github.com/maroda/madrigal/plugin"
	Ms "github.com/maroda/madrigal/server"
	Mt "github.com/maroda/madrigal/types"
)

func TestNewEngine(t *testing.T) {
	t.Run("Defaults to the log output", func(t *testing.T) {
		e, err := Ms.NewEngine(nil, Ms.EngineOptions{LogWriter: &syncBuffer{}})
		assertError(t, err, nil)
		defer e.Close()

		// log plus the activity timeline
		assertInt(t, len(e.Output.Outputs), 2)
		assertString(t, e.Output.Outputs[0].Type(), "Log")
		assertString(t, e.State().CPS, "1/2")
		if e.Rate == nil {
			t.Errorf("engine should always measure the trigger rate")
		}
	})

	t.Run("Opens configured outputs and transformers", func(t *testing.T) {
		c := &Ms.ConfigFile{
			Outputs:      []string{"log", "badger"},
			Transformers: []string{"midi_note", "trigger_rate"},
			CPS:          "2",
		}
		e, err := Ms.NewEngine(c, Ms.EngineOptions{LogWriter: &syncBuffer{}, Outputs: []Mp.OutputAdapter{&recordingOutput{}}})
		assertError(t, err, nil)
		defer e.Close()

		assertInt(t, len(e.Output.Outputs), 4)
		assertString(t, e.Output.Outputs[1].Type(), "BadgerDB")
		assertString(t, e.Output.Outputs[2].Type(), "Recording")
		assertInt(t, len(e.Transformers), 2)
		assertString(t, e.Transformers[0].Type(), "midi_note")
		assertString(t, e.State().CPS, "2")
	})

	t.Run("Errors on an unknown output", func(t *testing.T) {
		_, err := Ms.NewEngine(&Ms.ConfigFile{Outputs: []string{"log", "speaker"}}, Ms.EngineOptions{LogWriter: &syncBuffer{}})
		assertError(t, err, Mp.ErrUnknownOutput)
	})

	t.Run("Errors on an unknown transformer", func(t *testing.T) {
		_, err := Ms.NewEngine(&Ms.ConfigFile{Transformers: []string{"reverb"}}, Ms.EngineOptions{LogWriter: &syncBuffer{}})
		assertError(t, err, Mp.ErrUnknownTransformer)
	})

	t.Run("Errors on a bad tempo", func(t *testing.T) {
		_, err := Ms.NewEngine(&Ms.ConfigFile{CPS: "0"}, Ms.EngineOptions{})
		assertError(t, err, Ms.ErrInvalidCPS)
	})

	t.Run("Loads the sample bank", func(t *testing.T) {
		server := makeMockWebServBody(0, `{"bd": ["bd/0.wav"], "hh": "hh.wav"}`)
		defer server.Close()

		e, err := Ms.NewEngine(&Ms.ConfigFile{Samples: []string{server.URL + "/strudel.json"}}, Ms.EngineOptions{LogWriter: &syncBuffer{}})
		assertError(t, err, nil)
		defer e.Close()

		assertInt(t, len(e.Samples.Names()), 2)
	})

	t.Run("Errors when the sample bank is unreachable", func(t *testing.T) {
		server := makeMockWebServBody(0, "")
		server.Close()

		_, err := Ms.NewEngine(&Ms.ConfigFile{Samples: []string{server.URL}}, Ms.EngineOptions{LogWriter: &syncBuffer{}})
		assertGotError(t, err)
	})
}

func TestEngine_Play(t *testing.T) {
	logs := &syncBuffer{}
	rec := &recordingOutput{}
	e, err := Ms.NewEngine(&Ms.ConfigFile{
		CPS:             "8",
		TickMillis:      5,
		LookaheadMillis: 10,
		Transformers:    []string{"midi_note"},
	}, Ms.EngineOptions{LogWriter: logs, Outputs: []Mp.OutputAdapter{rec}})
	assertError(t, err, nil)

	assertError(t, e.Play(Mpat.S("bd sd")), nil)
	waitFor(t, 2*time.Second, func() bool { return rec.Len() >= 2 })

	t.Run("Playing again swaps the pattern", func(t *testing.T) {
		assertError(t, e.Play(Mpat.S("cp")), nil)
		if e.State().State != Mt.Running {
			t.Errorf("transport should still be running")
		}
	})

	t.Run("Every output hears the triggers", func(t *testing.T) {
		assertStringContains(t, logs.String(), "s=bd")
		assertStringContains(t, logs.String(), "midinote=36")
		if e.Activity.Count("bd") < 1 {
			t.Errorf("activity missed the triggers")
		}
	})

	t.Run("Transport commands pass through", func(t *testing.T) {
		assertError(t, e.Pause(), nil)
		assertError(t, e.Resume(), nil)
		assertError(t, e.Stop(), nil)
		assertError(t, e.Stop(), Ms.ErrNotRunning)
		if e.Fired() < 2 {
			t.Errorf("expected at least 2 fired, got %d", e.Fired())
		}
	})

	t.Run("Close shuts the scheduler", func(t *testing.T) {
		assertError(t, e.Close(), nil)
		assertError(t, e.Start(), Ms.ErrClosed)
	})
}

// syncBuffer is written from timer goroutines while tests read it
type syncBuffer struct {
	MU  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.MU.Lock()
	defer b.MU.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.MU.Lock()
	defer b.MU.Unlock()
	return b.buf.String()
}
