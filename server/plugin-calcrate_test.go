package madrigal_test

/*
	Transformer plugin tests that run through the scheduler.
	Plugin internals are tested in the plugin package.
*/

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maroda/madrigal/cycle"
	Mpat "github.com/maroda/madrigal/pattern"
	Mp "github.com/maroda/madrigal/plugin"
	Ms "github.com/maroda/madrigal/server"
	Mt "github.com/maroda/madrigal/types"
)

func TestScheduler_TriggerRatePlugin(t *testing.T) {
	t.Run("Returns correct rate from plugin", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping rate test in short mode")
		}
		rate := &Mp.TriggerRatePlugin{}
		s := makeScheduler(t, Ms.SchedulerConfig{
			CPS:          cycle.Int(4),
			Tick:         5 * time.Millisecond,
			Lookahead:    10 * time.Millisecond,
			Output:       &recordingOutput{},
			Transformers: []Mp.TriggerTransformer{rate},
		}, Mpat.S("hh hh hh hh"))

		assertError(t, s.Start(), nil)
		waitFor(t, 3*time.Second, func() bool { return rate.Rate() > 0 })
		assertError(t, s.Stop(), nil)

		// four steps a cycle at four cycles a second
		if got := rate.Rate(); got < 14 || got > 18 {
			t.Errorf("Expected rate around 16/sec, got %d", got)
		}
	})

	t.Run("Returns transformer error", func(t *testing.T) {
		rec := &recordingOutput{}
		errs := &errorLog{}
		mock := &MockErrorTransformer{}
		s := makeScheduler(t, Ms.SchedulerConfig{
			CPS:          cycle.Int(8),
			Tick:         5 * time.Millisecond,
			Lookahead:    10 * time.Millisecond,
			Output:       rec,
			Transformers: []Mp.TriggerTransformer{mock, &Mp.MIDINotePlugin{}},
			OnError:      errs.Add,
		}, Mpat.S("sd"))

		assertError(t, s.Start(), nil)
		waitFor(t, 2*time.Second, func() bool { return rec.Len() >= 1 })
		assertError(t, s.Stop(), nil)

		found := false
		for _, err := range errs.All() {
			if errors.Is(err, errMockTransform) {
				assertStringContains(t, err.Error(), "mock_error")
				found = true
			}
		}
		if !found {
			t.Errorf("transformer error was not reported")
		}

		// the failing transformer does not stop the ones after it
		assertInt(t, int(rec.Triggers()[0].Payload["midinote"].(float64)), 38)
		if mock.Calls() < 1 {
			t.Errorf("transformer was never called")
		}
	})
}

var errMockTransform = errors.New("mock transformer error")

// MockErrorTransformer always returns an error //
type MockErrorTransformer struct {
	MU    sync.Mutex
	calls int
}

func (m *MockErrorTransformer) Transform(trig *Mt.Trigger) error {
	m.MU.Lock()
	defer m.MU.Unlock()
	m.calls++
	return errMockTransform
}

func (m *MockErrorTransformer) Type() string { return "mock_error" }

func (m *MockErrorTransformer) Calls() int {
	m.MU.Lock()
	defer m.MU.Unlock()
	return m.calls
}
