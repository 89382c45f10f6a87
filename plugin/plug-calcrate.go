package plugin

/*
	TriggerRate

	Counts triggers as they pass and reports triggers per second,
	refreshed once per second of onset time.

	~~~ Plugin Reference Implementation ~~~
*/

import (
	"sync"
	"time"

	Mt "github.com/maroda/madrigal/types"
)

type TriggerRatePlugin struct {
	MU        sync.Mutex
	Count     int64
	PrevCount int64
	PrevTime  time.Time
	rate      int64
}

// Transform is the main wrapper for the interface.
// The trigger itself is never changed.
func (p *TriggerRatePlugin) Transform(trig *Mt.Trigger) error {
	p.MU.Lock()
	defer p.MU.Unlock()

	p.Count++

	// No rate, first time reading
	if p.PrevTime.IsZero() {
		p.PrevCount = p.Count
		p.PrevTime = trig.Onset
		return nil
	}

	if trig.Onset.Sub(p.PrevTime) >= time.Second {
		p.rate = CalcRate(p.Count, p.PrevCount, trig.Onset, p.PrevTime)
		p.PrevCount = p.Count
		p.PrevTime = trig.Onset
	}
	return nil
}

// Rate is the latest triggers per second
func (p *TriggerRatePlugin) Rate() int64 {
	p.MU.Lock()
	defer p.MU.Unlock()
	return p.rate
}

// CalcRate is a generic rate calculator that
// receives two sequential counts and their timestamps
// and returns a single integer as the rate (per second)
func CalcRate(curr, prev int64, currtime, prevtime time.Time) int64 {
	delta := curr - prev
	timeDelta := currtime.Sub(prevtime).Seconds()
	if timeDelta <= 0 {
		return 0
	}

	// Handle counter reset (to 0)
	if delta < 0 {
		delta = curr
	}

	return int64(float64(delta) / timeDelta)
}

func (p *TriggerRatePlugin) Type() string { return "trigger_rate" }
