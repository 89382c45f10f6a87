package madrigal

import (
	"sync"
	"time"
)

// DefaultRefresh is how often the activity timelines step and the screen redraws
const DefaultRefresh = 250 * time.Millisecond

type RefreshSupervisor struct {
	View     *View
	Ticker   *time.Ticker
	Interval time.Duration
	StopChan chan struct{}
	WG       sync.WaitGroup
}

// NewRefreshSupervisor is a wrapper around the View that manages the refresh goroutine
// They are strongly coupled, one knows about the other
func (v *View) NewRefreshSupervisor() *RefreshSupervisor {
	rs := &RefreshSupervisor{
		View:     v,
		Interval: DefaultRefresh,
	}
	v.Supervisor = rs
	return rs
}

// Start the RefreshSupervisor
func (r *RefreshSupervisor) Start() {
	if r.Interval <= 0 {
		r.Interval = DefaultRefresh
	}
	r.StopChan = make(chan struct{})
	r.Ticker = time.NewTicker(r.Interval)

	stop := r.StopChan
	ticker := r.Ticker
	r.WG.Add(1)
	go func() {
		defer r.WG.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.View.Refresh()
			case <-stop:
				return
			}
		}
	}()
}

// Stop the RefreshSupervisor
func (r *RefreshSupervisor) Stop() {
	if r.StopChan != nil {
		close(r.StopChan)
		r.WG.Wait()
		r.StopChan = nil
	}
}

// Restart the RefreshSupervisor
func (r *RefreshSupervisor) Restart() {
	r.Stop()
	r.Start()
}
