package madrigal

import (
	"errors"
	"fmt"
	"time"

	"github.com/maroda/madrigal/cycle"
)

// Transport errors. The command that returns one changed nothing.
var (
	ErrAlreadyRunning = errors.New("transport already started")
	ErrNotRunning     = errors.New("transport not running")
	ErrNotPaused      = errors.New("transport not paused")
	ErrInvalidCPS     = errors.New("cycles per second must be positive")
	ErrClosed         = errors.New("scheduler closed")
)

// SchedulingOverrunError is reported when one tick took longer
// than the tick interval. The session keeps going, the next
// window simply starts where this one ended.
type SchedulingOverrunError struct {
	Elapsed  time.Duration
	Interval time.Duration
	Window   cycle.TimeSpan
}

func (e *SchedulingOverrunError) Error() string {
	return fmt.Sprintf("tick over %s took %s, interval is %s", e.Window, e.Elapsed, e.Interval)
}
