package madrigal

import (
	"time"

	Mpat "github.com/maroda/madrigal/pattern"
	Mt "github.com/maroda/madrigal/types"
)

// NewTrigger builds the Trigger for one onset event.
// Each Trigger gets its own payload map, outputs and
// transformers may change it freely.
func NewTrigger(session string, epoch uint64, ev Mpat.Event[Mt.Controls], onset time.Time, offset, duration time.Duration) *Mt.Trigger {
	position := ev.Part.Begin
	if ev.Whole != nil {
		position = ev.Whole.Begin
	}
	return &Mt.Trigger{
		SessionID: session,
		Epoch:     epoch,
		Cycle:     position.String(),
		Onset:     onset,
		Offset:    offset,
		Duration:  duration,
		Payload:   Mpat.Payload(ev.Value),
	}
}
