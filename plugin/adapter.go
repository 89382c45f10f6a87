package plugin

/*

	The Adapter sits aside /madrigal/
	Contains core interfaces for Plugin

*/

import (
	"errors"
	"time"

	Mt "github.com/maroda/madrigal/types"
)

// ErrNotQueryable is returned by outputs that keep no history.
var ErrNotQueryable = errors.New("output does not keep trigger history")

// TriggerTransformer rewrites or observes a Trigger
// after scheduling and before any output sees it.
// Transformers run on the dispatch goroutine of the trigger,
// so any state they keep must be locked.
type TriggerTransformer interface {
	Transform(trig *Mt.Trigger) error // May modify the Payload in place
	Type() string                     // Unique ID for the transformer
}

// OutputAdapter can be used to define a place for the triggers to go,
// trigger-by-trigger or in batches if supported by the output type.
type OutputAdapter interface {
	WriteTrigger(trig *Mt.Trigger) error                     // Write a single trigger at its onset
	WriteBatch(trigs []*Mt.Trigger) error                    // Write batches of triggers
	QueryRange(start, end time.Time) ([]*Mt.Trigger, error) // Time range query tool
	Flush() error                                            // Flush any buffered data
	Close() error                                            // Close the adapter and release resources
	Type() string                                            // ID for output
}
