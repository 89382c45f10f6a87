package pattern

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/maroda/madrigal/cycle"
)

// ErrLengthMismatch is returned by Zip when parallel columns differ in length.
var ErrLengthMismatch = errors.New("parallel value lists differ in length")

// UnknownReferenceError is a name that is not present in a registry:
// a scale, a chord quality, a control parameter or a sample.
type UnknownReferenceError struct {
	Kind string
	Name string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// LayerError is a stack layer that failed while being queried.
// The layer contributes nothing for that query, its siblings still play.
type LayerError struct {
	Layer int
	Span  cycle.TimeSpan
	Cause error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("stack layer %d failed for %s: %v", e.Layer, e.Span, e.Cause)
}

func (e *LayerError) Unwrap() error { return e.Cause }

var layerErrorHandler atomic.Pointer[func(error)]

// OnLayerError installs fn to receive isolated layer failures in addition to
// the error log. Passing nil removes it.
func OnLayerError(fn func(error)) {
	if fn == nil {
		layerErrorHandler.Store(nil)
		return
	}
	layerErrorHandler.Store(&fn)
}

func reportLayerError(err *LayerError) {
	slog.Error("Pattern layer failed",
		slog.Int("layer", err.Layer),
		slog.String("span", err.Span.String()),
		slog.Any("error", err.Cause))
	if fn := layerErrorHandler.Load(); fn != nil {
		(*fn)(err)
	}
}

// recovered turns a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
