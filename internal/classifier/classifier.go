package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Result is the raw outcome of one classification: the model's label
// (possibly namespaced, e.g. "n07697537 washing_machine") and a confidence
// score in [0,1].
type Result struct {
	Label      string
	Confidence float64
}

// ErrNoResult indicates the engine ran but produced nothing usable.
var ErrNoResult = errors.New("classifier: no result")

// BackendError wraps a failure of the underlying inference engine.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("classifier backend: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Port classifies images. Implementations must complete each call exactly
// once, with either a result or an error, and must never retry internally.
type Port interface {
	Classify(ctx context.Context, img image.Image) (Result, error)
}

// Engine is the raw inference backend. Submit delivers the outcome through
// the callback, possibly from another goroutine, with either a non-nil
// error or a label and confidence. A misbehaving engine may invoke the
// callback more than once; adapters must tolerate that.
type Engine interface {
	Submit(img image.Image, fn func(label string, confidence float64, err error))
}
