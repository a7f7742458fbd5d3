package classifier

import (
	"context"
	"image"
	"sync"
)

// Bridge adapts a callback-based Engine into the awaitable Port contract.
// A single-fire latch guarantees the awaited call resolves at most once even
// if the engine invokes its callback twice, and an abandoned caller (context
// cancelled) leaves the in-flight callback writing into a buffered channel
// rather than blocking forever.
type Bridge struct {
	engine Engine
}

// NewBridge creates a Bridge around the given engine.
func NewBridge(engine Engine) *Bridge {
	return &Bridge{engine: engine}
}

type outcome struct {
	result Result
	err    error
}

// Classify submits the image to the engine and waits for its callback.
func (b *Bridge) Classify(ctx context.Context, img image.Image) (Result, error) {
	// Buffered so a late or duplicate callback never blocks the engine.
	done := make(chan outcome, 1)

	var mu sync.Mutex
	fired := false

	b.engine.Submit(img, func(label string, confidence float64, err error) {
		mu.Lock()
		defer mu.Unlock()
		if fired {
			return
		}
		fired = true

		if err != nil {
			done <- outcome{err: err}
			return
		}
		done <- outcome{result: Result{Label: label, Confidence: confidence}}
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out := <-done:
		return out.result, out.err
	}
}
