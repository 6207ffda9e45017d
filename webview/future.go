package webview

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrFutureCancelled is returned by Get when a future was cancelled
// before a result arrived
var ErrFutureCancelled = errors.New("future value cancelled")

// FutureJSValue is an IOU for a script execution result that is not
// available yet. The engine resolves it exactly once, with either a
// value or an error. A future issued by a view becomes cancelled if
// that view crashes or is destroyed first.
type FutureJSValue struct {
	once  sync.Once
	done  chan struct{}
	value JSValue
	err   error
}

// NewFutureJSValue returns an unresolved future. Engine implementations
// create one per evaluation and hand it to the caller immediately.
func NewFutureJSValue() *FutureJSValue {
	return &FutureJSValue{done: make(chan struct{})}
}

// Complete resolves the future with a value. Only the first call to
// Complete, Fail or Cancel takes effect.
func (f *FutureJSValue) Complete(value JSValue) {
	f.once.Do(func() {
		f.value = value
		close(f.done)
	})
}

// Fail resolves the future with an error
func (f *FutureJSValue) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Cancel resolves the future with ErrFutureCancelled
func (f *FutureJSValue) Cancel() {
	f.Fail(ErrFutureCancelled)
}

// Ready returns true once the future holds a result or an error
func (f *FutureJSValue) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the future resolves or ctx is done and returns the
// script result
func (f *FutureJSValue) Get(ctx context.Context) (JSValue, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return NullValue(), ctx.Err()
	}
}
