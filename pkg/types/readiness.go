package types

import (
	"context"
	"sync"
)

// Readiness is the awaitable handle the fetch layer resolves once a
// package's content sits in the store. The fresh flag reports whether
// the content was placed there by this run (true) or found already
// present (false); the linker uses it to decide whether a relink is
// needed.
type Readiness struct {
	once  sync.Once
	done  chan struct{}
	fresh bool
	err   error
}

// NewReadiness returns an unresolved handle. Resolve must be called
// exactly once by the producer; further calls are no-ops.
func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// ReadyNow returns an already-resolved handle, used for packages whose
// content was in the store before this run started.
func ReadyNow(fresh bool) *Readiness {
	r := NewReadiness()
	r.Resolve(fresh, nil)
	return r
}

// Resolve marks the content as ready (or failed). Safe to call from a
// different goroutine than the waiters.
func (r *Readiness) Resolve(fresh bool, err error) {
	r.once.Do(func() {
		r.fresh = fresh
		r.err = err
		close(r.done)
	})
}

// Wait blocks until the handle is resolved or the context is done.
func (r *Readiness) Wait(ctx context.Context) (fresh bool, err error) {
	select {
	case <-r.done:
		return r.fresh, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
