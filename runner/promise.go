package runner

import "sync"

// Promise is a single-assignment cell: set exactly once, readable by any
// number of waiters. OnUpdate hooks use one to wake outside observers
// when a condition of interest appears in the event stream, without the
// hook ever blocking.
type Promise struct {
	once sync.Once
	ch   chan struct{}
	val  any
}

// NewPromise creates an unset Promise.
func NewPromise() *Promise {
	return &Promise{ch: make(chan struct{})}
}

// Deliver sets the value. Only the first call wins; it reports whether
// this call was the one that set it. Deliver never blocks.
func (p *Promise) Deliver(v any) bool {
	won := false
	p.once.Do(func() {
		p.val = v
		close(p.ch)
		won = true
	})
	return won
}

// Await blocks until the value is delivered, then returns it. Safe to
// call from any number of goroutines.
func (p *Promise) Await() any {
	<-p.ch
	return p.val
}

// TryGet returns the value without blocking, with ok reporting whether it
// has been delivered yet.
func (p *Promise) TryGet() (any, bool) {
	select {
	case <-p.ch:
		return p.val, true
	default:
		return nil, false
	}
}
