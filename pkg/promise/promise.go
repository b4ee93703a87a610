// Package promise provides a minimal awaitable value.
//
// Assertion namespaces that await a settlement (resolves/rejects) and mock
// implementations that produce deferred results both operate on the
// Awaitable interface; Promise is the canonical implementation.
package promise

import (
	"errors"
	"sync"
)

// ErrAlreadySettled is returned when settling a promise twice.
var ErrAlreadySettled = errors.New("promise: already settled")

// Awaitable is any value that can be awaited for a settlement.
// Await blocks until settled and returns the resolved value or the
// rejection error.
type Awaitable interface {
	Await() (any, error)
}

// Promise is a single-settlement deferred value. The zero value is not
// usable; construct with Deferred, Resolved, Rejected, or Go.
type Promise struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// Deferred creates an unsettled promise. Settle it with Resolve or Reject.
func Deferred() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolved creates a promise already settled with value.
func Resolved(value any) *Promise {
	p := Deferred()
	p.Resolve(value) //nolint:errcheck // fresh promise cannot be settled
	return p
}

// Rejected creates a promise already settled with err.
func Rejected(err error) *Promise {
	p := Deferred()
	p.Reject(err) //nolint:errcheck // fresh promise cannot be settled
	return p
}

// Go runs fn in a new goroutine and returns a promise settled with its
// outcome.
func Go(fn func() (any, error)) *Promise {
	p := Deferred()
	go func() {
		v, err := fn()
		if err != nil {
			p.Reject(err) //nolint:errcheck
			return
		}
		p.Resolve(v) //nolint:errcheck
	}()
	return p
}

// Resolve settles the promise with a value.
func (p *Promise) Resolve(value any) error {
	settled := false
	p.once.Do(func() {
		p.value = value
		close(p.done)
		settled = true
	})
	if !settled {
		return ErrAlreadySettled
	}
	return nil
}

// Reject settles the promise with an error.
func (p *Promise) Reject(err error) error {
	settled := false
	p.once.Do(func() {
		p.err = err
		close(p.done)
		settled = true
	})
	if !settled {
		return ErrAlreadySettled
	}
	return nil
}

// Await blocks until the promise settles.
func (p *Promise) Await() (any, error) {
	<-p.done
	return p.value, p.err
}
