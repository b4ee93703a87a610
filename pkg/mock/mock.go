// Package mock implements mock functions, spies, and module mocks.
//
// A Fn records every invocation (arguments and outcome) and resolves its
// behavior in priority order: the next queued one-shot implementation, then
// the persistent implementation, then the constructor-supplied default.
//
// All bookkeeping is mutex-guarded so mocks survive being called from a
// goroutine spawned by an async test body.
package mock

import (
	"sync"

	"github.com/specvital/harness/pkg/promise"
)

// Implementation is the callable shape a mock executes. A panic inside an
// implementation is recorded as a throw outcome and re-raised to the caller.
type Implementation func(args ...any) any

// Outcome classifies a single mock invocation result.
type Outcome string

// Invocation outcomes.
const (
	// OutcomeReturn indicates the implementation returned normally.
	OutcomeReturn Outcome = "return"
	// OutcomeThrow indicates the implementation panicked.
	OutcomeThrow Outcome = "throw"
)

// Result is one entry in a mock's result log.
type Result struct {
	// Outcome is how the invocation ended.
	Outcome Outcome
	// Value is the returned value, or the panic value for throws.
	Value any
}

// Fn is a callable mock function.
type Fn struct {
	mu          sync.Mutex
	calls       [][]any
	results     []Result
	onceQueue   []Implementation
	impl        Implementation
	defaultImpl Implementation
	restore     func()
}

// NewFn creates a mock with an optional default implementation.
// A nil default makes the mock return nil until configured.
func NewFn(defaultImpl Implementation) *Fn {
	return &Fn{defaultImpl: defaultImpl}
}

// Call invokes the mock. Exactly one call-log entry and one result-log
// entry are appended, in that order, before Call returns or re-panics.
func (f *Fn) Call(args ...any) any {
	f.mu.Lock()
	callArgs := make([]any, len(args))
	copy(callArgs, args)
	f.calls = append(f.calls, callArgs)
	impl := f.takeImplementationLocked()
	f.mu.Unlock()

	if impl == nil {
		f.record(Result{Outcome: OutcomeReturn, Value: nil})
		return nil
	}

	var value any
	panicked := true
	defer func() {
		if panicked {
			r := recover()
			f.record(Result{Outcome: OutcomeThrow, Value: r})
			panic(r)
		}
	}()
	value = impl(args...)
	panicked = false
	f.record(Result{Outcome: OutcomeReturn, Value: value})
	return value
}

// takeImplementationLocked resolves the effective implementation for one
// invocation, dequeuing a one-shot if present. Caller holds f.mu.
func (f *Fn) takeImplementationLocked() Implementation {
	if len(f.onceQueue) > 0 {
		impl := f.onceQueue[0]
		f.onceQueue = f.onceQueue[1:]
		return impl
	}
	if f.impl != nil {
		return f.impl
	}
	return f.defaultImpl
}

func (f *Fn) record(r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

// Calls returns a copy of the call log: one argument tuple per invocation.
func (f *Fn) Calls() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]any, len(f.calls))
	copy(out, f.calls)
	return out
}

// Results returns a copy of the result log.
func (f *Fn) Results() []Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Result, len(f.results))
	copy(out, f.results)
	return out
}

// CallCount returns the number of recorded invocations.
func (f *Fn) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastCall returns the most recent argument tuple, if any call was made.
func (f *Fn) LastCall() ([]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil, false
	}
	return f.calls[len(f.calls)-1], true
}

// NthCall returns the 1-based nth argument tuple.
func (f *Fn) NthCall(n int) ([]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 1 || n > len(f.calls) {
		return nil, false
	}
	return f.calls[n-1], true
}

// MockImplementation sets the persistent implementation.
func (f *Fn) MockImplementation(impl Implementation) *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impl = impl
	return f
}

// MockImplementationOnce enqueues a one-shot implementation, consumed FIFO
// ahead of the persistent implementation.
func (f *Fn) MockImplementationOnce(impl Implementation) *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onceQueue = append(f.onceQueue, impl)
	return f
}

// MockReturnValue makes every invocation return value.
func (f *Fn) MockReturnValue(value any) *Fn {
	return f.MockImplementation(func(...any) any { return value })
}

// MockReturnValueOnce makes the next unconsumed invocation return value.
func (f *Fn) MockReturnValueOnce(value any) *Fn {
	return f.MockImplementationOnce(func(...any) any { return value })
}

// MockResolvedValue makes every invocation return a resolved awaitable.
func (f *Fn) MockResolvedValue(value any) *Fn {
	return f.MockImplementation(func(...any) any { return promise.Resolved(value) })
}

// MockResolvedValueOnce makes the next unconsumed invocation return a
// resolved awaitable.
func (f *Fn) MockResolvedValueOnce(value any) *Fn {
	return f.MockImplementationOnce(func(...any) any { return promise.Resolved(value) })
}

// MockRejectedValue makes every invocation return a rejected awaitable.
func (f *Fn) MockRejectedValue(err error) *Fn {
	return f.MockImplementation(func(...any) any { return promise.Rejected(err) })
}

// MockRejectedValueOnce makes the next unconsumed invocation return a
// rejected awaitable.
func (f *Fn) MockRejectedValueOnce(err error) *Fn {
	return f.MockImplementationOnce(func(...any) any { return promise.Rejected(err) })
}

// MockClear empties the call and result logs. Configured implementations
// are preserved.
func (f *Fn) MockClear() *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.results = nil
	return f
}

// MockReset clears the logs and removes the persistent implementation and
// any queued one-shots. The constructor-supplied default survives.
func (f *Fn) MockReset() *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.results = nil
	f.onceQueue = nil
	f.impl = nil
	return f
}

// Restore reinstates the original function a spy replaced. It is a no-op
// for mocks created directly.
func (f *Fn) Restore() {
	f.mu.Lock()
	restore := f.restore
	f.mu.Unlock()
	if restore != nil {
		restore()
	}
}
