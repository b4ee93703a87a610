package mock

import "sync"

// Registry tracks every mock created during one run so run-wide operations
// (clear all, reset all, restore all) have a single place to act.
// A fresh registry is constructed per run; nothing leaks across runs.
type Registry struct {
	mu      sync.Mutex
	mocks   []*Fn
	modules map[string]*Module
}

// NewRegistry creates an empty run-scoped registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// NewFn creates and tracks a mock with an optional default implementation.
func (r *Registry) NewFn(defaultImpl Implementation) *Fn {
	fn := NewFn(defaultImpl)
	r.track(fn)
	return fn
}

// Spy wraps object[member] in a tracked mock. See Spy.
func (r *Registry) Spy(object map[string]any, member string) (*Fn, error) {
	fn, err := Spy(object, member)
	if err != nil {
		return nil, err
	}
	r.track(fn)
	return fn, nil
}

func (r *Registry) track(fn *Fn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mocks = append(r.mocks, fn)
}

// All returns the tracked mocks in creation order.
func (r *Registry) All() []*Fn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Fn, len(r.mocks))
	copy(out, r.mocks)
	return out
}

// ClearAll empties the logs of every tracked mock.
func (r *Registry) ClearAll() {
	for _, fn := range r.All() {
		fn.MockClear()
	}
}

// ResetAll clears logs and configured implementations of every tracked mock.
func (r *Registry) ResetAll() {
	for _, fn := range r.All() {
		fn.MockReset()
	}
}

// RestoreAll reinstates originals for every tracked spy.
func (r *Registry) RestoreAll() {
	for _, fn := range r.All() {
		fn.Restore()
	}
}
