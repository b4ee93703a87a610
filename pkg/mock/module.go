package mock

import "sync"

// MemberFactory produces the mocked value for a module member the first
// time it is read.
type MemberFactory func(member string) any

// Module is an explicit lazy map of mocked module members. A member is
// materialized on first read: through the registered factory when one
// exists, otherwise as a fresh auto-mock Fn. There is no property
// interception; access goes through Get.
type Module struct {
	mu      sync.Mutex
	reg     *Registry
	name    string
	factory MemberFactory
	members map[string]any
}

// RegisterModule registers (or re-registers) a module mock. The factory may
// be nil, in which case every accessed member materializes as an auto-mock.
func (r *Registry) RegisterModule(name string, factory MemberFactory) *Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &Module{
		reg:     r,
		name:    name,
		factory: factory,
		members: make(map[string]any),
	}
	r.modules[name] = m
	return m
}

// Module returns the module mock registered under name, auto-registering a
// factory-less one on first access.
func (r *Registry) Module(name string) *Module {
	r.mu.Lock()
	m, ok := r.modules[name]
	r.mu.Unlock()
	if ok {
		return m
	}
	return r.RegisterModule(name, nil)
}

// Name returns the module's registered name.
func (m *Module) Name() string {
	return m.name
}

// Get returns the mocked member, materializing it on first read.
func (m *Module) Get(member string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.members[member]; ok {
		return v
	}
	var v any
	if m.factory != nil {
		v = m.factory(member)
		// Factory-produced mocks still join the run registry so
		// ClearAll/ResetAll reach them.
		if fn, ok := v.(*Fn); ok {
			m.reg.track(fn)
		}
	} else {
		v = m.reg.NewFn(nil)
	}
	m.members[member] = v
	return v
}

// Set pins a member to an explicit value, bypassing lazy materialization.
func (m *Module) Set(member string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member] = value
}

// Members returns the names materialized so far.
func (m *Module) Members() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.members))
	for name := range m.members {
		out = append(out, name)
	}
	return out
}
