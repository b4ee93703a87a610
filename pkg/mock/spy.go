package mock

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMember is returned when spying on a member the object does
	// not have.
	ErrUnknownMember = errors.New("mock: unknown member")
	// ErrNotCallable is returned when spying on a member that is not a
	// callable shape the harness understands.
	ErrNotCallable = errors.New("mock: member is not callable")
)

// Spy replaces object[member] with a mock whose default implementation is
// the original callable, and returns that mock. The mock's Restore method
// reinstates the original reference on the object.
//
// Objects are the explicit string-keyed maps the host injects as global
// bindings; the original member must be an Implementation, a compatible
// func, or another *Fn.
func Spy(object map[string]any, member string) (*Fn, error) {
	original, ok := object[member]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMember, member)
	}

	impl, err := asImplementation(original)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", member, err)
	}

	fn := NewFn(impl)
	fn.restore = func() {
		object[member] = original
	}
	object[member] = fn
	return fn, nil
}

// asImplementation adapts the callable shapes a snippet object may hold.
func asImplementation(v any) (Implementation, error) {
	switch fn := v.(type) {
	case Implementation:
		return fn, nil
	case func(...any) any:
		return fn, nil
	case func():
		return func(...any) any {
			fn()
			return nil
		}, nil
	case *Fn:
		return fn.Call, nil
	default:
		return nil, ErrNotCallable
	}
}
