package expect

import (
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyMatcherName is returned when registering a matcher without a name.
var ErrEmptyMatcherName = errors.New("expect: matcher name must not be empty")

// MatchResult is the outcome a custom matcher reports.
type MatchResult struct {
	// Pass is the un-negated verdict.
	Pass bool
	// Message explains the verdict; shown when the assertion fails.
	Message string
}

// MatcherFunc is a custom matcher: it receives the expect() argument and the
// matcher call arguments.
type MatcherFunc func(received any, args ...any) MatchResult

// matcherRegistry holds custom matchers registered via Extend.
// Later registrations under the same name override earlier ones.
type matcherRegistry struct {
	mu       sync.RWMutex
	matchers map[string]MatcherFunc
}

func newMatcherRegistry() *matcherRegistry {
	return &matcherRegistry{matchers: make(map[string]MatcherFunc)}
}

func (r *matcherRegistry) register(matchers map[string]MatcherFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, fn := range matchers {
		if name == "" {
			return ErrEmptyMatcherName
		}
		if fn == nil {
			return fmt.Errorf("expect: matcher %q is nil", name)
		}
		r.matchers[name] = fn
	}
	return nil
}

func (r *matcherRegistry) lookup(name string) (MatcherFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.matchers[name]
	return fn, ok
}
