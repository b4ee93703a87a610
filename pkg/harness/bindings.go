package harness

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/specvital/harness/pkg/expect"
	"github.com/specvital/harness/pkg/mock"
)

// Bindings is the global binding set handed to an executable snippet body:
// registration functions, the assertion entry point, the mock factory
// namespace, fake-timer controls, the logging sink, and the time source.
// All methods delegate to the run's private environment; a Bindings value
// is only valid for the run that created it.
type Bindings struct {
	env *environment
}

// Describe registers a suite and synchronously runs builder to populate it.
func (b *Bindings) Describe(description string, builder func()) {
	b.env.describe(description, builder)
}

// Test registers a synchronous test. The body runs to completion; a panic
// fails the test with the panic's message.
func (b *Bindings) Test(description string, body func()) {
	b.env.addTest(description, body)
}

// It is an alias for Test.
func (b *Bindings) It(description string, body func()) {
	b.Test(description, body)
}

// TestAsync registers a callback-style test. The runner waits until done is
// invoked; done with a non-nil error fails the test. There is no timeout;
// a body that never signals stalls the run.
func (b *Bindings) TestAsync(description string, body func(Done)) {
	b.env.addAsyncTest(description, body)
}

// BeforeEach registers a hook running before every test of the active suite
// and its descendants.
func (b *Bindings) BeforeEach(hook func()) {
	s := b.env.container()
	s.beforeEach = append(s.beforeEach, hook)
}

// AfterEach registers a hook running after every test of the active suite
// and its descendants.
func (b *Bindings) AfterEach(hook func()) {
	s := b.env.container()
	s.afterEach = append(s.afterEach, hook)
}

// BeforeAll registers a hook running once before any test or child suite of
// the active suite.
func (b *Bindings) BeforeAll(hook func()) {
	s := b.env.container()
	s.beforeAll = append(s.beforeAll, hook)
}

// AfterAll registers a hook running once after the active suite's tests and
// all descendant suites have finished.
func (b *Bindings) AfterAll(hook func()) {
	s := b.env.container()
	s.afterAll = append(s.afterAll, hook)
}

// Expect starts an assertion. Every matcher call increments the current
// test's assertion counter by exactly one.
func (b *Bindings) Expect(received any) *expect.Expectation {
	return b.env.expecter.Expect(received)
}

// Extend registers custom matchers, callable through Expectation.To.
func (b *Bindings) Extend(matchers map[string]expect.MatcherFunc) error {
	return b.env.expecter.Extend(matchers)
}

// ExpectAssertions declares that exactly n matcher calls must happen in the
// current test; a mismatch fails the test after its body succeeds.
func (b *Bindings) ExpectAssertions(n int) {
	if b.env.current != nil {
		b.env.current.expected = &n
	}
}

// HasAssertions declares that at least one matcher call must happen in the
// current test. Unlike ExpectAssertions it sets no exact count.
func (b *Bindings) HasAssertions() {
	if t := b.env.current; t != nil {
		t.requireSome = true
	}
}

// Any returns an asymmetric matcher accepting any value in sample's type
// family.
func (b *Bindings) Any(sample reflect.Type) expect.AsymmetricMatcher {
	return expect.Any(sample)
}

// Anything returns an asymmetric matcher accepting any non-nil value.
func (b *Bindings) Anything() expect.AsymmetricMatcher {
	return expect.Anything()
}

// ObjectContaining returns an asymmetric matcher for partial object equality.
func (b *Bindings) ObjectContaining(subset map[string]any) expect.AsymmetricMatcher {
	return expect.ObjectContaining(subset)
}

// StringMatching returns an asymmetric matcher for substring or pattern
// matching.
func (b *Bindings) StringMatching(pattern any) expect.AsymmetricMatcher {
	return expect.StringMatching(pattern)
}

// ArrayContaining returns an asymmetric matcher for unordered element
// containment.
func (b *Bindings) ArrayContaining(items []any) expect.AsymmetricMatcher {
	return expect.ArrayContaining(items)
}

// CreateMock creates a run-tracked mock function with an optional default
// implementation.
func (b *Bindings) CreateMock(defaultImpl mock.Implementation) *mock.Fn {
	return b.env.mocks.NewFn(defaultImpl)
}

// Spy wraps object[member] in a mock whose default implementation is the
// original; Restore on the returned mock reinstates it.
func (b *Bindings) Spy(object map[string]any, member string) (*mock.Fn, error) {
	return b.env.mocks.Spy(object, member)
}

// MockModule registers a module mock whose members materialize lazily on
// first access. A nil factory auto-mocks every accessed member.
func (b *Bindings) MockModule(name string, factory mock.MemberFactory) *mock.Module {
	return b.env.mocks.RegisterModule(name, factory)
}

// RequireMock returns the module mock registered under name, registering an
// auto-mocking one on first access.
func (b *Bindings) RequireMock(name string) *mock.Module {
	return b.env.mocks.Module(name)
}

// ClearAllMocks empties the logs of every mock created in this run.
func (b *Bindings) ClearAllMocks() {
	b.env.mocks.ClearAll()
}

// ResetAllMocks clears logs and implementations of every mock in this run.
func (b *Bindings) ResetAllMocks() {
	b.env.mocks.ResetAll()
}

// RestoreAllMocks reinstates the originals of every spy in this run.
func (b *Bindings) RestoreAllMocks() {
	b.env.mocks.RestoreAll()
}

// UseFakeTimers activates the virtual clock: virtual time resets to zero
// and subsequent SetTimeout/SetInterval calls schedule virtual timers.
func (b *Bindings) UseFakeTimers() {
	b.env.clock.Activate()
}

// UseRealTimers deactivates the virtual clock, discarding pending virtual
// timers.
func (b *Bindings) UseRealTimers() {
	b.env.clock.Deactivate()
}

// AdvanceTimersByTime advances virtual time by d, firing timers that fall
// due. Requires fake timers.
func (b *Bindings) AdvanceTimersByTime(d time.Duration) {
	b.env.clock.AdvanceByTime(d)
}

// AdvanceTimersToNextTimer advances virtual time to the soonest pending
// timer.
func (b *Bindings) AdvanceTimersToNextTimer() {
	b.env.clock.AdvanceToNextTimer()
}

// RunOnlyPendingTimers fires the timers pending right now, skipping any
// scheduled as a side effect of this pass.
func (b *Bindings) RunOnlyPendingTimers() {
	b.env.clock.RunOnlyPendingTimers()
}

// ClearAllTimers discards every pending virtual timer.
func (b *Bindings) ClearAllTimers() {
	b.env.clock.ClearAllTimers()
}

// GetTimerCount returns the number of pending virtual timers.
func (b *Bindings) GetTimerCount() int {
	return b.env.clock.PendingTimerCount()
}

// SetSystemTime re-anchors the virtual clock so Now reports t.
func (b *Bindings) SetSystemTime(t time.Time) {
	b.env.clock.SetSystemTime(t)
}

// SetTimeout schedules callback after delay. With fake timers active the
// timer is virtual and fires during clock advancement; otherwise a real
// timer is armed.
func (b *Bindings) SetTimeout(callback func(), delay time.Duration) uint64 {
	if b.env.clock.Active() {
		return b.env.clock.Schedule(callback, delay, false)
	}
	return b.realTimeout(callback, delay)
}

// SetInterval schedules callback every period. Virtual while fake timers
// are active, real otherwise.
func (b *Bindings) SetInterval(callback func(), period time.Duration) uint64 {
	if b.env.clock.Active() {
		return b.env.clock.Schedule(callback, period, true)
	}
	env := b.env
	env.timerMu.Lock()
	env.nextTimer++
	id := env.nextTimer
	env.timerMu.Unlock()

	var arm func()
	arm = func() {
		timer := time.AfterFunc(period, func() {
			callback()
			env.timerMu.Lock()
			_, alive := env.realTimers[id]
			env.timerMu.Unlock()
			if alive {
				arm()
			}
		})
		env.timerMu.Lock()
		env.realTimers[id] = timer
		env.timerMu.Unlock()
	}
	arm()
	return id
}

// ClearTimeout cancels a timer created by SetTimeout or SetInterval. With
// fake timers active the id is interpreted against the virtual clock.
func (b *Bindings) ClearTimeout(id uint64) {
	if b.env.clock.Active() {
		b.env.clock.Cancel(id)
		return
	}
	b.env.timerMu.Lock()
	defer b.env.timerMu.Unlock()
	if timer, ok := b.env.realTimers[id]; ok {
		timer.Stop()
		delete(b.env.realTimers, id)
	}
}

// ClearInterval is an alias for ClearTimeout.
func (b *Bindings) ClearInterval(id uint64) {
	b.ClearTimeout(id)
}

// Now is the clock-aware time source: virtual while fake timers are active,
// wall time otherwise.
func (b *Bindings) Now() time.Time {
	return b.env.clock.Now()
}

// At constructs an explicit time, bypassing virtual time entirely.
func (b *Bindings) At(t time.Time) time.Time {
	return b.env.clock.At(t)
}

// Log appends a console-style line to the current test's captured logs, or
// to the run log outside a test. Arguments are space-separated like a
// console call.
func (b *Bindings) Log(args ...any) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg)
	}
	b.env.sink(strings.Join(parts, " "))
}

func (b *Bindings) realTimeout(callback func(), delay time.Duration) uint64 {
	env := b.env
	env.timerMu.Lock()
	env.nextTimer++
	id := env.nextTimer
	env.timerMu.Unlock()

	timer := time.AfterFunc(delay, func() {
		callback()
		env.timerMu.Lock()
		delete(env.realTimers, id)
		env.timerMu.Unlock()
	})
	env.timerMu.Lock()
	env.realTimers[id] = timer
	env.timerMu.Unlock()
	return id
}
