// Package expect implements the assertion engine: expect/matcher
// evaluation, negation, promise settlement assertions, asymmetric matchers,
// and custom matcher extension.
//
// A failing matcher raises *AssertionError as a panic; the runner recovers
// it at the test boundary and records the message as the test's failure.
// Every matcher invocation, negated or not, reports to the assertion
// counter hook exactly once.
package expect

import (
	"fmt"

	"github.com/specvital/harness/pkg/promise"
)

// AssertionError is the failure raised by a matcher on mismatch.
type AssertionError struct {
	// Matcher is the name of the matcher that failed.
	Matcher string
	// Message is the human-readable mismatch description.
	Message string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return e.Message
}

// Expecter is the assertion entry point for one run. The CountHook fires
// once per matcher invocation; custom matchers registered via Extend are
// callable through Expectation.To.
type Expecter struct {
	countHook func()
	custom    *matcherRegistry
}

// Option configures an Expecter.
type Option func(*Expecter)

// WithCountHook sets the hook invoked once per matcher call. The harness
// uses it to maintain the current test's assertion counter.
func WithCountHook(hook func()) Option {
	return func(e *Expecter) {
		if hook != nil {
			e.countHook = hook
		}
	}
}

// New creates an Expecter.
func New(opts ...Option) *Expecter {
	e := &Expecter{
		countHook: func() {},
		custom:    newMatcherRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extend registers custom matchers by name. Registered matchers are invoked
// through Expectation.To and honor negation like built-ins.
func (e *Expecter) Extend(matchers map[string]MatcherFunc) error {
	return e.custom.register(matchers)
}

// Expect starts an assertion on received.
func (e *Expecter) Expect(received any) *Expectation {
	return &Expectation{expecter: e, received: received}
}

// Expectation is a single assertion in progress: a received value plus the
// negation flag, consumed by exactly one matcher call.
type Expectation struct {
	expecter *Expecter
	received any
	negated  bool
}

// Not returns the same expectation with inverted pass/fail interpretation.
func (x *Expectation) Not() *Expectation {
	return &Expectation{expecter: x.expecter, received: x.received, negated: !x.negated}
}

// Resolves awaits the received value as a promise and returns an
// expectation on the resolved value. A rejection fails the assertion step
// immediately.
func (x *Expectation) Resolves() *Expectation {
	value, err := x.await("Resolves")
	if err != nil {
		// The settlement failure consumes the assertion step, so it still
		// counts toward the declared assertion total.
		x.expecter.countHook()
		x.fail("Resolves", fmt.Sprintf("expected promise to resolve, but it rejected with %s", formatValue(err)))
	}
	return &Expectation{expecter: x.expecter, received: value, negated: x.negated}
}

// Rejects awaits the received value as a promise and returns an expectation
// on the rejection error. A resolution fails the assertion step immediately.
func (x *Expectation) Rejects() *Expectation {
	value, err := x.await("Rejects")
	if err == nil {
		x.expecter.countHook()
		x.fail("Rejects", fmt.Sprintf("expected promise to reject, but it resolved with %s", formatValue(value)))
	}
	return &Expectation{expecter: x.expecter, received: err, negated: x.negated}
}

func (x *Expectation) await(namespace string) (any, error) {
	awaitable, ok := x.received.(promise.Awaitable)
	if !ok {
		x.expecter.countHook()
		x.fail(namespace, fmt.Sprintf("received value %s is not awaitable", formatValue(x.received)))
	}
	return awaitable.Await()
}

// To invokes a custom matcher registered via Extend.
func (x *Expectation) To(name string, args ...any) {
	fn, ok := x.expecter.custom.lookup(name)
	if !ok {
		x.expecter.countHook()
		x.fail(name, fmt.Sprintf("unknown matcher %q", name))
	}
	result := fn(x.received, args...)
	x.verify(name, result.Pass, func() string { return result.Message })
}

// verify is the single evaluation point every matcher funnels through: it
// bumps the assertion counter, applies negation, and raises on mismatch.
func (x *Expectation) verify(matcher string, pass bool, message func() string) {
	x.expecter.countHook()
	if pass != x.negated {
		return
	}
	msg := message()
	if x.negated {
		msg = "not: " + msg
	}
	x.fail(matcher, msg)
}

// fail raises an AssertionError; it never returns.
func (x *Expectation) fail(matcher, message string) {
	panic(&AssertionError{Matcher: matcher, Message: message})
}
