package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/specvital/harness/pkg/domain"
	"github.com/specvital/harness/pkg/expect"
)

// runner walks the registered suite tree and executes hooks and tests
// strictly sequentially, in registration order. Failures are localized:
// an assertion or thrown error fails only its test; hook errors are logged
// and never fail a test or abort the run.
type runner struct {
	env  *environment
	opts *options
}

// run executes every root suite in registration order and returns the
// result forest. Cancellation leaves the remaining tests pending.
func (r *runner) run(ctx context.Context) []domain.SuiteResult {
	for _, root := range r.env.roots {
		r.runSuite(ctx, root)
	}
	results := make([]domain.SuiteResult, 0, len(r.env.roots))
	for _, root := range r.env.roots {
		results = append(results, root.result())
	}
	return results
}

// runSuite runs before-all hooks, then the suite's own tests, then child
// suites, then after-all hooks. The all-hooks run exactly once per suite
// regardless of test count.
func (r *runner) runSuite(ctx context.Context, s *Suite) {
	r.runHooks(s.beforeAll, s, "beforeAll")
	for _, t := range s.tests {
		r.runTest(ctx, t)
	}
	for _, child := range s.suites {
		r.runSuite(ctx, child)
	}
	r.runHooks(s.afterAll, s, "afterAll")
}

func (r *runner) runTest(ctx context.Context, t *Test) {
	if ctx.Err() != nil || !r.selected(t) {
		return // stays pending
	}

	t.status = domain.TestStatusRunning
	r.env.current = t
	start := time.Now()
	defer func() {
		t.duration = time.Since(start)
		r.env.current = nil
	}()

	r.runHooks(t.suite.effectiveBeforeEach(), t.suite, "beforeEach")

	if err := r.runBody(t); err != "" {
		t.status = domain.TestStatusFail
		t.errMsg = err
		return
	}

	r.runHooks(t.suite.effectiveAfterEach(), t.suite, "afterEach")

	if t.expected != nil && *t.expected != t.count {
		t.status = domain.TestStatusFail
		t.errMsg = fmt.Sprintf("expected %d assertions, got %d", *t.expected, t.count)
		return
	}
	if t.requireSome && t.count == 0 {
		t.status = domain.TestStatusFail
		t.errMsg = "expected at least one assertion, got 0"
		return
	}
	t.status = domain.TestStatusPass
}

// runBody executes the test body and returns the failure message, empty on
// success. A panic is the body throwing; for callback-style tests the
// runner additionally waits for the completion signal. There is no timeout:
// a body that never settles stalls the run.
func (r *runner) runBody(t *Test) (failure string) {
	var done chan error
	if t.asyncBody != nil {
		done = make(chan error, 1)
	}

	panicked := func() (msg string) {
		defer func() {
			if rec := recover(); rec != nil {
				msg = panicMessage(rec)
			}
		}()
		switch {
		case t.asyncBody != nil:
			var once sync.Once
			t.asyncBody(func(err error) {
				once.Do(func() { done <- err })
			})
		case t.body != nil:
			t.body()
		}
		return ""
	}()
	if panicked != "" {
		return panicked
	}

	if done != nil {
		if err := <-done; err != nil {
			return err.Error()
		}
	}
	return ""
}

// runHooks executes lifecycle hooks with error isolation: a panicking hook
// is logged and the remaining hooks still run.
func (r *runner) runHooks(hooks []Hook, s *Suite, kind string) {
	for _, hook := range hooks {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					if _, ok := rec.(*expect.AssertionError); ok {
						r.env.logf("%s hook in suite %q failed an assertion: %s", kind, s.description, panicMessage(rec))
						return
					}
					r.env.logf("%s hook in suite %q panicked: %s", kind, s.description, panicMessage(rec))
				}
			}()
			hook()
		}()
	}
}

// selected applies the name-pattern filter. With no patterns every test is
// selected; otherwise the test's full name must match at least one glob.
func (r *runner) selected(t *Test) bool {
	if len(r.opts.namePatterns) == 0 {
		return true
	}
	name := t.fullName()
	for _, pattern := range r.opts.namePatterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
