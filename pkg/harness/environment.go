package harness

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/specvital/harness/pkg/clock"
	"github.com/specvital/harness/pkg/expect"
	"github.com/specvital/harness/pkg/mock"
)

// environment is the mutable state of one run: the suite tree under
// construction, the currently executing test, the run-scoped mock registry,
// the virtual clock, and the assertion entry point. A fresh environment is
// built per Execute call; nothing survives across runs.
type environment struct {
	logger *zap.Logger

	roots        []*Suite
	active       *Suite
	implicitRoot *Suite

	current *Test
	logs    []string

	clock    *clock.Clock
	mocks    *mock.Registry
	expecter *expect.Expecter

	timerMu    sync.Mutex
	realTimers map[uint64]*time.Timer
	nextTimer  uint64
}

func newEnvironment(logger *zap.Logger) *environment {
	env := &environment{
		logger:     logger,
		mocks:      mock.NewRegistry(),
		clock:      clock.New(clock.WithLogger(logger)),
		realTimers: make(map[uint64]*time.Timer),
	}
	env.expecter = expect.New(expect.WithCountHook(func() {
		if env.current != nil {
			env.current.count++
		}
	}))
	return env
}

// describe registers a suite and synchronously runs its builder with the
// suite as the active container. A panicking builder is logged and the
// partially built subtree is kept; the previous container is always
// restored.
func (env *environment) describe(description string, builder func()) {
	suite := newSuite(description, env.active)
	if env.active != nil {
		env.active.suites = append(env.active.suites, suite)
	} else {
		env.roots = append(env.roots, suite)
	}

	previous := env.active
	env.active = suite
	defer func() {
		env.active = previous
		if r := recover(); r != nil {
			env.logf("describe %q failed during registration: %s", description, panicMessage(r))
		}
	}()
	if builder != nil {
		builder()
	}
}

// container returns the suite new tests and hooks attach to, creating the
// shared implicit root when registration happens outside any describe.
func (env *environment) container() *Suite {
	if env.active != nil {
		return env.active
	}
	if env.implicitRoot == nil {
		env.implicitRoot = newSuite("", nil)
		env.roots = append(env.roots, env.implicitRoot)
	}
	return env.implicitRoot
}

func (env *environment) addTest(description string, body func()) {
	t := newTest(description, env.container())
	t.body = body
	t.suite.tests = append(t.suite.tests, t)
}

func (env *environment) addAsyncTest(description string, body func(Done)) {
	t := newTest(description, env.container())
	t.asyncBody = body
	t.suite.tests = append(t.suite.tests, t)
}

// logf records a run-level log line and mirrors it to the diagnostic logger.
func (env *environment) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	env.logs = append(env.logs, line)
	env.logger.Warn(line)
}

// sink records a host log line against the current test, or the run log
// when no test is executing.
func (env *environment) sink(line string) {
	if env.current != nil {
		env.current.logs = append(env.current.logs, line)
		return
	}
	env.logs = append(env.logs, line)
}

// panicMessage renders a recovered panic value: assertion and error
// messages verbatim, everything else via %v.
func panicMessage(r any) string {
	switch v := r.(type) {
	case *expect.AssertionError:
		return v.Message
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
