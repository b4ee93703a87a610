package harness

import (
	"time"

	"github.com/google/uuid"

	"github.com/specvital/harness/pkg/domain"
)

// Hook is lifecycle code attached to a suite.
type Hook func()

// Done signals completion of a callback-style test body. A non-nil error
// fails the test. Only the first invocation counts.
type Done func(err error)

// Suite is a registered grouping of tests and nested suites. The parent
// back-reference is non-owning and exists only for hook-order resolution;
// ownership flows strictly parent to children.
type Suite struct {
	id          string
	description string
	parent      *Suite
	tests       []*Test
	suites      []*Suite

	beforeAll  []Hook
	afterAll   []Hook
	beforeEach []Hook
	afterEach  []Hook
}

func newSuite(description string, parent *Suite) *Suite {
	return &Suite{
		id:          uuid.NewString(),
		description: description,
		parent:      parent,
	}
}

// fullName joins ancestor descriptions with " > ", skipping the unnamed
// implicit root.
func (s *Suite) fullName() string {
	if s == nil || s.description == "" {
		return ""
	}
	prefix := s.parent.fullName()
	if prefix == "" {
		return s.description
	}
	return prefix + " > " + s.description
}

// Test is a registered test case. It is created at registration time and
// mutated only by the runner during its own execution window.
type Test struct {
	id          string
	description string
	suite       *Suite
	body        func()
	asyncBody   func(Done)

	status      domain.TestStatus
	errMsg      string
	logs        []string
	duration    time.Duration
	expected    *int
	requireSome bool
	count       int
}

func newTest(description string, suite *Suite) *Test {
	return &Test{
		id:          uuid.NewString(),
		description: description,
		suite:       suite,
		status:      domain.TestStatusPending,
	}
}

func (t *Test) fullName() string {
	prefix := t.suite.fullName()
	if prefix == "" {
		return t.description
	}
	return prefix + " > " + t.description
}

// result converts the mutated test into the frozen output contract.
func (t *Test) result() domain.TestResult {
	logs := t.logs
	if logs == nil {
		logs = []string{}
	}
	return domain.TestResult{
		ID:                 t.id,
		Description:        t.description,
		FullName:           t.fullName(),
		Status:             t.status,
		Error:              t.errMsg,
		Duration:           domain.Duration(t.duration),
		Logs:               logs,
		AssertionsExpected: t.expected,
		AssertionsCount:    t.count,
	}
}

// result converts the suite subtree into the output contract.
func (s *Suite) result() domain.SuiteResult {
	tests := make([]domain.TestResult, 0, len(s.tests))
	for _, t := range s.tests {
		tests = append(tests, t.result())
	}
	suites := make([]domain.SuiteResult, 0, len(s.suites))
	for _, child := range s.suites {
		suites = append(suites, child.result())
	}
	return domain.SuiteResult{
		ID:          s.id,
		Description: s.description,
		Tests:       tests,
		Suites:      suites,
	}
}

// effectiveBeforeEach collects before-each hooks from the root down to this
// suite: ancestor hooks run before descendant hooks.
func (s *Suite) effectiveBeforeEach() []Hook {
	if s == nil {
		return nil
	}
	return append(s.parent.effectiveBeforeEach(), s.beforeEach...)
}

// effectiveAfterEach collects after-each hooks from this suite up to the
// root: descendant hooks run before ancestor hooks.
func (s *Suite) effectiveAfterEach() []Hook {
	if s == nil {
		return nil
	}
	return append(append([]Hook{}, s.afterEach...), s.parent.effectiveAfterEach()...)
}
