package harness_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/harness/pkg/domain"
	"github.com/specvital/harness/pkg/expect"
	"github.com/specvital/harness/pkg/harness"
	"github.com/specvital/harness/pkg/mock"
)

func execute(t *testing.T, body harness.Body, opts ...harness.Option) *harness.Report {
	t.Helper()
	report, err := harness.Execute(context.Background(), body, opts...)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestExecute_NilBody(t *testing.T) {
	t.Parallel()

	_, err := harness.Execute(context.Background(), nil)

	assert.ErrorIs(t, err, harness.ErrNilBody)
}

func TestExecute_SingleSuiteSinglePassingTest(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("a", func() {
			b.Test("t1", func() {
				b.Expect(1 + 1).ToEqual(2)
			})
		})
	})

	require.Len(t, report.Suites, 1)
	suite := report.Suites[0]
	assert.Equal(t, "a", suite.Description)
	assert.NotEmpty(t, suite.ID)
	require.Len(t, suite.Tests, 1)

	test := suite.Tests[0]
	assert.Equal(t, "t1", test.Description)
	assert.Equal(t, domain.TestStatusPass, test.Status)
	assert.Equal(t, "a > t1", test.FullName)
	assert.Empty(t, test.Error)
	assert.Equal(t, 1, test.AssertionsCount)
	assert.Equal(t, 1, report.Stats.Passed)
}

func TestExecute_ThrowingBodyFailsWithVerbatimMessage(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("s", func() {
			b.Test("explodes", func() {
				panic(errors.New("boom"))
			})
			b.Test("still runs", func() {
				b.Expect(true).ToBeTruthy()
			})
		})
	})

	tests := report.Suites[0].Tests
	require.Len(t, tests, 2)
	assert.Equal(t, domain.TestStatusFail, tests[0].Status)
	assert.Equal(t, "boom", tests[0].Error)
	assert.Equal(t, domain.TestStatusPass, tests[1].Status, "a failing test never blocks its siblings")
}

func TestExecute_FailedAssertionMessageIsCaptured(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("math", func() {
			b.Test("wrong", func() {
				b.Expect(2 + 2).ToEqual(5)
			})
		})
	})

	test := report.Suites[0].Tests[0]
	assert.Equal(t, domain.TestStatusFail, test.Status)
	assert.Contains(t, test.Error, "expected 4 to equal 5")
}

func TestExecute_MockCallBookkeeping(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Test("records calls in order", func() {
			fn := b.CreateMock(nil)
			fn.Call("x")
			fn.Call("y")

			b.Expect(fn.Calls()).ToEqual([][]any{{"x"}, {"y"}})
			b.Expect(fn).ToHaveBeenCalledTimes(2)
		})
	})

	assert.Equal(t, 1, report.Stats.Passed)
}

func TestExecute_FakeTimerScenarios(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("timers", func() {
			b.Test("one-shot fires exactly once", func() {
				b.UseFakeTimers()
				fired := 0
				b.SetTimeout(func() { fired++ }, 1000*time.Millisecond)

				b.AdvanceTimersByTime(1000 * time.Millisecond)

				b.Expect(fired).ToEqual(1)
				b.Expect(b.GetTimerCount()).ToEqual(0)
			})
			b.Test("interval fires per elapsed period", func() {
				b.UseFakeTimers()
				fired := 0
				b.SetInterval(func() { fired++ }, 100*time.Millisecond)

				b.AdvanceTimersByTime(350 * time.Millisecond)

				b.Expect(fired).ToEqual(3)
				b.Expect(b.GetTimerCount()).ToEqual(1)
			})
		})
	})

	assert.Equal(t, 2, report.Stats.Passed)
	assert.Equal(t, 0, report.Stats.Failed)
}

func TestExecute_VirtualNow(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Test("now tracks advancement", func() {
			b.UseFakeTimers()
			before := b.Now()

			b.AdvanceTimersByTime(90 * time.Second)

			b.Expect(b.Now().Sub(before)).ToEqual(90 * time.Second)
		})
	})

	assert.Equal(t, 1, report.Stats.Passed)
}

func TestExecute_AssertionCountDeclarations(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("counts", func() {
			b.Test("exact count passes", func() {
				b.ExpectAssertions(2)
				b.Expect(1).ToEqual(1)
				b.Expect(2).ToEqual(2)
			})
			b.Test("undercount fails", func() {
				b.ExpectAssertions(2)
				b.Expect(1).ToEqual(1)
			})
			b.Test("overcount fails", func() {
				b.ExpectAssertions(1)
				b.Expect(1).ToEqual(1)
				b.Expect(2).ToEqual(2)
			})
			b.Test("negated calls count too", func() {
				b.ExpectAssertions(1)
				b.Expect(1).Not().ToEqual(2)
			})
		})
	})

	tests := report.Suites[0].Tests
	assert.Equal(t, domain.TestStatusPass, tests[0].Status)
	assert.Equal(t, domain.TestStatusFail, tests[1].Status)
	assert.Contains(t, tests[1].Error, "expected 2 assertions, got 1")
	assert.Equal(t, domain.TestStatusFail, tests[2].Status)
	assert.Equal(t, domain.TestStatusPass, tests[3].Status)

	require.NotNil(t, tests[0].AssertionsExpected)
	assert.Equal(t, 2, *tests[0].AssertionsExpected)
	assert.Equal(t, 2, tests[0].AssertionsCount)
}

func TestExecute_HasAssertionsRequiresAtLeastOne(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("has assertions", func() {
			b.Test("none fails", func() {
				b.HasAssertions()
			})
			b.Test("one passes", func() {
				b.HasAssertions()
				b.Expect(1).ToEqual(1)
			})
			b.Test("several pass", func() {
				b.HasAssertions()
				b.Expect(1).ToEqual(1)
				b.Expect(2).ToEqual(2)
			})
			b.Test("combines with an exact count", func() {
				b.HasAssertions()
				b.ExpectAssertions(1)
				b.Expect(1).ToEqual(1)
			})
		})
	})

	tests := report.Suites[0].Tests
	assert.Equal(t, domain.TestStatusFail, tests[0].Status)
	assert.Equal(t, "expected at least one assertion, got 0", tests[0].Error)
	assert.Equal(t, domain.TestStatusPass, tests[1].Status)
	assert.Equal(t, domain.TestStatusPass, tests[2].Status)
	assert.Equal(t, 2, tests[2].AssertionsCount)
	assert.Equal(t, domain.TestStatusPass, tests[3].Status)
}

func TestExecute_HookErrorsAreIsolated(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("fragile hooks", func() {
			b.BeforeEach(func() { panic("hook broke") })
			b.AfterEach(func() { panic(errors.New("teardown broke")) })
			b.Test("unaffected", func() {
				b.Expect(1).ToEqual(1)
			})
		})
	})

	test := report.Suites[0].Tests[0]
	assert.Equal(t, domain.TestStatusPass, test.Status, "hook errors never fail the test")
	require.NotEmpty(t, report.Logs)
	assert.Contains(t, report.Logs[0], "hook broke")
}

func TestExecute_RegistrationErrorKeepsPartialSubtree(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("partial", func() {
			b.Test("registered before failure", func() {
				b.Expect(1).ToEqual(1)
			})
			panic("builder broke")
		})
		b.Describe("sibling", func() {
			b.Test("still registers", func() {
				b.Expect(2).ToEqual(2)
			})
		})
	})

	require.Len(t, report.Suites, 2, "registration continues after a failing builder")
	assert.Equal(t, domain.TestStatusPass, report.Suites[0].Tests[0].Status)
	assert.Equal(t, domain.TestStatusPass, report.Suites[1].Tests[0].Status)

	found := false
	for _, line := range report.Logs {
		if strings.Contains(line, "builder broke") {
			found = true
		}
	}
	assert.True(t, found, "registration error surfaces as a log line")
}

func TestExecute_TopLevelTestsShareImplicitRoot(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Test("first", func() { b.Expect(1).ToEqual(1) })
		b.Test("second", func() { b.Expect(2).ToEqual(2) })
	})

	require.Len(t, report.Suites, 1)
	root := report.Suites[0]
	assert.Empty(t, root.Description)
	require.Len(t, root.Tests, 2)
	assert.Equal(t, "first", root.Tests[0].FullName, "implicit root adds no name prefix")
}

func TestExecute_AsyncTests(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("async", func() {
			b.TestAsync("done from a goroutine", func(done harness.Done) {
				go func() {
					time.Sleep(5 * time.Millisecond)
					done(nil)
				}()
			})
			b.TestAsync("done with error fails", func(done harness.Done) {
				done(errors.New("async boom"))
			})
			b.TestAsync("second done call is ignored", func(done harness.Done) {
				done(nil)
				done(errors.New("too late"))
			})
		})
	})

	tests := report.Suites[0].Tests
	assert.Equal(t, domain.TestStatusPass, tests[0].Status)
	assert.Equal(t, domain.TestStatusFail, tests[1].Status)
	assert.Equal(t, "async boom", tests[1].Error)
	assert.Equal(t, domain.TestStatusPass, tests[2].Status)
}

func TestExecute_ResolvesRejectsInTests(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Test("mock resolved value awaits", func() {
			fetch := b.CreateMock(nil).MockResolvedValue(map[string]any{"status": 200})
			b.Expect(fetch.Call("/health")).Resolves().ToEqual(map[string]any{"status": 200})
		})
		b.Test("mock rejected value awaits", func() {
			fetch := b.CreateMock(nil).MockRejectedValue(errors.New("connection refused"))
			b.Expect(fetch.Call("/down")).Rejects().ToMatch("refused")
		})
	})

	assert.Equal(t, 2, report.Stats.Passed)
	assert.Equal(t, 0, report.Stats.Failed)
}

func TestExecute_SpyOnInjectedObject(t *testing.T) {
	t.Parallel()

	object := map[string]any{
		"fetch": func(args ...any) any { return "real:" + args[0].(string) },
	}

	report := execute(t, func(b *harness.Bindings) {
		b.Test("spy records and restores", func() {
			spy, err := b.Spy(object, "fetch")
			b.Expect(err).ToBeNil()

			result := object["fetch"].(*mock.Fn).Call("/users")
			b.Expect(result).ToEqual("real:/users")
			b.Expect(spy).ToHaveBeenCalledWith("/users")

			spy.Restore()
		})
	})

	assert.Equal(t, 1, report.Stats.Passed)
	_, stillMocked := object["fetch"].(*mock.Fn)
	assert.False(t, stillMocked)
}

func TestExecute_ModuleMocksMaterializeLazily(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.MockModule("node:fs", nil)
		b.Test("auto-mocked member", func() {
			readFile := b.RequireMock("node:fs").Get("readFile").(*mock.Fn)
			readFile.MockReturnValue("contents")

			b.Expect(readFile.Call("/etc/hosts")).ToEqual("contents")
			b.Expect(readFile).ToHaveBeenCalledTimes(1)
		})
	})

	assert.Equal(t, 1, report.Stats.Passed)
}

func TestExecute_LogCapture(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Log("registration line")
		b.Describe("logging", func() {
			b.Test("captures per test", func() {
				b.Log("inside", "test", 42)
				b.Expect(true).ToBeTruthy()
			})
		})
	})

	assert.Contains(t, report.Logs, "registration line")
	test := report.Suites[0].Tests[0]
	assert.Equal(t, []string{"inside test 42"}, test.Logs)
}

func TestExecute_NamePatternFiltering(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		b.Describe("math", func() {
			b.Test("adds", func() { b.Expect(1).ToEqual(1) })
			b.Test("subtracts", func() { b.Expect(1).ToEqual(1) })
		})
		b.Describe("strings", func() {
			b.Test("concatenates", func() { b.Expect(1).ToEqual(1) })
		})
	}, harness.WithNamePatterns("math > *"))

	mathTests := report.Suites[0].Tests
	assert.Equal(t, domain.TestStatusPass, mathTests[0].Status)
	assert.Equal(t, domain.TestStatusPass, mathTests[1].Status)
	assert.Equal(t, domain.TestStatusPending, report.Suites[1].Tests[0].Status)
	assert.Equal(t, 1, report.Stats.Pending)
}

func TestExecute_CancelledContextLeavesTestsPending(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := harness.Execute(ctx, func(b *harness.Bindings) {
		b.Test("never runs", func() { b.Expect(1).ToEqual(1) })
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, domain.TestStatusPending, report.Suites[0].Tests[0].Status)
}

func TestExecute_CustomMatchers(t *testing.T) {
	t.Parallel()

	report := execute(t, func(b *harness.Bindings) {
		require.NoError(t, b.Extend(map[string]expect.MatcherFunc{
			"toBeEven": func(received any, _ ...any) expect.MatchResult {
				n, ok := received.(int)
				return expect.MatchResult{
					Pass:    ok && n%2 == 0,
					Message: "expected an even number",
				}
			},
		}))
		b.Describe("extension", func() {
			b.Test("custom matcher passes", func() {
				b.Expect(4).To("toBeEven")
			})
			b.Test("custom matcher negates", func() {
				b.Expect(3).Not().To("toBeEven")
			})
			b.Test("custom matcher fails with its message", func() {
				b.Expect(3).To("toBeEven")
			})
		})
	})

	tests := report.Suites[0].Tests
	assert.Equal(t, domain.TestStatusPass, tests[0].Status)
	assert.Equal(t, domain.TestStatusPass, tests[1].Status)
	assert.Equal(t, domain.TestStatusFail, tests[2].Status)
	assert.Equal(t, "expected an even number", tests[2].Error)
}

func TestExecuteAll_RunsSpecsIndependently(t *testing.T) {
	t.Parallel()

	makeSpec := func(name string, pass bool) harness.Spec {
		return harness.Spec{
			Name: name,
			Body: func(b *harness.Bindings) {
				b.Test("t", func() {
					if pass {
						b.Expect(1).ToEqual(1)
					} else {
						b.Expect(1).ToEqual(2)
					}
				})
			},
		}
	}

	results, err := harness.ExecuteAll(context.Background(), []harness.Spec{
		makeSpec("passing", true),
		makeSpec("failing", false),
		makeSpec("also passing", true),
	}, harness.WithWorkers(2))

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "passing", results[0].Name)
	assert.Equal(t, 1, results[0].Report.Stats.Passed)
	assert.Equal(t, 1, results[1].Report.Stats.Failed)
	assert.Equal(t, 1, results[2].Report.Stats.Passed)
}

func TestExecute_FreshEnvironmentPerRun(t *testing.T) {
	t.Parallel()

	body := func(b *harness.Bindings) {
		b.Test("t", func() {
			fn := b.CreateMock(nil)
			fn.Call()
			b.Expect(fn).ToHaveBeenCalledTimes(1)
		})
	}

	first := execute(t, body)
	second := execute(t, body)

	assert.Equal(t, 1, first.Stats.Passed)
	assert.Equal(t, 1, second.Stats.Passed, "no mock state leaks between runs")
	assert.NotEqual(t, first.Suites[0].Tests[0].ID, second.Suites[0].Tests[0].ID, "ids are unique per run")
}
