// Package harness is an embeddable test-execution engine. It registers
// suites and hooks from an executable snippet body, runs them in
// deterministic registration order, evaluates assertions through an
// extensible matcher system, tracks mock call history, and simulates time
// through a virtual clock.
//
// The host supplies the body as a Go closure receiving the run's global
// bindings; transforming raw snippet text into that closure, and any
// ambient globals the snippet references, are the host's responsibility.
// Each Execute call builds a fresh environment: suites, mocks, and clock
// state never leak between runs.
package harness

import (
	"context"
	"errors"
	"time"

	"github.com/specvital/harness/pkg/domain"
)

// ErrNilBody is returned when Execute is given no executable body.
var ErrNilBody = errors.New("harness: nil body")

// Body is an executable snippet body: it registers suites, tests, and hooks
// through the bindings, synchronously.
type Body func(*Bindings)

// Report is the structured outcome of one run.
type Report struct {
	// Suites is the result forest, one entry per root suite in run order.
	Suites []domain.SuiteResult `json:"suites"`
	// Logs contains run-level lines: hook and registration errors, plus
	// host log output emitted outside any test.
	Logs []string `json:"logs"`
	// Stats aggregates the run.
	Stats RunStats `json:"stats"`
}

// RunStats aggregates test counts and timing for one run.
type RunStats struct {
	// Total is the number of registered tests.
	Total int `json:"total"`
	// Passed, Failed, and Pending partition Total after the run.
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	// Duration is the wall time of the whole run.
	Duration domain.Duration `json:"duration"`
}

// Execute runs an executable snippet body: registration first, then the
// runner walks the resulting tree. A panic during registration is logged
// and the partially registered tree still runs. Cancelling ctx stops
// between tests, leaving the remainder pending.
func Execute(ctx context.Context, body Body, opts ...Option) (*Report, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	o := buildOptions(opts)
	start := time.Now()

	env := newEnvironment(o.logger)
	bindings := &Bindings{env: env}

	func() {
		defer func() {
			if r := recover(); r != nil {
				env.logf("registration failed: %s", panicMessage(r))
			}
		}()
		body(bindings)
	}()

	r := &runner{env: env, opts: o}
	suites := r.run(ctx)

	logs := env.logs
	if logs == nil {
		logs = []string{}
	}
	report := &Report{
		Suites: suites,
		Logs:   logs,
	}
	report.Stats = statsFor(suites, time.Since(start))
	return report, ctx.Err()
}

func statsFor(suites []domain.SuiteResult, elapsed time.Duration) RunStats {
	stats := RunStats{Duration: domain.Duration(elapsed)}
	for i := range suites {
		stats.Total += suites[i].CountTests()
		stats.Passed += suites[i].CountByStatus(domain.TestStatusPass)
		stats.Failed += suites[i].CountByStatus(domain.TestStatusFail)
		stats.Pending += suites[i].CountByStatus(domain.TestStatusPending)
	}
	return stats
}
