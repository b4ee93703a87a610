// Package domain defines the result types produced by a harness run.
//
// The JSON field names and status enum values in this package are a frozen
// contract: presentation layers depend on them not changing shape across
// runs of equivalent input.
package domain

import (
	"encoding/json"
	"time"
)

// SuiteResult is the reported outcome of one suite, including its nested
// suites in registration order.
type SuiteResult struct {
	// ID uniquely identifies the suite within its run.
	ID string `json:"id"`
	// Description is the name the suite was registered with.
	// Empty for the implicit root suite grouping top-level tests.
	Description string `json:"description"`
	// Tests contains the suite's own tests in registration order.
	Tests []TestResult `json:"tests"`
	// Suites contains the nested suites in registration order.
	Suites []SuiteResult `json:"suites"`
}

// TestResult is the reported outcome of one test.
type TestResult struct {
	// ID uniquely identifies the test within its run.
	ID string `json:"id"`
	// Description is the name the test was registered with.
	Description string `json:"description"`
	// FullName joins ancestor suite descriptions and the test description
	// with " > ", e.g. "math > addition > adds integers".
	FullName string `json:"fullName,omitempty"`
	// Status is the final execution state.
	Status TestStatus `json:"status"`
	// Error holds the failure message. Set only when Status is fail.
	Error string `json:"error,omitempty"`
	// Duration is the elapsed time of the test's execution window,
	// hooks included. Marshals as integer milliseconds.
	Duration Duration `json:"duration"`
	// Logs contains the console-style lines captured while the test ran.
	Logs []string `json:"logs"`
	// AssertionsExpected is the declared expected assertion count, if any.
	AssertionsExpected *int `json:"assertionsExpected,omitempty"`
	// AssertionsCount is the number of matcher invocations observed.
	AssertionsCount int `json:"assertionsCount"`
}

// Duration wraps time.Duration to marshal as integer milliseconds,
// the unit the result contract is specified in.
type Duration time.Duration

// MarshalJSON renders the duration as whole milliseconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// UnmarshalJSON parses a millisecond count.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// CountTests returns the total number of tests in this suite and its
// descendants.
func (s *SuiteResult) CountTests() int {
	count := len(s.Tests)
	for i := range s.Suites {
		count += s.Suites[i].CountTests()
	}
	return count
}

// CountByStatus returns the number of descendant tests with the given status.
func (s *SuiteResult) CountByStatus(status TestStatus) int {
	count := 0
	for i := range s.Tests {
		if s.Tests[i].Status == status {
			count++
		}
	}
	for i := range s.Suites {
		count += s.Suites[i].CountByStatus(status)
	}
	return count
}
