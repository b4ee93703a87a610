package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSuiteResult_CountTests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		suite SuiteResult
		want  int
	}{
		{
			name:  "should return zero for empty suite",
			suite: SuiteResult{},
			want:  0,
		},
		{
			name: "should count own tests",
			suite: SuiteResult{
				Tests: []TestResult{{Description: "t1"}, {Description: "t2"}},
			},
			want: 2,
		},
		{
			name: "should count nested suite tests",
			suite: SuiteResult{
				Tests: []TestResult{{Description: "t1"}},
				Suites: []SuiteResult{
					{Tests: []TestResult{{Description: "s1"}, {Description: "s2"}}},
				},
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.suite.CountTests()

			if got != tt.want {
				t.Errorf("CountTests() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSuiteResult_CountByStatus(t *testing.T) {
	t.Parallel()

	suite := SuiteResult{
		Tests: []TestResult{
			{Status: TestStatusPass},
			{Status: TestStatusFail},
		},
		Suites: []SuiteResult{
			{Tests: []TestResult{{Status: TestStatusPass}, {Status: TestStatusPending}}},
		},
	}

	if got := suite.CountByStatus(TestStatusPass); got != 2 {
		t.Errorf("CountByStatus(pass) = %d, want 2", got)
	}
	if got := suite.CountByStatus(TestStatusFail); got != 1 {
		t.Errorf("CountByStatus(fail) = %d, want 1", got)
	}
	if got := suite.CountByStatus(TestStatusPending); got != 1 {
		t.Errorf("CountByStatus(pending) = %d, want 1", got)
	}
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	d := Duration(1500 * time.Millisecond)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "1500" {
		t.Errorf("Marshal() = %s, want 1500", data)
	}

	var back Duration
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestTestResult_ContractFieldNames(t *testing.T) {
	t.Parallel()

	expected := 2
	result := TestResult{
		ID:                 "id-1",
		Description:        "adds",
		Status:             TestStatusPass,
		Duration:           Duration(5 * time.Millisecond),
		Logs:               []string{"line"},
		AssertionsExpected: &expected,
		AssertionsCount:    2,
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	for _, key := range []string{"id", "description", "status", "duration", "logs", "assertionsExpected", "assertionsCount"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("marshaled TestResult missing %q field", key)
		}
	}
	if _, ok := fields["error"]; ok {
		t.Error("error field should be omitted for passing tests")
	}
}
