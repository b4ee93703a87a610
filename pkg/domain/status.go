package domain

// TestStatus represents the execution state of a test.
// The values are a stable contract consumed by presentation layers.
type TestStatus string

// Test status values, in lifecycle order.
const (
	// TestStatusPending indicates a test that has not executed yet,
	// or was filtered out of the run.
	TestStatusPending TestStatus = "pending"
	// TestStatusRunning indicates a test currently inside its execution window.
	TestStatusRunning TestStatus = "running"
	// TestStatusPass indicates a test that completed without failure.
	TestStatusPass TestStatus = "pass"
	// TestStatusFail indicates a test that failed an assertion, threw,
	// or missed its declared assertion count.
	TestStatusFail TestStatus = "fail"
)
