package harness

import "go.uber.org/zap"

const (
	// DefaultWorkers indicates that ExecuteAll should use GOMAXPROCS as the
	// worker count.
	DefaultWorkers = 0
	// MaxWorkers is the maximum number of concurrent runs ExecuteAll allows.
	MaxWorkers = 1024
)

// options configures a run.
type options struct {
	logger       *zap.Logger
	namePatterns []string
	workers      int
}

// Option is a functional option for Execute and ExecuteAll.
type Option func(*options)

// WithLogger sets the diagnostic logger. Hook errors, registration errors,
// and timer-callback errors are reported through it. Defaults to a no-op
// logger; captured test output is unaffected.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNamePatterns filters which tests execute. Patterns are doublestar
// globs matched against full test names ("suite > nested > test"). Tests
// matching no pattern stay pending in the report. Empty patterns are
// ignored.
func WithNamePatterns(patterns ...string) Option {
	return func(o *options) {
		for _, p := range patterns {
			if p != "" {
				o.namePatterns = append(o.namePatterns, p)
			}
		}
	}
}

// WithWorkers sets the number of concurrent runs in ExecuteAll. Negative
// values are ignored; zero means GOMAXPROCS. Each run remains internally
// sequential regardless.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workers = n
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
