package harness

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Spec is one named snippet body for batch execution.
type Spec struct {
	// Name identifies the spec in its BatchResult.
	Name string
	// Body is the executable snippet body.
	Body Body
}

// BatchResult pairs a spec with its run outcome.
type BatchResult struct {
	// Name is the spec's name.
	Name string
	// Report is the run report; nil when Err is set.
	Report *Report
	// Err is the per-spec execution error, if any.
	Err error
}

// ExecuteAll runs independent snippet bodies concurrently, bounded by
// WithWorkers. Each spec gets its own fresh environment and runs its tests
// strictly sequentially; only whole runs overlap. Results preserve input
// order. The returned error reflects ctx cancellation; per-spec failures
// live in the results.
func ExecuteAll(ctx context.Context, specs []Spec, opts ...Option) ([]BatchResult, error) {
	o := buildOptions(opts)
	workers := o.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	results := make([]BatchResult, len(specs))
	for i, spec := range specs {
		i, spec := i, spec

		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				results[i] = BatchResult{Name: spec.Name, Err: err}
				return nil
			}
			defer sem.Release(1)

			report, err := Execute(gCtx, spec.Body, opts...)
			results[i] = BatchResult{Name: spec.Name, Report: report, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
