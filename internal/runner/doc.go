// Package runner drives the workload whose calls calltrack measures.
//
// The runner executes a [Task] repeatedly with:
//   - Configurable concurrency levels
//   - Rate limiting (calls per second)
//   - Duration-based and count-based termination
//   - Uniform or Poisson arrival pacing
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Concurrency:   4,
//		Total:         1000,
//		Duration:      time.Minute,
//		RatePerSecond: 100,
//		Task:          myTask,
//	})
//	result := r.Run(ctx)
//
// # Middleware
//
// Tasks compose with [WithLogging], which reports failures, and
// [WithRetry], which re-runs a failing task according to a [RetryPolicy].
package runner
