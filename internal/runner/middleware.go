package runner

import (
	"context"
	"time"
)

// FailureLogger logs failed iterations.
type FailureLogger interface {
	LogFailure(err error)
}

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	Delay       time.Duration                              // fixed delay between retries (used if DelayFunc nil)
	ShouldRetry func(error) bool                           // predicate; if nil, all errors retried
	DelayFunc   func(attempt int, err error) time.Duration // dynamic backoff; attempt is 1-based
}

type retryTask struct {
	inner  Task
	policy RetryPolicy
}

// WithRetry wraps a Task with retry capability.
func WithRetry(task Task, policy RetryPolicy) Task {
	if policy.MaxAttempts <= 1 {
		return task
	}
	return &retryTask{inner: task, policy: policy}
}

func (r *retryTask) Do(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = r.inner.Do(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == r.policy.MaxAttempts {
			break
		}
		if r.policy.ShouldRetry != nil && !r.policy.ShouldRetry(lastErr) {
			return lastErr
		}

		delay := r.policy.Delay
		if r.policy.DelayFunc != nil {
			delay = r.policy.DelayFunc(attempt, lastErr)
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return lastErr
}

type loggingTask struct {
	inner  Task
	logger FailureLogger
}

// WithLogging wraps a Task to log failures.
func WithLogging(task Task, logger FailureLogger) Task {
	if logger == nil {
		return task
	}
	return &loggingTask{inner: task, logger: logger}
}

func (l *loggingTask) Do(ctx context.Context) error {
	err := l.inner.Do(ctx)
	if err != nil {
		l.logger.LogFailure(err)
	}
	return err
}
