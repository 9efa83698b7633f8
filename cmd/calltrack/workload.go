package main

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"iter"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torosent/calltrack/internal/metrics"
	"github.com/torosent/calltrack/internal/runner"
	"github.com/torosent/calltrack/internal/track"
)

const (
	baseRetryDelay = 2 * time.Millisecond
	maxRetryDelay  = 50 * time.Millisecond
	flakyAttempts  = 3
	pagesPerScan   = 3
	failureRate    = 0.3
)

var errTransient = errors.New("transient failure")

type record struct {
	ID      int64
	Payload []byte
}

type page struct {
	Index int
	Items int
}

// demoService simulates the latencies of a small storage backend.
type demoService struct {
	source *jitterSource
	ids    atomic.Int64
}

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newDemoService(seed int64) *demoService {
	return &demoService{source: &jitterSource{rnd: rand.New(rand.NewSource(seed))}}
}

func (s *demoService) FetchRecord(ctx context.Context) (record, error) {
	if err := s.pause(ctx, 2*time.Millisecond); err != nil {
		return record{}, err
	}
	id := s.ids.Add(1)
	return record{ID: id, Payload: []byte(fmt.Sprintf("record-%d", id))}, nil
}

func (s *demoService) Flaky() error {
	time.Sleep(time.Millisecond + s.source.jitter(time.Millisecond))
	if s.source.float() < failureRate {
		return errTransient
	}
	return nil
}

func (s *demoService) ScanPages() iter.Seq[page] {
	return func(yield func(page) bool) {
		for i := 0; i < pagesPerScan; i++ {
			time.Sleep(time.Millisecond + s.source.jitter(time.Millisecond))
			if !yield(page{Index: i, Items: 10 + int(s.source.jitter(10))}) {
				return
			}
		}
	}
}

func (s *demoService) Checksum(data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, errors.New("empty payload")
	}
	return crc32.ChecksumIEEE(data), nil
}

func (s *demoService) pause(ctx context.Context, base time.Duration) error {
	timer := time.NewTimer(base + s.source.jitter(base/2))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// workload cycles through the tracked demo calls, one per iteration.
type workload struct {
	steps []runner.Task
	next  atomic.Uint64
}

func newWorkload(tr *track.Tracker, svc *demoService, source *jitterSource) (*workload, error) {
	micro, err := metrics.UnitFor("us")
	if err != nil {
		return nil, err
	}
	microTracker, err := tr.WithUnit(micro)
	if err != nil {
		return nil, err
	}

	fetch := track.FuncCtx(tr, svc.FetchRecord)
	flaky := track.Call(tr, svc.Flaky)
	scan := track.Seq(tr, svc.ScanPages)
	checksum := track.Func1(microTracker, svc.Checksum)

	w := &workload{}
	w.steps = []runner.Task{
		runner.TaskFunc(func(ctx context.Context) error {
			rec, err := fetch(ctx)
			if err != nil {
				return err
			}
			_, err = checksum(rec.Payload)
			return err
		}),
		runner.WithRetry(runner.TaskFunc(func(context.Context) error {
			return flaky()
		}), newRetryPolicy(source)),
		runner.TaskFunc(func(ctx context.Context) error {
			for p := range scan() {
				if p.Items == 0 {
					return fmt.Errorf("page %d is empty", p.Index)
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			return nil
		}),
	}
	return w, nil
}

func (w *workload) Do(ctx context.Context) error {
	i := w.next.Add(1) - 1
	return w.steps[i%uint64(len(w.steps))].Do(ctx)
}

func newRetryPolicy(source *jitterSource) runner.RetryPolicy {
	return runner.RetryPolicy{
		MaxAttempts: flakyAttempts,
		ShouldRetry: func(err error) bool {
			return errors.Is(err, errTransient)
		},
		DelayFunc: func(attempt int, err error) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			backoff := time.Duration(1<<uint(attempt-1)) * baseRetryDelay
			if backoff > maxRetryDelay {
				backoff = maxRetryDelay
			}
			return backoff + source.jitter(backoff/2)
		},
	}
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}

func (j *jitterSource) float() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rnd.Float64()
}
