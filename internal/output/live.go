package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torosent/calltrack/internal/metrics"
)

// LiveReporter prints the stats table at a fixed interval while a workload
// runs. With StatsOptions.Clear set, each print redraws the previous one.
type LiveReporter struct {
	reg      *metrics.Registry
	opts     StatsOptions
	interval time.Duration
	writer   io.Writer
	done     chan struct{}
	finished chan struct{}
	active   int32

	mu    sync.Mutex
	err   error
	lines int
}

// NewLiveReporter creates a reporter that prints every interval.
func NewLiveReporter(reg *metrics.Registry, opts StatsOptions, interval time.Duration, writer io.Writer) *LiveReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &LiveReporter{
		reg:      metrics.GetStats(reg),
		opts:     opts,
		interval: interval,
		writer:   writer,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins printing in a background goroutine.
func (p *LiveReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts printing and waits for an in-progress print to finish. When the
// reporter was redrawing in place, the cursor is moved below the last table.
func (p *LiveReporter) Stop() {
	if !atomic.CompareAndSwapInt32(&p.active, 1, 2) {
		return
	}
	close(p.done)
	<-p.finished

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.Clear && p.lines > 0 {
		fmt.Fprintf(p.writer, "\x1b[%dB", p.lines)
	}
}

// Err returns the first print error, typically an unknown sort key.
func (p *LiveReporter) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Tick prints one table immediately.
func (p *LiveReporter) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	lines, err := PrintStats(p.writer, p.reg, p.opts)
	if err != nil && p.err == nil {
		p.err = err
	}
	p.lines = lines
}

func (p *LiveReporter) run() {
	defer close(p.finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Tick()
		case <-p.done:
			return
		}
	}
}
