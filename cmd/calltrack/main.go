package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/torosent/calltrack/internal/config"
	"github.com/torosent/calltrack/internal/dashboard"
	"github.com/torosent/calltrack/internal/metrics"
	"github.com/torosent/calltrack/internal/output"
	"github.com/torosent/calltrack/internal/runner"
	"github.com/torosent/calltrack/internal/threshold"
	"github.com/torosent/calltrack/internal/tracing"
	"github.com/torosent/calltrack/internal/track"
	"github.com/torosent/calltrack/internal/tui"
)

const shutdownTimeout = 5 * time.Second

type stderrLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		_ = provider.Shutdown(shutdownCtx)
	}()

	logger := &stderrLogger{w: os.Stderr}
	reg := metrics.NewRegistry()
	if err := registerUnits(reg, cfg.Units); err != nil {
		return err
	}
	tr := track.New(reg, track.WithLogger(logger), track.WithTracer(provider.Tracer()))

	svc := newDemoService(cfg.Workload.Seed)
	w, err := newWorkload(tr, svc, svc.source)
	if err != nil {
		return err
	}

	var task runner.Task = w
	if cfg.LogErrors {
		task = runner.WithLogging(task, logger)
	}

	r := runner.New(runner.Options{
		Concurrency:   cfg.Workload.Concurrency,
		Total:         cfg.Workload.Total,
		Duration:      cfg.Workload.Duration,
		RatePerSecond: cfg.Workload.Rate,
		ArrivalModel:  toRunnerArrivalModel(cfg.Workload.Arrival),
		RandomSeed:    cfg.Workload.Seed,
		Task:          task,
	})

	result, err := execute(ctx, cancel, cfg, reg, r, stdout)
	if err != nil {
		return err
	}

	report, err := output.NewReport(reg, cfg.Sort, cfg.Reverse, false)
	if err != nil {
		return err
	}
	report.Workload = &output.WorkloadSummary{
		Iterations: result.Total,
		Errors:     result.Errors,
		Duration:   result.Duration,
	}

	switch cfg.Output {
	case config.OutputJSON:
		if err := output.PrintJSONReport(stdout, report); err != nil {
			return err
		}
	case config.OutputYAML:
		if err := output.PrintYAMLReport(stdout, report); err != nil {
			return err
		}
	default:
		output.PrintTable(stdout, report.Rows, cfg.Compact)
		fmt.Fprintf(stdout, "\nIterations: %d | Errors: %d | Duration: %s\n",
			result.Total, result.Errors, result.Duration.Round(time.Millisecond))
	}

	if cfg.ReportFile != "" {
		if err := output.WriteReportFile(cfg.ReportFile, string(cfg.ReportFormat), report); err != nil {
			return err
		}
	}

	return checkThresholds(cfg.Thresholds, report.Rows, os.Stderr)
}

// checkThresholds prints every threshold result and fails when any of them
// did not pass.
func checkThresholds(raw []string, rows []metrics.Row, w io.Writer) error {
	thresholds, err := threshold.ParseMultiple(raw)
	if err != nil {
		return err
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(rows)
	if len(results) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Thresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	if failed := threshold.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

// execute runs the workload under the renderer selected by cfg.Output.
func execute(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, reg *metrics.Registry, r *runner.Runner, stdout io.Writer) (runner.Result, error) {
	switch cfg.Output {
	case config.OutputTable:
		live := output.NewLiveReporter(reg, output.StatsOptions{
			SortKey: cfg.Sort,
			Compact: cfg.Compact,
			Reverse: cfg.Reverse,
			Clear:   cfg.Clear,
		}, cfg.Interval, stdout)
		live.Start()
		result := r.Run(ctx)
		live.Stop()
		fmt.Fprintln(stdout)
		return result, live.Err()

	case config.OutputDashboard:
		dash, err := dashboard.New(reg, cfg.Sort, cfg.Reverse, dashboard.RunInfo{
			Concurrency: cfg.Workload.Concurrency,
			Duration:    cfg.Workload.Duration,
			Total:       cfg.Workload.Total,
			Rate:        cfg.Workload.Rate,
			Arrival:     string(cfg.Workload.Arrival),
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return runner.Result{}, err
		}
		dash.Start()
		result := r.Run(ctx)
		dash.Stop()
		return result, nil

	case config.OutputInteractive:
		runCtx, stop := context.WithCancel(ctx)
		defer stop()
		done := make(chan runner.Result, 1)
		go func() { done <- r.Run(runCtx) }()

		err := tui.Run(ctx, tui.New(reg, cfg.Sort, cfg.Reverse, cfg.Interval))
		stop()
		return <-done, err

	default:
		return r.Run(ctx), nil
	}
}

func registerUnits(reg *metrics.Registry, overrides []config.UnitOverride) error {
	for _, o := range overrides {
		unit, err := o.Unit()
		if err != nil {
			return fmt.Errorf("unit for %s: %w", o.Function, err)
		}
		if err := reg.SetUnit(o.Function, unit); err != nil {
			return err
		}
	}
	return nil
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch strings.ToLower(string(model)) {
	case string(config.ArrivalModelPoisson):
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}

func (l *stderrLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[calltrack] "+format+"\n", args...)
}

func (l *stderrLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.Printf("call failed: %v", err)
}
