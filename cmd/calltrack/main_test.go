package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torosent/calltrack/internal/config"
	"github.com/torosent/calltrack/internal/metrics"
	"github.com/torosent/calltrack/internal/output"
	"github.com/torosent/calltrack/internal/runner"
	"github.com/torosent/calltrack/internal/track"
)

func rowBySuffix(rows []metrics.Row, suffix string) (metrics.Row, bool) {
	for _, r := range rows {
		if strings.HasSuffix(r.Function, suffix) {
			return r, true
		}
	}
	return metrics.Row{}, false
}

func TestRunJSONOutput(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var stdout bytes.Buffer
	err := run([]string{"--output", "json", "--total", "9", "--concurrency", "1", "--sort", "FUNCTION"}, &stdout)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var report output.Report
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout.String())
	}
	if report.Workload == nil || report.Workload.Iterations != 9 {
		t.Fatalf("workload = %+v, want 9 iterations", report.Workload)
	}

	fetch, ok := rowBySuffix(report.Rows, ".(*demoService).FetchRecord")
	if !ok || fetch.Calls != 3 || fetch.Unit != "ms" {
		t.Errorf("fetch row = %+v", fetch)
	}
	checksum, ok := rowBySuffix(report.Rows, ".(*demoService).Checksum")
	if !ok || checksum.Calls != 3 || checksum.Unit != "us" {
		t.Errorf("checksum row = %+v", checksum)
	}
	scan, ok := rowBySuffix(report.Rows, ".(*demoService).ScanPages")
	if !ok || scan.Calls != 3*pagesPerScan {
		t.Errorf("scan row = %+v, want one observation per page", scan)
	}
	flaky, ok := rowBySuffix(report.Rows, ".(*demoService).Flaky")
	if !ok || flaky.Calls < 3 || flaky.Calls > 3*flakyAttempts {
		t.Errorf("flaky row = %+v, want 3 to %d attempts", flaky, 3*flakyAttempts)
	}

	for i := 1; i < len(report.Rows); i++ {
		if report.Rows[i-1].Function > report.Rows[i].Function {
			t.Errorf("rows not sorted by function: %q before %q", report.Rows[i-1].Function, report.Rows[i].Function)
		}
	}
}

func TestRunWritesReportFile(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "out", "report.yaml")

	var stdout bytes.Buffer
	err := run([]string{
		"--output", "yaml", "--total", "3", "--concurrency", "1",
		"--report-file", path, "--report-format", "yaml",
		"--unit", "custom.identity=s",
	}, &stdout)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !bytes.Equal(data, stdout.Bytes()) {
		t.Errorf("report file differs from stdout report")
	}
	if !strings.Contains(string(data), "iterations: 3") {
		t.Errorf("report missing workload summary:\n%s", data)
	}
}

func TestRunTableOutput(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var stdout bytes.Buffer
	if err := run([]string{"--total", "3", "--concurrency", "1", "--compact"}, &stdout); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "FUNCTION") || !strings.Contains(out, "Iterations: 3") {
		t.Errorf("unexpected table output:\n%s", out)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	var stdout bytes.Buffer
	err := run([]string{"--sort", "P99"}, &stdout)
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestRunHelp(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--help"}, &stdout); err != nil {
		t.Fatalf("--help should not fail: %v", err)
	}
}

func TestRegisterUnits(t *testing.T) {
	reg := metrics.NewRegistry()
	err := registerUnits(reg, []config.UnitOverride{
		{Function: "main.a", Label: "us"},
		{Function: "main.b", Label: "min", Divisor: 6e10},
	})
	if err != nil {
		t.Fatalf("registerUnits() error = %v", err)
	}
	if u, _ := reg.UnitOf("main.a"); u.Label != "us" {
		t.Errorf("main.a unit = %v", u)
	}
	if u, _ := reg.UnitOf("main.b"); u.Label != "min" || u.Divisor != 6e10 {
		t.Errorf("main.b unit = %v", u)
	}

	err = registerUnits(reg, []config.UnitOverride{{Function: "main.a", Label: "s"}})
	if !errors.Is(err, metrics.ErrUnitConflict) {
		t.Errorf("error = %v, want ErrUnitConflict", err)
	}
	err = registerUnits(reg, []config.UnitOverride{{Function: "main.c", Label: "fortnights"}})
	if !errors.Is(err, metrics.ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestToRunnerArrivalModel(t *testing.T) {
	tests := []struct {
		input config.ArrivalModel
		want  runner.ArrivalModel
	}{
		{config.ArrivalModelUniform, runner.ArrivalModelUniform},
		{config.ArrivalModelPoisson, runner.ArrivalModelPoisson},
		{"POISSON", runner.ArrivalModelPoisson},
		{"unknown", runner.ArrivalModelUniform}, // Default fallback
	}

	for _, tt := range tests {
		got := toRunnerArrivalModel(tt.input)
		if got != tt.want {
			t.Errorf("toRunnerArrivalModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStderrLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &stderrLogger{w: &buf}
	l.Printf("unit for %s not changed", "main.x")
	l.LogFailure(nil)
	l.LogFailure(errTransient)

	want := "[calltrack] unit for main.x not changed\n[calltrack] call failed: transient failure\n"
	if buf.String() != want {
		t.Errorf("logged %q, want %q", buf.String(), want)
	}
}

func TestWorkloadCyclesSteps(t *testing.T) {
	reg := metrics.NewRegistry()
	svc := newDemoService(7)
	w, err := newWorkload(track.New(reg), svc, svc.source)
	if err != nil {
		t.Fatalf("newWorkload() error = %v", err)
	}

	for i := 0; i < 6; i++ {
		if err := w.Do(context.Background()); err != nil && !errors.Is(err, errTransient) {
			t.Fatalf("Do() error = %v", err)
		}
	}

	counts := map[string]int64{}
	reg.Range(func(identity string, stat metrics.StatSnapshot) bool {
		counts[identity[strings.LastIndex(identity, ".")+1:]] = stat.Count
		return true
	})
	if counts["FetchRecord"] != 2 || counts["Checksum"] != 2 {
		t.Errorf("counts = %v, want 2 fetches and 2 checksums", counts)
	}
	if counts["ScanPages"] != 2*pagesPerScan {
		t.Errorf("ScanPages count = %d, want %d", counts["ScanPages"], 2*pagesPerScan)
	}
	if counts["Flaky"] < 2 {
		t.Errorf("Flaky count = %d, want at least 2", counts["Flaky"])
	}
}

func TestWorkloadStopsOnCancel(t *testing.T) {
	svc := newDemoService(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.FetchRecord(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchRecord() error = %v, want context.Canceled", err)
	}
}

func TestRetryPolicy(t *testing.T) {
	policy := newRetryPolicy(&jitterSource{rnd: newDemoService(3).source.rnd})

	if policy.MaxAttempts != flakyAttempts {
		t.Errorf("MaxAttempts = %d", policy.MaxAttempts)
	}
	if !policy.ShouldRetry(errTransient) || policy.ShouldRetry(errors.New("fatal")) {
		t.Error("only transient failures should be retried")
	}
	for attempt := 1; attempt <= 10; attempt++ {
		d := policy.DelayFunc(attempt, errTransient)
		if d < baseRetryDelay || d > maxRetryDelay+maxRetryDelay/2 {
			t.Errorf("attempt %d delay %v out of range", attempt, d)
		}
	}
}

func TestChecksumRejectsEmpty(t *testing.T) {
	svc := newDemoService(1)
	if _, err := svc.Checksum(nil); err == nil {
		t.Error("expected error for empty payload")
	}
	sum, err := svc.Checksum([]byte("record-1"))
	if err != nil || sum == 0 {
		t.Errorf("Checksum() = %d, %v", sum, err)
	}
}

func TestCheckThresholds(t *testing.T) {
	rows := []metrics.Row{{Function: "main.fetch", Calls: 4, Unit: "ms", Avg: 2}}

	var buf bytes.Buffer
	if err := checkThresholds(nil, rows, &buf); err != nil || buf.Len() != 0 {
		t.Errorf("no thresholds: err = %v, output %q", err, buf.String())
	}

	buf.Reset()
	if err := checkThresholds([]string{"main.fetch:avg < 3", "main.fetch:calls == 4"}, rows, &buf); err != nil {
		t.Errorf("passing thresholds: err = %v", err)
	}
	if !strings.Contains(buf.String(), "✓ main.fetch:avg < 3") {
		t.Errorf("missing result line:\n%s", buf.String())
	}

	buf.Reset()
	err := checkThresholds([]string{"main.fetch:avg < 1", "main.fetch:calls == 4"}, rows, &buf)
	if err == nil || err.Error() != "1 of 2 thresholds failed" {
		t.Errorf("failing thresholds: err = %v", err)
	}
}

func TestRunFailsOnThreshold(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var stdout bytes.Buffer
	err := run([]string{"--output", "json", "--total", "3", "--concurrency", "1", "--threshold", "main.absent:calls > 0"}, &stdout)
	if err == nil || !strings.Contains(err.Error(), "thresholds failed") {
		t.Fatalf("run() error = %v, want threshold failure", err)
	}
	if stdout.Len() == 0 {
		t.Error("report should still be printed before thresholds are checked")
	}
}
