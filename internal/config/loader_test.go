package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/torosent/calltrack/internal/metrics"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsFloat64(t *testing.T) {
	tests := []struct {
		input interface{}
		want  float64
	}{
		{1e9, 1e9},
		{1000, 1000},
		{"0.25", 0.25},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asFloat64(tt.input)
		if err != nil {
			t.Errorf("asFloat64(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asFloat64(%v) = %g, want %g", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{10, 10 * time.Second}, // int treated as seconds
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Defaults()
	settings := map[string]interface{}{
		"sort":     "Tot Lat (ms)",
		"interval": "2s",
		"units": []interface{}{
			map[string]interface{}{"Function": "main.scan", "Label": "s"},
			map[interface{}]interface{}{"identity": "main.hash", "unit": "ns", "converter": 1},
		},
		"workload": map[string]interface{}{
			"concurrency":   8,
			"arrival_model": "Poisson",
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.Sort != metrics.SortByTotal {
		t.Errorf("Sort = %q, want TOTAL", cfg.Sort)
	}
	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", cfg.Interval)
	}
	if len(cfg.Units) != 2 {
		t.Fatalf("Units len = %d, want 2", len(cfg.Units))
	}
	if cfg.Units[0].Function != "main.scan" || cfg.Units[0].Label != "s" {
		t.Errorf("Units[0] = %+v", cfg.Units[0])
	}
	if cfg.Units[1] != (UnitOverride{Function: "main.hash", Label: "ns", Divisor: 1}) {
		t.Errorf("Units[1] = %+v", cfg.Units[1])
	}
	if cfg.Workload.Concurrency != 8 || cfg.Workload.Arrival != ArrivalModelPoisson {
		t.Errorf("Workload = %+v", cfg.Workload)
	}
}

func TestApplyConfigSettingsRejectsMalformedUnits(t *testing.T) {
	cfg := Defaults()
	err := applyConfigSettings(cfg, map[string]interface{}{"units": "main.scan=s"})
	if err == nil {
		t.Fatal("applyConfigSettings() error = nil, want error for non-list units")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--sort=min",
		"--reverse",
		"--output=YAML",
		"--unit=main.b=us,main.a=s",
		"--tracing-endpoint=localhost:4317",
		"--tracing-insecure",
		"--threshold=main.a:avg < 5",
		"--threshold=main.b:calls > 1",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Sort != metrics.SortByMin || !cfg.Reverse {
		t.Errorf("Sort/Reverse = %q/%v", cfg.Sort, cfg.Reverse)
	}
	if cfg.Output != OutputYAML {
		t.Errorf("Output = %q, want yaml", cfg.Output)
	}
	if len(cfg.Units) != 2 || cfg.Units[0].Function != "main.a" || cfg.Units[1].Label != "us" {
		t.Errorf("Units = %+v, want sorted by function", cfg.Units)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if len(cfg.Thresholds) != 2 || cfg.Thresholds[0] != "main.a:avg < 5" {
		t.Errorf("Thresholds = %q", cfg.Thresholds)
	}
	if cfg.Workload.Concurrency != 4 {
		t.Errorf("unchanged flag overrode Concurrency: %d", cfg.Workload.Concurrency)
	}
}

func TestParseUnitsJSON(t *testing.T) {
	units, err := parseUnitsJSON(`{"pkg.(*Store).Get": "us", "main.scan": {"label": "s"}, "main.slow": {"label": "min", "divisor": 6e10}}`)
	if err != nil {
		t.Fatalf("parseUnitsJSON() error = %v", err)
	}
	want := []UnitOverride{
		{Function: "pkg.(*Store).Get", Label: "us"},
		{Function: "main.scan", Label: "s"},
		{Function: "main.slow", Label: "min", Divisor: 6e10},
	}
	if len(units) != len(want) {
		t.Fatalf("units = %+v, want %+v", units, want)
	}
	for i := range want {
		if units[i] != want[i] {
			t.Errorf("units[%d] = %+v, want %+v", i, units[i], want[i])
		}
	}

	for _, bad := range []string{`not json`, `["ms"]`, `{"f": 5}`, `{"f": {"label": "s", "divisor": "big"}}`} {
		if _, err := parseUnitsJSON(bad); err == nil {
			t.Errorf("parseUnitsJSON(%q) error = nil, want error", bad)
		}
	}
}
