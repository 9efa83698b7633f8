package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/torosent/calltrack/internal/metrics"
	"github.com/torosent/calltrack/internal/threshold"
)

type OutputMode string

const (
	OutputTable       OutputMode = "table"
	OutputJSON        OutputMode = "json"
	OutputYAML        OutputMode = "yaml"
	OutputDashboard   OutputMode = "dashboard"
	OutputInteractive OutputMode = "interactive"
)

type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatYAML ReportFormat = "yaml"
	ReportFormatHTML ReportFormat = "html"
)

type Config struct {
	Sort         metrics.SortKey `mapstructure:"sort"`
	Reverse      bool            `mapstructure:"reverse"`
	Compact      bool            `mapstructure:"compact"`
	Clear        bool            `mapstructure:"clear"`
	Interval     time.Duration   `mapstructure:"interval"`
	Output       OutputMode      `mapstructure:"output"`
	ReportFile   string          `mapstructure:"report_file"`
	ReportFormat ReportFormat    `mapstructure:"report_format"`
	Units        []UnitOverride  `mapstructure:"units"`
	LogErrors    bool            `mapstructure:"log_errors"`
	Thresholds   []string        `mapstructure:"thresholds"`
	Workload     WorkloadConfig  `mapstructure:"workload"`
	Tracing      TracingConfig   `mapstructure:"tracing"`
	ConfigFile   string          `mapstructure:"-"`
}

// UnitOverride assigns a display unit to one function identity. When Divisor
// is zero the label must be one of the well-known units.
type UnitOverride struct {
	Function string  `mapstructure:"function"`
	Label    string  `mapstructure:"label"`
	Divisor  float64 `mapstructure:"divisor"`
}

// Unit resolves the override into a validated metrics.Unit.
func (u UnitOverride) Unit() (metrics.Unit, error) {
	if u.Divisor == 0 {
		return metrics.UnitFor(u.Label)
	}
	return metrics.NewUnit(u.Label, u.Divisor)
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type WorkloadConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Rate        int           `mapstructure:"rate"`
	Duration    time.Duration `mapstructure:"duration"`
	Total       int           `mapstructure:"total"`
	Arrival     ArrivalModel  `mapstructure:"arrival"`
	Seed        int64         `mapstructure:"seed"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if !c.Sort.Valid() {
		issues = append(issues, fmt.Sprintf("sort key %q is not supported", c.Sort))
	}
	if c.Interval <= 0 {
		issues = append(issues, "interval must be > 0")
	}

	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML, OutputDashboard, OutputInteractive:
	default:
		issues = append(issues, fmt.Sprintf("output: must be 'table', 'json', 'yaml', 'dashboard', or 'interactive', got %q", c.Output))
	}

	if strings.TrimSpace(c.ReportFile) != "" {
		switch c.ReportFormat {
		case ReportFormatJSON, ReportFormatYAML, ReportFormatHTML:
		default:
			issues = append(issues, fmt.Sprintf("report_format: must be one of json, yaml, html, got %q", c.ReportFormat))
		}
	}

	issues = append(issues, validateUnits(c.Units)...)

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}
	issues = append(issues, validateWorkload(c.Workload)...)
	issues = append(issues, validateTracing(c.Tracing)...)

	// Security warning for plaintext OTLP export
	if c.Tracing.Endpoint != "" && c.Tracing.Insecure {
		fmt.Fprintln(os.Stderr, "WARNING: OTLP export is using plaintext (insecure: true). Only use this with a local collector.")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateUnits(units []UnitOverride) []string {
	var issues []string
	seen := map[string]int{}
	for idx, u := range units {
		fn := strings.TrimSpace(u.Function)
		if fn == "" {
			issues = append(issues, fmt.Sprintf("units[%d]: function is required", idx))
		} else if prev, ok := seen[fn]; ok {
			issues = append(issues, fmt.Sprintf("units[%d]: duplicate function also defined at index %d", idx, prev))
		} else {
			seen[fn] = idx
		}
		if _, err := u.Unit(); err != nil {
			issues = append(issues, fmt.Sprintf("units[%d]: %v", idx, err))
		}
	}
	return issues
}

func validateWorkload(w WorkloadConfig) []string {
	var issues []string
	if w.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if w.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if w.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if w.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if w.Total == 0 && w.Duration == 0 {
		issues = append(issues, "one of total or duration must be set")
	}
	model := w.Arrival
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform, ArrivalModelPoisson:
	default:
		issues = append(issues, fmt.Sprintf("arrival model %q is not supported", w.Arrival))
	}
	if w.Arrival == ArrivalModelPoisson && w.Rate == 0 {
		issues = append(issues, "poisson arrival requires rate > 0")
	}
	return issues
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	return issues
}
