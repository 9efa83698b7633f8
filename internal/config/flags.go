package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/torosent/calltrack/internal/metrics"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "calltrack",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Report flags
	flags.StringP("sort", "s", string(metrics.SortByCalls), "Sort key: FUNCTION, CALLS, AVG, MAX, MIN or TOTAL")
	flags.Bool("reverse", false, "Reverse the sort order")
	flags.Bool("compact", false, "Print the table without borders")
	flags.Bool("clear", false, "Reset the statistics after every live print and redraw in place")
	flags.Duration("interval", time.Second, "Refresh interval of live output")
	flags.StringP("output", "o", string(OutputTable), "Output mode: table, json, yaml, dashboard or interactive")
	flags.String("report-file", "", "Write the final report to the specified file path")
	flags.String("report-format", string(ReportFormatJSON), "Report file format (json, yaml or html)")
	flags.StringToString("unit", nil, "Display unit per function in function=label form (ns, us, ms, s)")
	flags.String("units-json", "", `Display units as a JSON object, e.g. {"main.scan":"s","main.hash":{"label":"us","divisor":1000}}`)
	flags.Bool("log-errors", false, "Log each failed tracked call to stderr")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Latency thresholds (repeatable, e.g., 'main.fetch:avg < 20')")

	// Workload flags
	flags.IntP("concurrency", "c", 4, "Number of concurrent workers")
	flags.IntP("rate", "r", 0, "Calls per second limit (0 means unlimited)")
	flags.DurationP("duration", "d", 5*time.Second, "How long to run the workload (e.g. 30s, 1m)")
	flags.IntP("total", "t", 0, "Total number of workload iterations (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing calls (uniform or poisson)")
	flags.Int64("seed", 1, "Seed for the simulated latencies and Poisson arrivals")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables one span per observation)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Use a plaintext connection to the collector")
	flags.String("tracing-service-name", "", "Service name reported with spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of spans to sample (0.0 - 1.0)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("sort") {
		val, err := fs.GetString("sort")
		if err != nil {
			return err
		}
		cfg.Sort = normalizeSortKey(val)
	}
	if fs.Changed("reverse") {
		val, err := fs.GetBool("reverse")
		if err != nil {
			return err
		}
		cfg.Reverse = val
	}
	if fs.Changed("compact") {
		val, err := fs.GetBool("compact")
		if err != nil {
			return err
		}
		cfg.Compact = val
	}
	if fs.Changed("clear") {
		val, err := fs.GetBool("clear")
		if err != nil {
			return err
		}
		cfg.Clear = val
	}
	if fs.Changed("interval") {
		val, err := fs.GetDuration("interval")
		if err != nil {
			return err
		}
		cfg.Interval = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputMode(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("report-file") {
		val, err := fs.GetString("report-file")
		if err != nil {
			return err
		}
		cfg.ReportFile = strings.TrimSpace(val)
	}
	if fs.Changed("report-format") {
		val, err := fs.GetString("report-format")
		if err != nil {
			return err
		}
		cfg.ReportFormat = ReportFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}

	if fs.Changed("units-json") {
		val, err := fs.GetString("units-json")
		if err != nil {
			return err
		}
		units, err := parseUnitsJSON(val)
		if err != nil {
			return fmt.Errorf("units-json: %w", err)
		}
		cfg.Units = mergeUnits(cfg.Units, units)
	}
	if fs.Changed("unit") {
		val, err := fs.GetStringToString("unit")
		if err != nil {
			return err
		}
		functions := make([]string, 0, len(val))
		for fn := range val {
			functions = append(functions, fn)
		}
		sort.Strings(functions)
		units := make([]UnitOverride, 0, len(val))
		for _, fn := range functions {
			name := strings.TrimSpace(fn)
			if name == "" {
				return fmt.Errorf("unit function cannot be empty")
			}
			units = append(units, UnitOverride{Function: name, Label: strings.TrimSpace(val[fn])})
		}
		cfg.Units = mergeUnits(cfg.Units, units)
	}

	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Workload.Concurrency = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Workload.Rate = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Workload.Duration = val
	}
	if fs.Changed("total") {
		val, err := fs.GetInt("total")
		if err != nil {
			return err
		}
		cfg.Workload.Total = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Workload.Arrival = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Workload.Seed = val
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	return nil
}

// mergeUnits replaces overrides for functions named in next and appends the
// rest, keeping the order of first appearance.
func mergeUnits(base, next []UnitOverride) []UnitOverride {
	index := make(map[string]int, len(base))
	out := append([]UnitOverride(nil), base...)
	for i, u := range out {
		index[u.Function] = i
	}
	for _, u := range next {
		if i, ok := index[u.Function]; ok {
			out[i] = u
			continue
		}
		index[u.Function] = len(out)
		out = append(out, u)
	}
	return out
}

func normalizeSortKey(raw string) metrics.SortKey {
	if key, err := metrics.ParseSortKey(raw); err == nil {
		return key
	}
	return metrics.SortKey(strings.TrimSpace(raw))
}
