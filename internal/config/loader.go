package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/torosent/calltrack/internal/metrics"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Defaults returns the configuration used when neither a file nor a flag
// sets a value.
func Defaults() *Config {
	return &Config{
		Sort:         metrics.SortByCalls,
		Interval:     time.Second,
		Output:       OutputTable,
		ReportFormat: ReportFormatJSON,
		Workload: WorkloadConfig{
			Concurrency: 4,
			Duration:    5 * time.Second,
			Arrival:     ArrivalModelUniform,
			Seed:        1,
		},
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.ReportFile = strings.TrimSpace(cfg.ReportFile)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "sort", "sort_key", "sortkey"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("sort: %w", err)
		}
		if val != "" {
			cfg.Sort = normalizeSortKey(val)
		}
	}

	if raw, ok := lookupSetting(settings, "reverse"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("reverse: %w", err)
		}
		cfg.Reverse = val
	}

	if raw, ok := lookupSetting(settings, "compact"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("compact: %w", err)
		}
		cfg.Compact = val
	}

	if raw, ok := lookupSetting(settings, "clear"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		cfg.Clear = val
	}

	if raw, ok := lookupSetting(settings, "interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = dur
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		if val != "" {
			cfg.Output = OutputMode(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "reportfile", "report_file", "report-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("reportFile: %w", err)
		}
		cfg.ReportFile = val
	}

	if raw, ok := lookupSetting(settings, "reportformat", "report_format", "report-format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("reportFormat: %w", err)
		}
		if val != "" {
			cfg.ReportFormat = ReportFormat(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("logErrors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "units"); ok {
		units, err := parseUnits(raw)
		if err != nil {
			return fmt.Errorf("units: %w", err)
		}
		cfg.Units = units
	}

	if raw, ok := lookupSetting(settings, "workload"); ok {
		if err := applyWorkload(&cfg.Workload, raw); err != nil {
			return fmt.Errorf("workload: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracing(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func parseUnits(value interface{}) ([]UnitOverride, error) {
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	units := make([]UnitOverride, 0, len(items))
	for idx, item := range items {
		settings, err := toStringKeyMap(item)
		if err != nil {
			return nil, fmt.Errorf("units[%d]: %w", idx, err)
		}
		u, err := buildUnitOverride(settings)
		if err != nil {
			return nil, fmt.Errorf("units[%d]: %w", idx, err)
		}
		units = append(units, u)
	}
	return units, nil
}

func buildUnitOverride(settings map[string]interface{}) (UnitOverride, error) {
	var u UnitOverride
	if raw, ok := lookupSetting(settings, "function", "identity", "name"); ok {
		val, err := asString(raw)
		if err != nil {
			return u, fmt.Errorf("function: %w", err)
		}
		u.Function = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "label", "unit"); ok {
		val, err := asString(raw)
		if err != nil {
			return u, fmt.Errorf("label: %w", err)
		}
		u.Label = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "divisor", "converter"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return u, fmt.Errorf("divisor: %w", err)
		}
		u.Divisor = val
	}
	return u, nil
}

func applyWorkload(w *WorkloadConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "concurrency"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		w.Concurrency = val
	}
	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		w.Rate = val
	}
	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		w.Duration = dur
	}
	if raw, ok := lookupSetting(settings, "total"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		w.Total = val
	}
	if raw, ok := lookupSetting(settings, "arrival", "arrival_model", "arrival-model"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("arrival: %w", err)
		}
		w.Arrival = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		w.Seed = int64(val)
	}
	return nil
}

func applyTracing(t *TracingConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	return nil
}
