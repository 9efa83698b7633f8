package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/torosent/calltrack/internal/metrics"
)

// Report is the machine-readable form of a snapshot.
type Report struct {
	ID          string           `json:"id" yaml:"id"`
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	SortKey     metrics.SortKey  `json:"sort_key" yaml:"sort_key"`
	Reverse     bool             `json:"reverse" yaml:"reverse"`
	Workload    *WorkloadSummary `json:"workload,omitempty" yaml:"workload,omitempty"`
	Rows        []metrics.Row    `json:"rows" yaml:"rows"`
}

// WorkloadSummary describes the run that produced a report.
type WorkloadSummary struct {
	Iterations int64         `json:"iterations" yaml:"iterations"`
	Errors     int64         `json:"errors" yaml:"errors"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
}

// NewReport snapshots reg into a Report with a fresh ULID.
func NewReport(reg *metrics.Registry, key metrics.SortKey, reverse, clear bool) (Report, error) {
	rows, err := metrics.FormatSnapshot(reg, key, reverse, clear)
	if err != nil {
		return Report{}, err
	}
	now := time.Now().UTC()
	return Report{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		GeneratedAt: now,
		SortKey:     key,
		Reverse:     reverse,
		Rows:        rows,
	}, nil
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
