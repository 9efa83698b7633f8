package output_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/torosent/calltrack/internal/metrics"
	"github.com/torosent/calltrack/internal/output"
)

func TestNewReport(t *testing.T) {
	report, err := output.NewReport(populated(), metrics.SortByTotal, true, false)
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}
	if _, err := ulid.Parse(report.ID); err != nil {
		t.Errorf("report ID %q is not a ULID: %v", report.ID, err)
	}
	if len(report.Rows) != 2 || report.Rows[0].Function != "main.slow" {
		t.Errorf("rows not sorted by total descending: %+v", report.Rows)
	}
}

func TestPrintJSONReport(t *testing.T) {
	report, _ := output.NewReport(populated(), metrics.SortByFunction, false, false)

	var buf bytes.Buffer
	if err := output.PrintJSONReport(&buf, report); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}

	var decoded struct {
		ID      string        `json:"id"`
		SortKey string        `json:"sort_key"`
		Rows    []metrics.Row `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.ID != report.ID || decoded.SortKey != "FUNCTION" {
		t.Errorf("decoded header = %+v", decoded)
	}
	if len(decoded.Rows) != 2 || decoded.Rows[1].Total != 5 || decoded.Rows[1].Unit != "s" {
		t.Errorf("decoded rows = %+v", decoded.Rows)
	}
}

func TestPrintYAMLReport(t *testing.T) {
	report, _ := output.NewReport(populated(), metrics.SortByFunction, false, false)
	report.Workload = &output.WorkloadSummary{Iterations: 10, Errors: 1, Duration: 1500 * time.Millisecond}

	var buf bytes.Buffer
	if err := output.PrintYAMLReport(&buf, report); err != nil {
		t.Fatalf("PrintYAMLReport() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	rows, ok := decoded["rows"].([]interface{})
	if !ok || len(rows) != 2 {
		t.Fatalf("rows = %#v", decoded["rows"])
	}
	if !strings.Contains(buf.String(), "function: main.fast") {
		t.Errorf("expected row fields in output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "duration: 1.5s") {
		t.Errorf("expected workload duration in output:\n%s", buf.String())
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	report, _ := output.NewReport(populated(), metrics.SortByCalls, true, false)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", report.ID, "main.slow", "main.fast", "(reversed)", "60.0%"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
}

func TestWriteReportFile(t *testing.T) {
	dir := t.TempDir()
	report, _ := output.NewReport(populated(), metrics.SortByFunction, false, false)

	tests := []struct {
		format string
		check  func([]byte) error
	}{
		{"json", func(b []byte) error { var v map[string]interface{}; return json.Unmarshal(b, &v) }},
		{"yaml", func(b []byte) error { var v map[string]interface{}; return yaml.Unmarshal(b, &v) }},
		{"html", func(b []byte) error { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			path := filepath.Join(dir, "nested", "report."+tt.format)
			if err := output.WriteReportFile(path, tt.format, report); err != nil {
				t.Fatalf("WriteReportFile() error = %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(data, []byte(report.ID)) {
				t.Error("report ID missing from file")
			}
			if err := tt.check(data); err != nil {
				t.Errorf("file does not parse as %s: %v", tt.format, err)
			}
		})
	}

	if err := output.WriteReportFile(filepath.Join(dir, "report.csv"), "csv", report); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWriteReportFileConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	reports := make([]output.Report, 8)
	for i := range reports {
		reports[i], _ = output.NewReport(populated(), metrics.SortByFunction, false, false)
	}

	var wg sync.WaitGroup
	for _, r := range reports {
		wg.Add(1)
		go func(r output.Report) {
			defer wg.Done()
			if err := output.WriteReportFile(path, "json", r); err != nil {
				t.Error(err)
			}
		}(r)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded output.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("interleaved report file: %v\n%s", err, data)
	}
}
