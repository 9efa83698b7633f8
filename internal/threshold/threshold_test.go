package threshold

import (
	"strings"
	"testing"

	"github.com/torosent/calltrack/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "average latency",
			input: "main.fetch:avg < 20",
			want: Threshold{
				Function:  "main.fetch",
				Aggregate: "avg",
				Operator:  "<",
				Value:     20,
				Raw:       "main.fetch:avg < 20",
			},
		},
		{
			name:  "method identity",
			input: "github.com/acme/store.(*Store).Get:max<=100.5",
			want: Threshold{
				Function:  "github.com/acme/store.(*Store).Get",
				Aggregate: "max",
				Operator:  "<=",
				Value:     100.5,
				Raw:       "github.com/acme/store.(*Store).Get:max<=100.5",
			},
		},
		{
			name:  "call count",
			input: "  main.fetch:calls >= 10 ",
			want: Threshold{
				Function:  "main.fetch",
				Aggregate: "calls",
				Operator:  ">=",
				Value:     10,
				Raw:       "main.fetch:calls >= 10",
			},
		},
		{name: "empty string", input: "", wantError: true},
		{name: "missing function", input: ":avg < 1", wantError: true},
		{name: "percentiles unsupported", input: "main.fetch:p99 < 10", wantError: true},
		{name: "bad operator", input: "main.fetch:avg != 10", wantError: true},
		{name: "negative value", input: "main.fetch:avg < -1", wantError: true},
		{name: "no aggregate", input: "main.fetch < 10", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("Parse() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name:      "multiple valid thresholds",
			input:     []string{"main.a:avg < 5", "main.b:calls > 1", "main.c:total <= 100"},
			wantCount: 3,
		},
		{
			name:      "empty slice",
			input:     []string{},
			wantCount: 0,
		},
		{
			name:      "one valid, one invalid",
			input:     []string{"main.a:avg < 5", "invalid threshold"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestEvaluator(t *testing.T) {
	rows := []metrics.Row{
		{Function: "main.fetch", Calls: 100, Unit: "ms", Avg: 12.5, Max: 40, Min: 2, Total: 1250},
		{Function: "main.hash", Calls: 10, Unit: "us", Avg: 3, Max: 4, Min: 2, Total: 30},
	}

	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name:       "all pass",
			thresholds: []string{"main.fetch:avg < 20", "main.fetch:calls >= 100", "main.hash:max <= 4"},
			wantPass:   []bool{true, true, true},
		},
		{
			name:       "some fail",
			thresholds: []string{"main.fetch:max < 30", "main.fetch:min > 1", "main.hash:total == 31"},
			wantPass:   []bool{false, true, false},
		},
		{
			name:       "unknown function fails",
			thresholds: []string{"main.missing:calls > 0"},
			wantPass:   []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			results := NewEvaluator(thresholds).Evaluate(rows)
			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}

			failed := 0
			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.2f)",
						i, result.Threshold.Raw, result.Pass, tt.wantPass[i], result.Actual)
				}
				if !tt.wantPass[i] {
					failed++
				}
			}
			if Failed(results) != failed {
				t.Errorf("Failed() = %d, want %d", Failed(results), failed)
			}
		})
	}
}

func TestEvaluatorMessages(t *testing.T) {
	rows := []metrics.Row{{Function: "main.fetch", Calls: 3, Unit: "ms", Avg: 1.5}}
	thresholds, _ := ParseMultiple([]string{"main.fetch:avg < 2", "main.fetch:calls > 5", "main.gone:avg < 1"})
	results := NewEvaluator(thresholds).Evaluate(rows)

	if results[0].Message != "✓ main.fetch:avg < 2: 1.5000 < 2.0000 ms" {
		t.Errorf("message[0] = %q", results[0].Message)
	}
	if results[1].Message != "✗ main.fetch:calls > 5: 3.0000 > 5.0000" {
		t.Errorf("message[1] = %q", results[1].Message)
	}
	if !strings.Contains(results[2].Message, "no observations for main.gone") {
		t.Errorf("message[2] = %q", results[2].Message)
	}
}

func TestEvaluateWithoutThresholds(t *testing.T) {
	if results := NewEvaluator(nil).Evaluate([]metrics.Row{{Function: "main.x"}}); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal equal", 100, "<=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
		{"unknown operator", 1, "!=", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}
