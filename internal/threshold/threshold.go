// Package threshold evaluates pass/fail assertions against tracked function
// statistics, such as "main.fetch:avg < 20".
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/calltrack/internal/metrics"
)

var pattern = regexp.MustCompile(`^(.+):([a-z]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Threshold represents an assertion on one function's statistics.
type Threshold struct {
	Function  string  // identity as recorded in the registry
	Aggregate string  // calls, avg, min, max or total
	Operator  string  // <, <=, >, >=, ==
	Value     float64 // compared in the function's display unit
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against snapshot rows.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against rows. A threshold naming a function
// without observations fails.
func (e *Evaluator) Evaluate(rows []metrics.Row) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	byFunction := make(map[string]metrics.Row, len(rows))
	for _, r := range rows {
		byFunction[r.Function] = r
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, byFunction))
	}
	return results
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

func evaluateOne(t Threshold, rows map[string]metrics.Row) Result {
	row, ok := rows[t.Function]
	if !ok {
		return Result{
			Threshold: t,
			Message:   fmt.Sprintf("✗ %s: no observations for %s", t.Raw, t.Function),
		}
	}

	actual := extractValue(t.Aggregate, row)
	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	unit := row.Unit
	if t.Aggregate == "calls" {
		unit = ""
	}
	message := strings.TrimSpace(fmt.Sprintf("%s %s: %.4f %s %.4f %s", status, t.Raw, actual, t.Operator, t.Value, unit))
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "main.fetch:avg < 20"            (average latency in the function's unit)
// - "main.(*Store).Get:max <= 100"   (maximum latency)
// - "main.fetch:min > 0.5"           (minimum latency)
// - "main.fetch:total < 5000"        (summed latency)
// - "main.fetch:calls >= 10"         (observation count)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: function:aggregate operator value, e.g., 'main.fetch:avg < 20')", s)
	}

	function := strings.TrimSpace(matches[1])
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if function == "" {
		return Threshold{}, fmt.Errorf("threshold %q names no function", s)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: calls, avg, min, max, total)", aggregate)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Function:  function,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isValidAggregate(aggregate string) bool {
	switch aggregate {
	case "calls", "avg", "min", "max", "total":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractValue(aggregate string, row metrics.Row) float64 {
	switch aggregate {
	case "calls":
		return float64(row.Calls)
	case "avg":
		return row.Avg
	case "min":
		return row.Min
	case "max":
		return row.Max
	default:
		return row.Total
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
