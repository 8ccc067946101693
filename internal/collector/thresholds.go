package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thresholds defines pass/fail criteria for a run.
type Thresholds struct {
	Outage      *DurationThresholds `yaml:"outage"`
	FailureRate string              `yaml:"failure_rate"`
}

// DurationThresholds bounds outage durations. Zero fields are not checked.
type DurationThresholds struct {
	Avg time.Duration `yaml:"avg"`
	P50 time.Duration `yaml:"p50"`
	P90 time.Duration `yaml:"p90"`
	P95 time.Duration `yaml:"p95"`
	P99 time.Duration `yaml:"p99"`
	Max time.Duration `yaml:"max"`
}

// ThresholdResult represents the outcome of a single threshold check.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults contains all threshold check results.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// Validate rejects thresholds Check could not evaluate.
func (t *Thresholds) Validate() error {
	if t == nil {
		return nil
	}
	if t.FailureRate != "" {
		if _, err := parsePercentage(t.FailureRate); err != nil {
			return fmt.Errorf("failure_rate: %w", err)
		}
	}
	if d := t.Outage; d != nil {
		for _, v := range []time.Duration{d.Avg, d.P50, d.P90, d.P95, d.P99, d.Max} {
			if v < 0 {
				return fmt.Errorf("outage bounds must not be negative, got %v", v)
			}
		}
	}
	return nil
}

// Check evaluates all thresholds against a report.
func (t *Thresholds) Check(r *Report) *ThresholdResults {
	if t == nil {
		return &ThresholdResults{Passed: true, Results: nil}
	}

	results := &ThresholdResults{
		Passed:  true,
		Results: make([]ThresholdResult, 0),
	}

	if t.Outage != nil && !r.Outages.Empty() {
		results.checkOutageThresholds(t.Outage, r.Outages)
	}

	if t.FailureRate != "" {
		results.checkFailureRate(t.FailureRate, r.Operations)
	}

	return results
}

func (r *ThresholdResults) checkOutageThresholds(thresholds *DurationThresholds, s *Stats) {
	pct := func(p float64) time.Duration {
		v, _ := s.Percentile(p)
		return v
	}
	checks := []struct {
		name      string
		threshold time.Duration
		actual    time.Duration
	}{
		{"outage.avg", thresholds.Avg, s.Avg},
		{"outage.p50", thresholds.P50, pct(50)},
		{"outage.p90", thresholds.P90, pct(90)},
		{"outage.p95", thresholds.P95, pct(95)},
		{"outage.p99", thresholds.P99, pct(99)},
		{"outage.max", thresholds.Max, s.Max},
	}

	for _, check := range checks {
		if check.threshold == 0 {
			continue
		}

		passed := check.actual <= check.threshold
		if !passed {
			r.Passed = false
		}

		r.Results = append(r.Results, ThresholdResult{
			Name:      check.name,
			Passed:    passed,
			Threshold: FormatSeconds(check.threshold) + "s",
			Actual:    FormatSeconds(check.actual) + "s",
		})
	}
}

func (r *ThresholdResults) checkFailureRate(rate string, ops LatencySummary) {
	thresholdRate, err := parsePercentage(rate)
	if err != nil {
		r.Passed = false
		r.Results = append(r.Results, ThresholdResult{
			Name:      "operations.failure_rate",
			Threshold: rate,
			Actual:    "invalid threshold",
		})
		return
	}

	total := ops.Reads + ops.Writes
	actualRate := 0.0
	if total > 0 {
		actualRate = float64(ops.Failures) / float64(total) * 100
	}
	passed := actualRate <= thresholdRate
	if !passed {
		r.Passed = false
	}

	r.Results = append(r.Results, ThresholdResult{
		Name:      "operations.failure_rate",
		Passed:    passed,
		Threshold: rate,
		Actual:    fmt.Sprintf("%.2f%%", actualRate),
	})
}

func parsePercentage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("invalid percentage format: %s", s)
	}
	s = strings.TrimSuffix(s, "%")
	return strconv.ParseFloat(s, 64)
}

// Violations returns only the failed threshold results.
func (r *ThresholdResults) Violations() []ThresholdResult {
	violations := make([]ThresholdResult, 0)
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}
