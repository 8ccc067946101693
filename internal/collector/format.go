package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Report is everything printed at the end of a run.
type Report struct {
	RunID      string
	Topology   string
	Elapsed    time.Duration
	Target     int
	Late       int
	Outages    *Stats
	Operations LatencySummary
}

// FormatSeconds renders a duration as fractional seconds with millisecond
// precision, the unit outage statistics are reported in.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Milliseconds())/1000.0, 'f', 3, 64)
}

// FormatDuration formats an operation latency for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// FormatIntervals writes the interval boundaries as one comma separated line.
func FormatIntervals(w io.Writer, s *Stats) {
	parts := make([]string, len(s.Intervals))
	for i, iv := range s.Intervals {
		parts[i] = iv.String()
	}
	fmt.Fprintf(w, "Intervals are %s\n", strings.Join(parts, ","))
}

// FormatStats writes the outage summary block: count, average, min, max and
// one "<p>% <= <seconds>" line per percentile.
func FormatStats(w io.Writer, s *Stats) {
	if s.Empty() {
		fmt.Fprintln(w, "No outages recorded")
		return
	}
	FormatIntervals(w, s)
	fmt.Fprintf(w, "Total tests: %d\n", s.Count)
	fmt.Fprintf(w, "Average (Seconds): %s\n", FormatSeconds(s.Avg))
	fmt.Fprintf(w, "Min (Seconds): %s\n", FormatSeconds(s.Min))
	fmt.Fprintf(w, "Max (Seconds): %s\n", FormatSeconds(s.Max))
	for _, pv := range s.Percentiles {
		fmt.Fprintf(w, "%s%% <= %s\n", strconv.FormatFloat(pv.P, 'f', -1, 64), FormatSeconds(pv.Value))
	}
}

// FormatText writes the report in human-readable format.
func FormatText(w io.Writer, r *Report, thresholds *ThresholdResults) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Outage Benchmark Results")
	fmt.Fprintln(w, "========================")
	fmt.Fprintln(w, "")
	if r.RunID != "" {
		fmt.Fprintf(w, "Run:            %s\n", r.RunID)
	}
	if r.Topology != "" {
		fmt.Fprintf(w, "Topology:       %s\n", r.Topology)
	}
	fmt.Fprintf(w, "Duration:       %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Outages:        %d / %d\n", r.Outages.Count, r.Target)
	fmt.Fprintf(w, "Operations:     %s (%s reads, %s writes, %s failed)\n",
		formatNumber(r.Operations.Reads+r.Operations.Writes),
		formatNumber(r.Operations.Reads), formatNumber(r.Operations.Writes),
		formatNumber(r.Operations.Failures))
	if r.Late > 0 {
		fmt.Fprintf(w, "Late outages:   %d (closed after the run stopped, not counted)\n", r.Late)
	}
	fmt.Fprintln(w, "")
	FormatStats(w, r.Outages)

	if r.Operations.Reads+r.Operations.Writes > r.Operations.Failures {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Operation Latency (successful):")
		fmt.Fprintf(w, "  Avg:    %s\n", FormatDuration(r.Operations.Mean))
		fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(r.Operations.P50))
		fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(r.Operations.P99))
		fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(r.Operations.Max))
	}

	if thresholds != nil && len(thresholds.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Thresholds:")
		for _, result := range thresholds.Results {
			symbol := "✓"
			if !result.Passed {
				symbol = "✗"
			}
			fmt.Fprintf(w, "  %s %s <= %s (actual: %s)\n",
				symbol, result.Name, result.Threshold, result.Actual)
		}
	}
}

// FormatJSON writes the report in JSON format.
func FormatJSON(w io.Writer, r *Report, thresholds *ThresholdResults) {
	output := struct {
		RunID       string             `json:"runId,omitempty"`
		Topology    string             `json:"topology,omitempty"`
		Duration    string             `json:"duration"`
		Target      int                `json:"target"`
		Count       int                `json:"count"`
		Late        int                `json:"late"`
		Avg         *float64           `json:"avgSeconds,omitempty"`
		Min         *float64           `json:"minSeconds,omitempty"`
		Max         *float64           `json:"maxSeconds,omitempty"`
		Percentiles map[string]float64 `json:"percentilesSeconds,omitempty"`
		Intervals   []jsonInterval     `json:"intervals"`
		Operations  jsonOperations     `json:"operations"`
		Thresholds  *ThresholdResults  `json:"thresholds,omitempty"`
	}{
		RunID:      r.RunID,
		Topology:   r.Topology,
		Duration:   r.Elapsed.Round(time.Millisecond).String(),
		Target:     r.Target,
		Count:      r.Outages.Count,
		Late:       r.Late,
		Intervals:  make([]jsonInterval, 0, len(r.Outages.Intervals)),
		Thresholds: thresholds,
	}
	output.Operations = jsonOperations{
		Reads:    r.Operations.Reads,
		Writes:   r.Operations.Writes,
		Failures: r.Operations.Failures,
		Mean:     FormatDuration(r.Operations.Mean),
		P50:      FormatDuration(r.Operations.P50),
		P99:      FormatDuration(r.Operations.P99),
		Max:      FormatDuration(r.Operations.Max),
	}

	if !r.Outages.Empty() {
		avg, lo, hi := r.Outages.Avg.Seconds(), r.Outages.Min.Seconds(), r.Outages.Max.Seconds()
		output.Avg, output.Min, output.Max = &avg, &lo, &hi
		output.Percentiles = make(map[string]float64, len(r.Outages.Percentiles))
		for _, pv := range r.Outages.Percentiles {
			output.Percentiles["p"+strconv.FormatFloat(pv.P, 'f', -1, 64)] = pv.Value.Seconds()
		}
	}
	for _, iv := range r.Outages.Intervals {
		output.Intervals = append(output.Intervals, jsonInterval{
			Seq:     iv.Seq,
			Start:   iv.Start.Format(time.RFC3339Nano),
			End:     iv.End.Format(time.RFC3339Nano),
			Seconds: iv.Duration().Seconds(),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

type jsonInterval struct {
	Seq     int     `json:"seq"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Seconds float64 `json:"seconds"`
}

type jsonOperations struct {
	Reads    int64  `json:"reads"`
	Writes   int64  `json:"writes"`
	Failures int64  `json:"failures"`
	Mean     string `json:"mean"`
	P50      string `json:"p50"`
	P99      string `json:"p99"`
	Max      string `json:"max"`
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
