package collector

import (
	"math"
	"slices"
	"time"

	"outagebench/internal/outage"
)

// Percentiles are the nearest-rank percentiles every report carries.
var Percentiles = []float64{50, 90, 95, 99}

// PercentileValue is one entry of the percentile table.
type PercentileValue struct {
	P     float64       `json:"p"`
	Value time.Duration `json:"value"`
}

// Stats summarizes a set of closed intervals.
type Stats struct {
	Count       int               `json:"count"`
	Min         time.Duration     `json:"min"`
	Max         time.Duration     `json:"max"`
	Avg         time.Duration     `json:"avg"`
	Total       time.Duration     `json:"total"`
	Percentiles []PercentileValue `json:"percentiles"`
	Intervals   []outage.Interval `json:"intervals"`
}

// Empty reports whether there is no data to summarize.
func (s *Stats) Empty() bool {
	return s.Count == 0
}

// Percentile returns the value computed for p, if present.
func (s *Stats) Percentile(p float64) (time.Duration, bool) {
	for _, pv := range s.Percentiles {
		if pv.P == p {
			return pv.Value, true
		}
	}
	return 0, false
}

// ComputeStats reduces intervals to count, mean, min, max and percentiles.
// Pure function; the input slice is not modified.
func ComputeStats(intervals []outage.Interval) *Stats {
	s := &Stats{
		Intervals: make([]outage.Interval, len(intervals)),
	}
	copy(s.Intervals, intervals)

	if len(intervals) == 0 {
		return s
	}

	sorted := make([]time.Duration, len(intervals))
	for i, iv := range intervals {
		sorted[i] = iv.Duration()
	}
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	s.Count = len(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Total = total
	s.Avg = total / time.Duration(len(sorted))
	s.Percentiles = make([]PercentileValue, 0, len(Percentiles))
	for _, p := range Percentiles {
		s.Percentiles = append(s.Percentiles, PercentileValue{P: p, Value: ComputePercentile(sorted, p)})
	}
	return s
}

// ComputePercentile returns the nearest-rank percentile p (0-100) of an
// ascending slice: the element at 1-indexed rank ceil(p/100 * N).
// Returns 0 for an empty slice.
func ComputePercentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(n) / 100))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}
