package collector_test

import (
	"fmt"
	"os"
	"time"

	"outagebench/internal/collector"
	"outagebench/internal/outage"
)

func ExampleComputeStats() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var intervals []outage.Interval
	for i := 1; i <= 4; i++ {
		intervals = append(intervals, outage.Interval{
			Seq:   i,
			Start: start,
			End:   start.Add(time.Duration(i) * time.Second),
		})
	}

	stats := collector.ComputeStats(intervals)
	collector.FormatStats(os.Stdout, stats)
	// Output:
	// Intervals are [00:00:00.000 -> 00:00:01.000 (1.000s)],[00:00:00.000 -> 00:00:02.000 (2.000s)],[00:00:00.000 -> 00:00:03.000 (3.000s)],[00:00:00.000 -> 00:00:04.000 (4.000s)]
	// Total tests: 4
	// Average (Seconds): 2.500
	// Min (Seconds): 1.000
	// Max (Seconds): 4.000
	// 50% <= 2.000
	// 90% <= 4.000
	// 95% <= 4.000
	// 99% <= 4.000
}

func ExampleNewCollector() {
	c := collector.NewCollector(2)

	start := time.Now()
	c.Add(outage.Interval{Seq: 1, Start: start, End: start.Add(time.Second)})
	c.Add(outage.Interval{Seq: 2, Start: start, End: start.Add(2 * time.Second)})

	<-c.Done()
	c.Seal()
	fmt.Printf("Collected %d intervals\n", c.Len())
	// Output: Collected 2 intervals
}
