package coordinator

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"outagebench/internal/collector"
	"outagebench/internal/core"
	"outagebench/internal/outage"
)

func TestIncrementalReport(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	c := collector.NewCollector(0)
	out := &core.MockWriter{}
	tracker := outage.NewTracker(c,
		outage.WithClock(clock),
		outage.WithObserver(NewIncrementalReport(out, c)))

	tracker.ReportFailure()
	if out.String() != "" {
		t.Errorf("expected no report on disconnect, got %q", out.String())
	}

	clock.Advance(2 * time.Second)
	tracker.ReportSuccess()
	if !strings.Contains(out.String(), "Total tests: 1\n") {
		t.Errorf("expected report after first closure, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Average (Seconds): 2.000\n") {
		t.Errorf("expected average of the closed interval, got %q", out.String())
	}

	tracker.ReportFailure()
	clock.Advance(4 * time.Second)
	tracker.ReportSuccess()
	if !strings.Contains(out.String(), "Total tests: 2\n") {
		t.Errorf("expected cumulative report, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Max (Seconds): 4.000\n") {
		t.Errorf("expected max over both intervals, got %q", out.String())
	}
}

func TestTransitionLogger(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	obsCore, recorded := observer.New(zapcore.InfoLevel)
	tracker := outage.NewTracker(nil,
		outage.WithClock(clock),
		outage.WithObserver(NewTransitionLogger(zap.New(obsCore))))

	tracker.ReportFailure()
	clock.Advance(1500 * time.Millisecond)
	tracker.ReportSuccess()

	entries := recorded.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "Disconnected" || entries[1].Message != "Connected" {
		t.Errorf("unexpected messages: %q, %q", entries[0].Message, entries[1].Message)
	}
	fields := entries[1].ContextMap()
	if fields["outage"] != 1500*time.Millisecond {
		t.Errorf("outage field = %v", fields["outage"])
	}
	if fields["seq"] != int64(1) {
		t.Errorf("seq field = %v", fields["seq"])
	}
}
