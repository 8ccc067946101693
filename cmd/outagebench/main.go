// Command outagebench measures how long a Redis deployment is unreachable
// during failovers, restarts or network faults, as seen by a client.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"outagebench/internal/collector"
	"outagebench/internal/config"
	"outagebench/internal/coordinator"
	"outagebench/internal/logging"
	"outagebench/internal/metrics"
	"outagebench/internal/outage"
	"outagebench/internal/progress"
	"outagebench/internal/ratelimit"
	"outagebench/internal/store"
	"outagebench/internal/workload"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("outagebench", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitSuccess
		}
		return ExitError
	}

	opts, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	storeFile, err := opts.LoadStore()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	logger, err := logging.New(opts.LogFormat, opts.Verbose)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	client := store.New(storeFile, opts.Cluster, store.WithOpTimeout(opts.OpTimeout))
	defer client.Close()

	coll := collector.NewCollector(opts.Tests)
	ops := collector.NewOperations()
	instruments := metrics.New(runID, client.Topology())

	prog := progress.NewProgress(coll, ops, opts.Quiet)
	prog.SetOutput(stderr)

	trackerOpts := []outage.Option{outage.WithObserver(instruments)}
	if opts.Verbose {
		trackerOpts = append(trackerOpts,
			outage.WithObserver(coordinator.NewTransitionLogger(logger)),
			outage.WithObserver(coordinator.NewIncrementalReport(prog, coll)))
	}
	tracker := outage.NewTracker(coll, trackerOpts...)
	prog.Watch(tracker)
	instruments.Watch(tracker)

	payload := workload.NewPayload(opts.Random, opts.DataSize)
	drivers := make([]coordinator.Stepper, opts.Drivers)
	for i := range drivers {
		drivers[i] = workload.NewDriver(i+1, client, tracker,
			workload.WithPayload(payload),
			workload.WithWriteRatio(opts.WriteRatio),
			workload.WithRateLimiter(ratelimit.NewRateLimiter(opts.MaxOpsPerSecond)),
			workload.WithRecorder(ops),
			workload.WithRecorder(instruments),
			workload.WithSlowOp(opts.SlowOp),
			workload.WithLogger(logger))
	}

	if opts.MetricsAddr != "" {
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: instruments.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", zap.String("addr", opts.MetricsAddr))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var interrupted atomic.Bool
	go func() {
		select {
		case <-sigCh:
			interrupted.Store(true)
			if !opts.Quiet {
				prog.Print("Received interrupt signal, shutting down...")
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("starting outage benchmark",
		zap.String("store", client.Describe()),
		zap.Int("tests", opts.Tests),
		zap.Int("drivers", opts.Drivers),
		zap.Float64("max_ops", opts.MaxOpsPerSecond),
		zap.Bool("random", opts.Random),
		zap.Int("data_size", opts.DataSize))

	prog.Printf("Measuring %d outages on %s with %d drivers", opts.Tests, client.Describe(), opts.Drivers)
	prog.Start()
	result, err := coordinator.NewCoordinator(coll, coordinator.WithLogger(logger)).Run(ctx, drivers)
	prog.Stop()
	if err != nil {
		logger.Error("run aborted", zap.Error(err))
		return ExitError
	}

	report := &collector.Report{
		RunID:      runID,
		Topology:   client.Topology(),
		Elapsed:    result.Elapsed,
		Target:     opts.Tests,
		Late:       result.Late,
		Outages:    result.Stats,
		Operations: ops.Summary(),
	}

	var thresholdResults *collector.ThresholdResults
	if storeFile.Thresholds != nil {
		thresholdResults = storeFile.Thresholds.Check(report)
	}

	if opts.Output == "json" {
		collector.FormatJSON(stdout, report, thresholdResults)
	} else {
		collector.FormatText(stdout, report, thresholdResults)
	}

	if interrupted.Load() || result.Interrupted {
		return ExitSuccess
	}

	if thresholdResults != nil && !thresholdResults.Passed {
		if opts.Output == "text" {
			fmt.Fprintln(stderr, "\nThreshold check failed!")
		}
		return ExitThresholdFailed
	}

	return ExitSuccess
}
