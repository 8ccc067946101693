// Command chaosproxy forwards TCP traffic to a Redis node and cuts it on a
// schedule, so outagebench has outages to measure.
//
// Usage:
//
//	chaosproxy --listen localhost:16379 --upstream localhost:6379 --up 10s --down 3s
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"outagebench/internal/chaos"
	"outagebench/internal/logging"
)

func main() {
	listen := pflag.String("listen", "localhost:16379", "address to accept client connections on")
	upstream := pflag.String("upstream", "localhost:6379", "address of the Redis node to forward to")
	up := pflag.Duration("up", 10*time.Second, "how long traffic flows between outages")
	down := pflag.Duration("down", 3*time.Second, "how long each outage lasts")
	logFormat := pflag.String("log-format", "console", "log format: console, json")
	verbose := pflag.BoolP("verbose", "v", false, "log upstream dial failures")
	pflag.Parse()

	logger, err := logging.New(*logFormat, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	proxy, err := chaos.Listen(*listen, *upstream, chaos.WithLogger(logger))
	if err != nil {
		logger.Fatal("cannot start proxy", zap.Error(err))
	}
	logger.Info("proxy listening",
		zap.String("addr", proxy.Addr()),
		zap.String("upstream", *upstream),
		zap.Duration("up", *up),
		zap.Duration("down", *down))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return proxy.Serve(gctx) })
	g.Go(func() error { return proxy.Run(gctx, chaos.Schedule{Up: *up, Down: *down}) })

	err = g.Wait()
	stats := proxy.Stats()
	logger.Info("proxy stopped",
		zap.Int64("accepted", stats.Accepted),
		zap.Int64("refused", stats.Refused),
		zap.Int64("severed", stats.Severed),
		zap.Int64("outages", stats.Cuts))
	if err != nil {
		logger.Error("proxy failed", zap.Error(err))
		os.Exit(2)
	}
}
