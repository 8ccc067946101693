// Package store adapts go-redis clients to the engine's Store contract.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"outagebench/internal/config"
	"outagebench/internal/core"
)

const (
	TopologySingle  = "single"
	TopologyCluster = "cluster"
)

// commander is the subset of the go-redis command API the adapter issues.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis is a core.Store backed by a go-redis universal client.
type Redis struct {
	client    redis.UniversalClient
	single    *redis.Client
	topology  string
	opTimeout time.Duration
	target    string
}

// Option configures a Redis adapter.
type Option func(*Redis)

// WithOpTimeout bounds every operation; zero keeps the client timeouts.
func WithOpTimeout(d time.Duration) Option {
	return func(r *Redis) {
		r.opTimeout = d
	}
}

// New builds the adapter for the topology selected by cluster.
func New(file *config.StoreFile, cluster bool, opts ...Option) *Redis {
	if cluster {
		return NewCluster(&file.Store, opts...)
	}
	return NewSingle(&file.Store, opts...)
}

// NewSingle connects to one node through a connection pool.
func NewSingle(cfg *config.Store, opts ...Option) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Single.Address,
		Username:     cfg.Single.Username,
		Password:     cfg.Single.Password,
		DB:           cfg.Single.DB,
		PoolSize:     cfg.Pool.Size,
		MinIdleConns: cfg.Pool.MinIdle,
		PoolTimeout:  cfg.Pool.Timeout,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})
	return NewFromClient(client, opts...)
}

// NewCluster connects to a cluster; the client follows slot redirects.
func NewCluster(cfg *config.Store, opts ...Option) *Redis {
	client := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:        cfg.Cluster.Addresses,
		Username:     cfg.Cluster.Username,
		Password:     cfg.Cluster.Password,
		PoolSize:     cfg.Pool.Size,
		MinIdleConns: cfg.Pool.MinIdle,
		PoolTimeout:  cfg.Pool.Timeout,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient wraps an existing client. A *redis.Client is used in
// single-node mode, where each operation borrows its own connection.
func NewFromClient(client redis.UniversalClient, opts ...Option) *Redis {
	r := &Redis{client: client}
	switch c := client.(type) {
	case *redis.Client:
		r.single = c
		r.topology = TopologySingle
		r.target = c.Options().Addr
	case *redis.ClusterClient:
		r.topology = TopologyCluster
		r.target = strings.Join(c.Options().Addrs, ",")
	default:
		r.topology = fmt.Sprintf("%T", client)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Topology reports "single" or "cluster".
func (r *Redis) Topology() string {
	return r.topology
}

// Read issues GET. A missing key is a successful read.
func (r *Redis) Read(ctx context.Context, key string) error {
	return r.do(ctx, func(ctx context.Context, c commander) error {
		err := c.Get(ctx, key).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
}

// Write issues SET without expiry.
func (r *Redis) Write(ctx context.Context, key, value string) error {
	return r.do(ctx, func(ctx context.Context, c commander) error {
		return c.Set(ctx, key, value, 0).Err()
	})
}

func (r *Redis) do(parent context.Context, fn func(context.Context, commander) error) error {
	ctx := parent
	if r.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, r.opTimeout)
		defer cancel()
	}

	var err error
	if r.single != nil {
		conn := r.single.Conn()
		defer conn.Close()
		err = fn(ctx, conn)
	} else {
		err = fn(ctx, r.client)
	}

	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", core.ErrConnectivity, err)
	}
	return err
}

// Describe summarizes the topology and the pool counters.
func (r *Redis) Describe() string {
	stats := r.client.PoolStats()
	if stats == nil {
		return fmt.Sprintf("%s %s", r.topology, r.target)
	}
	return fmt.Sprintf("%s %s pool[total=%d idle=%d stale=%d hits=%d misses=%d timeouts=%d]",
		r.topology, r.target,
		stats.TotalConns, stats.IdleConns, stats.StaleConns,
		stats.Hits, stats.Misses, stats.Timeouts)
}

// Close releases the client and its pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// serverUnavailable lists reply prefixes sent while a node is loading,
// failing over or has lost its slots.
var serverUnavailable = []string{"LOADING", "CLUSTERDOWN", "TRYAGAIN", "MASTERDOWN", "READONLY"}

// IsConnectivityError reports whether err means the store was unreachable
// rather than that it rejected the command.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		for _, prefix := range serverUnavailable {
			if strings.HasPrefix(msg, prefix) {
				return true
			}
		}
	}

	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "connection pool timeout") ||
		strings.Contains(msg, "use of closed network connection")
}
