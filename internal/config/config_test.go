package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStoreFile_SingleNode(t *testing.T) {
	content := `
store:
  single:
    address: "redis.internal:6380"
    password: "secret"
    db: 2
  pool:
    size: 16
    min_idle: 4
    timeout: 2s
  dial_timeout: 500ms
  read_timeout: 1s
`
	cfg := loadStoreFromString(t, content)

	assert.Equal(t, "redis.internal:6380", cfg.Store.Single.Address)
	assert.Equal(t, "secret", cfg.Store.Single.Password)
	assert.Equal(t, 2, cfg.Store.Single.DB)
	assert.Equal(t, 16, cfg.Store.Pool.Size)
	assert.Equal(t, 4, cfg.Store.Pool.MinIdle)
	assert.Equal(t, 2*time.Second, cfg.Store.Pool.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.DialTimeout)
	assert.Equal(t, time.Second, cfg.Store.ReadTimeout)
	assert.Equal(t, -1, cfg.Store.MaxRetries, "client retries stay disabled unless configured")
	assert.NoError(t, cfg.Validate(false))
}

func TestLoadStoreFile_Cluster(t *testing.T) {
	content := `
store:
  cluster:
    addresses:
      - "10.0.0.1:7000"
      - "10.0.0.2:7000"
      - "10.0.0.3:7000"
    username: "bench"
  max_retries: 2
`
	cfg := loadStoreFromString(t, content)

	assert.Len(t, cfg.Store.Cluster.Addresses, 3)
	assert.Equal(t, "bench", cfg.Store.Cluster.Username)
	assert.Equal(t, 2, cfg.Store.MaxRetries)
	assert.NoError(t, cfg.Validate(true))
}

func TestLoadStoreFile_WithThresholds(t *testing.T) {
	content := `
store:
  single:
    address: "localhost:6379"
thresholds:
  outage:
    p99: 5s
    max: 10s
  failure_rate: "2%"
`
	cfg := loadStoreFromString(t, content)

	require.NotNil(t, cfg.Thresholds)
	require.NotNil(t, cfg.Thresholds.Outage)
	assert.Equal(t, 5*time.Second, cfg.Thresholds.Outage.P99)
	assert.Equal(t, 10*time.Second, cfg.Thresholds.Outage.Max)
	assert.Equal(t, "2%", cfg.Thresholds.FailureRate)
}

func TestLoadStoreFile_Errors(t *testing.T) {
	_, err := LoadStoreFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading store config")

	path := createTempFile(t, "store: [not, a, map")
	_, err = LoadStoreFile(path)
	assert.ErrorContains(t, err, "parsing store config")
}

func TestStoreFile_Validate(t *testing.T) {
	cfg := DefaultStoreFile()
	assert.NoError(t, cfg.Validate(false))

	err := cfg.Validate(true)
	assert.True(t, errors.Is(err, ErrInvalid))

	cfg.Store.Single.Address = ""
	assert.ErrorIs(t, cfg.Validate(false), ErrInvalid)

	cfg = DefaultStoreFile()
	cfg.Store.Pool.Size = -1
	assert.ErrorIs(t, cfg.Validate(false), ErrInvalid)

	cfg = DefaultStoreFile()
	cfg.Store.MaxRetries = -2
	assert.ErrorIs(t, cfg.Validate(false), ErrInvalid)
}

func TestOptions_LoadStoreRejectsBadThresholds(t *testing.T) {
	opts := parseFlags(t)
	opts.StoreConfigPath = createTempFile(t, `
store:
  single:
    address: "localhost:6379"
thresholds:
  failure_rate: "five"
`)
	_, err := opts.LoadStore()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "failure_rate")

	opts.StoreConfigPath = createTempFile(t, `
store:
  single:
    address: "localhost:6379"
thresholds:
  failure_rate: "5%"
  outage:
    p99: 2s
`)
	file, err := opts.LoadStore()
	require.NoError(t, err)
	assert.Equal(t, "5%", file.Thresholds.FailureRate)
}

func parseFlags(t *testing.T, args ...string) *Options {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	opts, err := Load(fs)
	require.NoError(t, err)
	return opts
}

func TestLoad_Defaults(t *testing.T) {
	opts := parseFlags(t)

	assert.False(t, opts.Cluster)
	assert.Equal(t, 10, opts.Tests)
	assert.Zero(t, opts.MaxOpsPerSecond)
	assert.Equal(t, 1024, opts.DataSize)
	assert.Equal(t, 1, opts.Drivers)
	assert.Equal(t, 0.3, opts.WriteRatio)
	assert.Equal(t, time.Second, opts.SlowOp)
	assert.Equal(t, "text", opts.Output)
	assert.Equal(t, "console", opts.LogFormat)
	assert.NoError(t, opts.Validate())
}

func TestLoad_Flags(t *testing.T) {
	opts := parseFlags(t,
		"--cluster", "-n", "25", "--max-ops", "12.5", "--random", "--data-size", "64",
		"-v", "-c", "/etc/bench.yaml", "--drivers", "4", "--op-timeout", "250ms",
		"-o", "json", "--metrics-addr", ":9121")

	assert.True(t, opts.Cluster)
	assert.Equal(t, 25, opts.Tests)
	assert.Equal(t, 12.5, opts.MaxOpsPerSecond)
	assert.True(t, opts.Random)
	assert.Equal(t, 64, opts.DataSize)
	assert.True(t, opts.Verbose)
	assert.Equal(t, "/etc/bench.yaml", opts.StoreConfigPath)
	assert.Equal(t, 4, opts.Drivers)
	assert.Equal(t, 250*time.Millisecond, opts.OpTimeout)
	assert.Equal(t, "json", opts.Output)
	assert.Equal(t, ":9121", opts.MetricsAddr)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("OUTAGEBENCH_MAX_OPS", "100")
	t.Setenv("OUTAGEBENCH_TESTS", "3")

	opts := parseFlags(t)
	assert.Equal(t, 100.0, opts.MaxOpsPerSecond)
	assert.Equal(t, 3, opts.Tests)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero tests", func(o *Options) { o.Tests = 0 }},
		{"negative tests", func(o *Options) { o.Tests = -3 }},
		{"no drivers", func(o *Options) { o.Drivers = 0 }},
		{"write ratio above one", func(o *Options) { o.WriteRatio = 1.5 }},
		{"random without size", func(o *Options) { o.Random = true; o.DataSize = 0 }},
		{"negative timeout", func(o *Options) { o.OpTimeout = -time.Second }},
		{"bad output", func(o *Options) { o.Output = "xml" }},
		{"bad log format", func(o *Options) { o.LogFormat = "logfmt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := parseFlags(t)
			tt.mutate(opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalid)
		})
	}
}

func TestOptions_LoadStore(t *testing.T) {
	opts := parseFlags(t)
	file, err := opts.LoadStore()
	require.NoError(t, err)
	assert.Equal(t, DefaultAddress, file.Store.Single.Address)

	opts.Cluster = true
	_, err = opts.LoadStore()
	assert.ErrorIs(t, err, ErrInvalid, "cluster mode without addresses")

	opts.StoreConfigPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, err = opts.LoadStore()
	assert.Error(t, err)
}

func loadStoreFromString(t *testing.T, content string) *StoreFile {
	t.Helper()
	cfg, err := LoadStoreFile(createTempFile(t, content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "store.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return tmpFile
}
