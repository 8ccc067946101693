package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override flags,
// e.g. OUTAGEBENCH_MAX_OPS=100.
const EnvPrefix = "OUTAGEBENCH"

// Options are the run options, immutable once the run starts.
type Options struct {
	Cluster         bool          `mapstructure:"cluster"`
	Tests           int           `mapstructure:"tests"`
	MaxOpsPerSecond float64       `mapstructure:"max-ops"`
	Random          bool          `mapstructure:"random"`
	DataSize        int           `mapstructure:"data-size"`
	Verbose         bool          `mapstructure:"verbose"`
	StoreConfigPath string        `mapstructure:"config"`
	Drivers         int           `mapstructure:"drivers"`
	WriteRatio      float64       `mapstructure:"write-ratio"`
	OpTimeout       time.Duration `mapstructure:"op-timeout"`
	SlowOp          time.Duration `mapstructure:"slow-op"`
	Output          string        `mapstructure:"output"`
	Quiet           bool          `mapstructure:"quiet"`
	MetricsAddr     string        `mapstructure:"metrics-addr"`
	LogFormat       string        `mapstructure:"log-format"`
}

// RegisterFlags declares every option on fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Bool("cluster", false, "connect to a cluster instead of a single node pool")
	fs.IntP("tests", "n", 10, "number of outage intervals to observe before reporting")
	fs.Float64("max-ops", 0, "max operations per second per driver (0 = unbounded)")
	fs.Bool("random", false, "use random keys and values instead of a fixed string")
	fs.Int("data-size", 1024, "size in bytes of random keys and values")
	fs.BoolP("verbose", "v", false, "log every transition and print a report after each outage")
	fs.StringP("config", "c", "", "path to the store YAML file")
	fs.Int("drivers", 1, "number of concurrent workload drivers")
	fs.Float64("write-ratio", 0.3, "share of operations that are writes (0-1)")
	fs.Duration("op-timeout", 0, "per-operation timeout (0 = client defaults)")
	fs.Duration("slow-op", time.Second, "log operations slower than this (0 = off)")
	fs.StringP("output", "o", "text", "report format: text, json")
	fs.BoolP("quiet", "q", false, "suppress the progress line")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9121)")
	fs.String("log-format", "console", "log format: console, json")
}

// Load resolves options from parsed flags, then environment variables.
func Load(fs *pflag.FlagSet) (*Options, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("decoding options: %w", err)
	}
	return &opts, nil
}

// Validate rejects options the run cannot start with.
func (o *Options) Validate() error {
	switch {
	case o.Tests <= 0:
		return fmt.Errorf("%w: --tests must be > 0, got %d", ErrInvalid, o.Tests)
	case o.Drivers < 1:
		return fmt.Errorf("%w: --drivers must be >= 1, got %d", ErrInvalid, o.Drivers)
	case o.WriteRatio < 0 || o.WriteRatio > 1:
		return fmt.Errorf("%w: --write-ratio must be within [0,1], got %v", ErrInvalid, o.WriteRatio)
	case o.Random && o.DataSize <= 0:
		return fmt.Errorf("%w: --data-size must be > 0 with --random, got %d", ErrInvalid, o.DataSize)
	case o.OpTimeout < 0:
		return fmt.Errorf("%w: --op-timeout must not be negative", ErrInvalid)
	case o.Output != "text" && o.Output != "json":
		return fmt.Errorf("%w: --output must be 'text' or 'json', got %q", ErrInvalid, o.Output)
	case o.LogFormat != "console" && o.LogFormat != "json":
		return fmt.Errorf("%w: --log-format must be 'console' or 'json', got %q", ErrInvalid, o.LogFormat)
	}
	return nil
}

// LoadStore reads the store file named by the options, or the defaults
// when none is given, and validates it for the selected topology.
func (o *Options) LoadStore() (*StoreFile, error) {
	file := DefaultStoreFile()
	if o.StoreConfigPath != "" {
		var err error
		if file, err = LoadStoreFile(o.StoreConfigPath); err != nil {
			return nil, err
		}
	}
	if err := file.Validate(o.Cluster); err != nil {
		return nil, err
	}
	return file, nil
}
