// Package config handles run options and the store topology file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"outagebench/internal/collector"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultAddress is used when no store file names a single node.
const DefaultAddress = "localhost:6379"

// StoreFile is the root of the YAML file passed with --config.
type StoreFile struct {
	Store      Store                 `yaml:"store"`
	Thresholds *collector.Thresholds `yaml:"thresholds,omitempty"`
}

// Store describes how to reach the key-value store.
type Store struct {
	Single       SingleNode    `yaml:"single"`
	Cluster      Cluster       `yaml:"cluster"`
	Pool         Pool          `yaml:"pool"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// MaxRetries is passed to the client; -1 disables client retries so
	// every failure is observed.
	MaxRetries int `yaml:"max_retries"`
}

// SingleNode addresses one server through a connection pool.
type SingleNode struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Cluster lists the seed nodes of a cluster.
type Cluster struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

// Pool sizes the client connection pool.
type Pool struct {
	Size    int           `yaml:"size"`
	MinIdle int           `yaml:"min_idle"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultStoreFile returns the settings used without a --config file.
func DefaultStoreFile() *StoreFile {
	return &StoreFile{
		Store: Store{
			Single:     SingleNode{Address: DefaultAddress},
			Pool:       Pool{Size: 8},
			MaxRetries: -1,
		},
	}
}

// LoadStoreFile reads and parses a YAML store file on top of the defaults.
func LoadStoreFile(path string) (*StoreFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading store config: %w", err)
	}

	cfg := DefaultStoreFile()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing store config: %w", err)
	}

	return cfg, nil
}

// Validate checks the file against the selected topology.
func (f *StoreFile) Validate(cluster bool) error {
	if cluster && len(f.Store.Cluster.Addresses) == 0 {
		return fmt.Errorf("%w: cluster mode needs store.cluster.addresses", ErrInvalid)
	}
	if !cluster && f.Store.Single.Address == "" {
		return fmt.Errorf("%w: store.single.address is empty", ErrInvalid)
	}
	if f.Store.Pool.Size < 0 || f.Store.Pool.MinIdle < 0 {
		return fmt.Errorf("%w: pool sizes must not be negative", ErrInvalid)
	}
	if f.Store.MaxRetries < -1 {
		return fmt.Errorf("%w: max_retries must be -1 or more", ErrInvalid)
	}
	if err := f.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: thresholds: %w", ErrInvalid, err)
	}
	return nil
}
