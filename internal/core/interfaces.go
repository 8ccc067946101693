// Package core defines the contracts shared by the outage benchmark components.
package core

import (
	"context"
	"errors"
)

var (
	// ErrConnectivity marks a store error caused by losing the connection.
	// Store adapters wrap such errors so the engine never inspects
	// client-specific error types.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrFatal wraps any store error that is not connectivity related.
	ErrFatal = errors.New("fatal store error")
)

// Store is the narrow view the engine has of a key-value client.
// Implementations exist per topology (single node, cluster).
type Store interface {
	Read(ctx context.Context, key string) error
	Write(ctx context.Context, key, value string) error
	// Describe returns a human-readable snapshot of the client's
	// topology and pool state for diagnostic logging.
	Describe() string
}

// Outcome is the classified result of one store operation.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeConnectivity
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeConnectivity:
		return "connectivity"
	case OutcomeFatal:
		return "fatal"
	}
	return "unknown"
}

// Classify maps the error returned by a Store call to an Outcome.
// A nil error is a success, regardless of whether a read found data.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrConnectivity):
		return OutcomeConnectivity
	default:
		return OutcomeFatal
	}
}

// Op identifies the kind of operation a driver issued.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)
