// Package workload issues read/write operations against a store and feeds
// their outcomes to the connection state tracker.
package workload

import (
	"math/rand/v2"
)

// DefaultValue is the key and value used when random payloads are off.
const DefaultValue = "foo"

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Payload produces the keys and values a driver sends.
type Payload interface {
	Next(r *rand.Rand) string
}

// Fixed always returns the same string.
type Fixed string

func (f Fixed) Next(*rand.Rand) string { return string(f) }

// Random returns a fresh alphanumeric string of the given byte length.
type Random int

func (n Random) Next(r *rand.Rand) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.IntN(len(alphabet))]
	}
	return string(b)
}

// NewPayload picks the generator for the configured payload mode.
func NewPayload(random bool, size int) Payload {
	if random {
		return Random(size)
	}
	return Fixed(DefaultValue)
}
