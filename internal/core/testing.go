package core

import (
	"context"
	"fmt"
	"sync"
)

// MockWriter is a thread-safe io.Writer for testing.
type MockWriter struct {
	mu   sync.Mutex
	data []byte
}

func (w *MockWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *MockWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.data)
}

// ScriptedStore is a Store that replays a fixed sequence of results.
// Once the script is exhausted every call succeeds.
type ScriptedStore struct {
	mu     sync.Mutex
	script []error
	pos    int
	reads  int
	writes int
	keys   []string
}

// NewScriptedStore returns a store that answers calls with results in order.
func NewScriptedStore(results ...error) *ScriptedStore {
	return &ScriptedStore{script: results}
}

func (s *ScriptedStore) next(op Op, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op == OpRead {
		s.reads++
	} else {
		s.writes++
	}
	s.keys = append(s.keys, key)
	if s.pos >= len(s.script) {
		return nil
	}
	err := s.script[s.pos]
	s.pos++
	return err
}

func (s *ScriptedStore) Read(_ context.Context, key string) error {
	return s.next(OpRead, key)
}

func (s *ScriptedStore) Write(_ context.Context, key, _ string) error {
	return s.next(OpWrite, key)
}

func (s *ScriptedStore) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("scripted store: %d/%d results consumed", s.pos, len(s.script))
}

// Calls returns how many reads and writes were issued.
func (s *ScriptedStore) Calls() (reads, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.writes
}

// Keys returns the keys passed to the store, in call order.
func (s *ScriptedStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Remaining reports how many scripted results have not been consumed.
func (s *ScriptedStore) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.script) - s.pos
}

// Connectivity builds an error that classifies as OutcomeConnectivity.
func Connectivity(msg string) error {
	return fmt.Errorf("%w: %s", ErrConnectivity, msg)
}
