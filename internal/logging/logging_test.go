package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		verbose bool
		debug   bool
	}{
		{"console", false, false},
		{"console", true, true},
		{"json", false, false},
		{"json", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		logger, err := New(tt.format, tt.verbose)
		if err != nil {
			t.Fatalf("New(%q, %v) error = %v", tt.format, tt.verbose, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("New(%q, %v) debug enabled = %v, want %v", tt.format, tt.verbose, got, tt.debug)
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("New(%q, %v) info disabled", tt.format, tt.verbose)
		}
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New("logfmt", false); err == nil {
		t.Error("expected error for unknown format")
	}
}
