package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"debug", true},
		{" DEBUG ", true},
		{"info", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := NewLogger(tt.level).debugEnabled; got != tt.want {
			t.Errorf("NewLogger(%q).debugEnabled = %v; want %v", tt.level, got, tt.want)
		}
	}
}

func TestDebugGated(t *testing.T) {
	var out bytes.Buffer
	quiet := newLogger(&out, &out, false)
	quiet.Debug("[test] hidden %d", 1)
	if out.Len() != 0 {
		t.Errorf("debug line written when disabled: %q", out.String())
	}

	loud := newLogger(&out, &out, true)
	loud.Debug("[test] shown %d", 2)
	if !strings.Contains(out.String(), "[test] shown 2") {
		t.Errorf("debug line missing: %q", out.String())
	}
}
