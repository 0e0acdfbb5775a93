package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestStandardLoggerPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		log    func(l *StandardLogger)
		prefix string
		body   string
	}{
		{
			name:   "info",
			log:    func(l *StandardLogger) { l.Info("found %d files", 42) },
			prefix: "[INFO]",
			body:   "found 42 files",
		},
		{
			name:   "warning",
			log:    func(l *StandardLogger) { l.Warning("probe failed for %s", "a.zip") },
			prefix: "[WARNING]",
			body:   "probe failed for a.zip",
		},
		{
			name:   "error",
			log:    func(l *StandardLogger) { l.Error("fetch: %v", "timeout") },
			prefix: "[ERROR]",
			body:   "fetch: timeout",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewStandardLogger(log.New(buf, "", 0))
			tc.log(l)
			out := buf.String()
			if !strings.Contains(out, tc.prefix) || !strings.Contains(out, tc.body) {
				t.Fatalf("output = %q, want %s + %q", out, tc.prefix, tc.body)
			}
		})
	}
}

func TestStandardLoggerClose(t *testing.T) {
	l := NewStandardLogger(log.New(&bytes.Buffer{}, "", 0))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMultiLoggerFanOut(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	m := NewMultiLogger(
		NewStandardLogger(log.New(a, "", 0)),
		NewStandardLogger(log.New(b, "", 0)),
	)
	m.Info("hello")
	m.Error("world")
	for name, buf := range map[string]*bytes.Buffer{"first": a, "second": b} {
		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "world") {
			t.Fatalf("%s backend missed a message: %q", name, buf.String())
		}
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNopLogger(t *testing.T) {
	n := NewNopLogger()
	n.Info("ignored %d", 1)
	n.Warning("ignored")
	n.Error("ignored")
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
