package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: " WARN ", want: zapcore.WarnLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "info", want: zapcore.InfoLevel},
		{in: "verbose", want: zapcore.InfoLevel},
		{in: "", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := With(fromZap(zap.New(core)), String("server", "http://localhost:8080"))

	log.Warn("request failed", Int("attempt", 2), Error(errors.New("boom")))
	log.Debugf("retrying %s", "/apps")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["server"] != "http://localhost:8080" || fields["attempt"] != int64(2) || fields["error"] != "boom" {
		t.Errorf("fields = %v", fields)
	}
	if entries[1].Message != "retrying /apps" {
		t.Errorf("message = %q", entries[1].Message)
	}
}

func TestWithOnForeignLogger(t *testing.T) {
	var l Logger = stub{}
	if got := With(l, String("k", "v")); got != l {
		t.Error("With should return foreign loggers unchanged")
	}
}

type stub struct{ Logger }
