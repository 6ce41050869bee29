package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRespectsLevel(t *testing.T) {
	logger := New(Settings{Level: "warn", Service: "shopcore"})
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info enabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn disabled at warn level")
	}

	logger = New(Settings{Level: "not-a-level"})
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("bad level should fall back to info")
	}
}

func TestServiceLoggerForwardsKeyvals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewServiceLogger(zap.New(core))

	adapter.Warn("operation rejected", "op", "add_item", "error", "unauthorized")
	adapter.Debug("operation committed", "op", "buy")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[0].Message != "operation rejected" {
		t.Fatalf("entry[0] = %+v", entries[0].Entry)
	}
	fields := entries[0].ContextMap()
	if fields["op"] != "add_item" || fields["error"] != "unauthorized" {
		t.Fatalf("fields = %v", fields)
	}
}
