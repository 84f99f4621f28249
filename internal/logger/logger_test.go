package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	l, err := New(true, "debug")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug to be enabled")
	}

	l, err = New(false, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected info default")
	}

	if _, err := New(false, "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestStep(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	l.Info("pipeline step", Step("full", "analysis", "success")...)

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx[FieldPipeline] != "full" || ctx[FieldStep] != "analysis" || ctx[FieldStatus] != "success" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected no-op logger")
	}
}
