package log

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		keys  []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"vehicleID", "EV-01", "batch", 10, "online", true}, []string{"vehicleID", "batch", "online"}},
		{"time type", []any{"ts", now}, []string{"ts"}},
		{"float type", []any{"battery", 8.4}, []string{"battery"}},
		{"bytes", []any{"payload", []byte("[]")}, []string{"payload"}},
		{"error only", []any{err}, []string{"error"}},
		{"mixed field types", []any{"msg", "ok", zap.String("x", "y"), "alerts", 42}, []string{"msg", "x", "alerts"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"duration", []any{"delay", 3 * time.Second}, []string{"delay"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			if len(fields) != len(tt.keys) {
				t.Fatalf("got %d fields, want %d: %+v", len(fields), len(tt.keys), fields)
			}
			for i, f := range fields {
				if f.Key != tt.keys[i] {
					t.Errorf("field %d key = %q, want %q", i, f.Key, tt.keys[i])
				}
			}
		})
	}
}

func TestToFieldsTypes(t *testing.T) {
	fields := toFields("speed", 112.5, "delay", time.Second, "err", errors.New("x"))

	want := []zapcore.FieldType{zapcore.Float64Type, zapcore.DurationType, zapcore.ErrorType}
	for i, f := range fields {
		if f.Type != want[i] {
			t.Errorf("field %q type = %v, want %v", f.Key, f.Type, want[i])
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger().WithName("store").WithValues("component", "test")
	l.Info("ignored", "k", "v")
	l.Error(errors.New("ignored"), "ignored")

	if l.Logr().Enabled() {
		t.Error("nop logger reports an enabled logr sink")
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) != Std() {
		t.Error("empty context should fall back to the global logger")
	}

	l := NewNopLogger().WithName("request")
	ctx := WithContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Errorf("FromContext = %v, want the stored logger", got)
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evfleet.log")
	opts := NewOptions()
	opts.Format = "json"
	opts.Level = "debug"
	opts.OutputPaths = []string{path}

	l := NewLogger(opts).WithName("ingest")
	l.Debug("Batch accepted", "vehicles", 3)
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{`"message":"Batch accepted"`, `"vehicles":3`, `"level":"DEBUG"`, `ingest`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log output lacks %s:\n%s", want, data)
		}
	}
}
