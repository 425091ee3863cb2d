package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewHandler(&buf, slog.LevelDebug, "text"))

	logger.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected output to contain 'key=value', got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger)
		contains string
	}{
		{name: "Debug", logFunc: func(l Logger) { l.Debug("debug msg") }, contains: "debug msg"},
		{name: "Info", logFunc: func(l Logger) { l.Info("info msg") }, contains: "info msg"},
		{name: "Warn", logFunc: func(l Logger) { l.Warn("warn msg") }, contains: "warn msg"},
		{name: "Error", logFunc: func(l Logger) { l.Error("error msg") }, contains: "error msg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(NewHandler(&buf, slog.LevelDebug, "text"))

			tt.logFunc(logger)

			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected output to contain %q, got: %s", tt.contains, output)
			}
			if !strings.Contains(output, strings.ToUpper(tt.name)) {
				t.Errorf("expected output to contain level %q, got: %s", tt.name, output)
			}
		})
	}
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewHandler(&buf, slog.LevelInfo, "JSON"))
	logger.With("batch", 2).Warn("batch fell back")

	output := buf.String()
	if !strings.Contains(output, `"batch":2`) {
		t.Errorf("expected JSON attribute, got: %s", output)
	}
	if !strings.Contains(output, `"msg":"batch fell back"`) {
		t.Errorf("expected JSON message, got: %s", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewHandler(&buf, slog.LevelWarn, "text"))
	logger.Info("hidden")
	logger.Warn("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info should be filtered at warn level, got: %s", output)
	}
	if !strings.Contains(output, "shown") {
		t.Errorf("expected warn output, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultAndComponent(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(New(NewHandler(&buf, slog.LevelDebug, "text")))

	Component("pipeline").Info("hello")

	output := buf.String()
	if !strings.Contains(output, "component=pipeline") {
		t.Errorf("expected component attribute, got: %s", output)
	}
}

func TestNoop(t *testing.T) {
	logger := NewNoop()
	logger.Info("nothing")
	logger.With("k", "v").Error("still nothing")
}
