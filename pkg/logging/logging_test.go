package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, test := range tests {
		if got := test.level.SlogLevel(); got != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, got, test.expected)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("expected log message to appear in output")
	}
	if !strings.Contains(output, "test-subsystem") {
		t.Error("expected subsystem to appear in output")
	}
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered out at INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("info message should appear at INFO level")
	}
}

func TestForUnitAttributesLines(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	logger := ForUnit("nginx.service", "abc-123")
	logger.Info("Notifier", "entering active")

	output := buf.String()
	if !strings.Contains(output, "unit_id=nginx.service") {
		t.Errorf("expected unit_id attribute in output, got: %s", output)
	}
	if !strings.Contains(output, "invocation_id=abc-123") {
		t.Errorf("expected invocation_id attribute in output, got: %s", output)
	}
}

func TestForUnitWithoutInvocationID(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	logger := ForUnit("nginx.service", "")
	logger.Warn("Notifier", "condition failed")

	output := buf.String()
	if strings.Contains(output, "invocation_id=") {
		t.Errorf("expected no invocation_id attribute when empty, got: %s", output)
	}
}
