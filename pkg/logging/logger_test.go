// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := tt.level.toSlogLevel()
			if got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	defer logger.Close()
}

func TestNew_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})
	defer logger.Close()

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Writer: &buf})
	defer logger.Close()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("output contains filtered levels: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("output missing expected levels: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Writer: &buf})
	defer logger.Close()

	logger.Info("structured", "attempt", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "structured" {
		t.Errorf("msg = %v, want structured", entry["msg"])
	}
	if entry["attempt"] != float64(3) {
		t.Errorf("attempt = %v, want 3", entry["attempt"])
	}
}

func TestNew_ServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Service: "chem", Writer: &buf})
	defer logger.Close()

	logger.Info("with service")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["service"] != "chem" {
		t.Errorf("service = %v, want chem", entry["service"])
	}
}

func TestNew_QuietWithoutFile(t *testing.T) {
	// Quiet with no LogDir falls back to the console writer so
	// logs are never silently dropped.
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Writer: &buf})
	defer logger.Close()

	logger.Info("fallback message")
	if !strings.Contains(buf.String(), "fallback message") {
		t.Errorf("fallback output missing: %q", buf.String())
	}
}

// =============================================================================
// File Logging Tests
// =============================================================================

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		LogDir:  dir,
		Service: "chemtest",
		Quiet:   true,
	})

	logger.Info("to file", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	filename := "chemtest_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("file log is not JSON: %v", err)
	}
	if entry["msg"] != "to file" {
		t.Errorf("msg = %v, want to file", entry["msg"])
	}
	if entry["service"] != "chemtest" {
		t.Errorf("service = %v, want chemtest", entry["service"])
	}
}

func TestNew_FileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{
		LogDir:  dir,
		Service: "chemtest",
		Writer:  &buf,
	})

	logger.Warn("both destinations")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if !strings.Contains(buf.String(), "both destinations") {
		t.Errorf("console output missing: %q", buf.String())
	}

	filename := "chemtest_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "both destinations") {
		t.Errorf("file output missing: %q", string(data))
	}
}

func TestClose_Idempotent(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Quiet: true})
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

// =============================================================================
// With Tests
// =============================================================================

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Writer: &buf})
	defer logger.Close()

	child := logger.With("job_id", "abc123")
	child.Info("child log")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["job_id"] != "abc123" {
		t.Errorf("job_id = %v, want abc123", entry["job_id"])
	}
}

func TestWith_DoesNotModifyParent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Writer: &buf})
	defer logger.Close()

	_ = logger.With("job_id", "abc123")
	logger.Info("parent log")

	if strings.Contains(buf.String(), "abc123") {
		t.Errorf("parent output contains child attribute: %q", buf.String())
	}
}

func TestSlog_ReturnsUnderlying(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	if logger.Slog() == nil {
		t.Error("Slog() returned nil")
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tilde", "~/.aleutianchem/logs", filepath.Join(home, ".aleutianchem/logs")},
		{"absolute", "/var/log", "/var/log"},
		{"relative", "relative/path", "relative/path"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.in); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
