package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"episodic/internal/config"
	"episodic/internal/logging"
	"episodic/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	off := false
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, Color: &off})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithConversationID(context.Background(), "abcdef123456")
	ctx = services.WithStage(ctx, "research")
	logger = logging.NewComponentLogger(logging.WithContext(ctx, logger), "pipeline")
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, fragment := range []string{"INFO", "[abcdef12/research]", "pipeline: stage started", "event_type=stage_start"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerIncludesErrorDetails(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	failure := services.Wrap(services.ErrConfiguration, "narration", "synthesize", "speech api key missing", nil)
	logging.ErrorWithContext(logger, "generation failed", "generation_failed", logging.ErrorAttrs(failure)...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("decode json log: %v (%s)", err, content)
	}
	if entry["level"] != "error" {
		t.Fatalf("unexpected level %v", entry["level"])
	}
	if entry[logging.FieldErrorKind] != "configuration" {
		t.Fatalf("unexpected error kind %v", entry[logging.FieldErrorKind])
	}
	if entry[logging.FieldFailedStage] != "narration" {
		t.Fatalf("unexpected failed stage %v", entry[logging.FieldFailedStage])
	}
	if entry[logging.FieldEventType] != "generation_failed" {
		t.Fatalf("unexpected event type %v", entry[logging.FieldEventType])
	}
	if _, ok := entry[logging.FieldErrorHint]; !ok {
		t.Fatal("expected default error hint")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestErrorAttrsNil(t *testing.T) {
	if attrs := logging.ErrorAttrs(nil); attrs != nil {
		t.Fatalf("expected nil attrs, got %v", attrs)
	}
	attrs := logging.ErrorAttrs(errors.New("plain"))
	if !logging.HasAttrKey(attrs, logging.FieldErrorKind) {
		t.Fatal("expected error kind attr")
	}
}
