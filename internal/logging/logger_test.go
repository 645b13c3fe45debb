package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scankiosk/internal/config"
	"scankiosk/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("kiosk ready")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "scankiosk.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "kiosk ready") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "epsonscan").Info("scan finished", logging.String("scanner", "DS-310"), logging.Int("exit_code", 0))

	line := buf.String()
	for _, want := range []string{" info ", "[epsonscan] scan finished", "scanner=DS-310", "exit_code=0"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestConsoleLoggerTagsCorrelationAndTrailsHints(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(logging.String(logging.FieldCorrelationID, "1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809")).
		WithGroup("scan").
		Warn("paper jam",
			logging.String(logging.FieldImpact, "no document was scanned"),
			logging.Int("exit_code", 14),
		)

	line := strings.TrimSuffix(buf.String(), "\n")
	want := `warning paper jam #1a2b3c4d scan.exit_code=14 | scan.impact="no document was scanned"`
	if !strings.HasSuffix(line, want) {
		t.Fatalf("expected line ending %q, got %q", want, line)
	}
}

func TestJSONLoggerUsesSeverityKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("paper jam")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["severity"] != "warning" {
		t.Fatalf("expected severity=warning, got %v", payload["severity"])
	}
	if payload["message"] != "paper jam" {
		t.Fatalf("expected message, got %v", payload["message"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltersBusDelivery(t *testing.T) {
	bus := logging.NewEventBus()
	var got []logging.LogEvent
	bus.Subscribe(func(evt logging.LogEvent) { got = append(got, evt) })

	logger, err := logging.New(logging.Options{Level: "info", Writer: &bytes.Buffer{}, Bus: bus})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")

	if len(got) != 1 || got[0].Message != "shown" {
		t.Fatalf("expected only the info event, got %+v", got)
	}
}
