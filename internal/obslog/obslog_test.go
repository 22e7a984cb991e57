package obslog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kasyap1234/gridcore/internal/obslog"
)

func TestFileLogging(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "obslog_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logFile := filepath.Join(tmpDir, "engine.log")
	cfg := obslog.Config{FilePath: logFile, Level: "INFO"}

	l, err := obslog.New(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	obslog.LogFill(l, obslog.FillLogEvent{
		Symbol: "BTCUSD", Tag: "long_ientry", Qty: 0.1, Price: 100, Balance: 1000, Equity: 1000, Timestamp: 1000,
	})

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("Log file is empty")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("Log file content is not valid JSON: %s", string(content))
	}
	if msg, ok := entry["msg"]; !ok || msg != "fill" {
		t.Errorf("Expected message %q, got %q", "fill", msg)
	}
	if sym, ok := entry["symbol"]; !ok || sym != "BTCUSD" {
		t.Errorf("Expected symbol BTCUSD, got %v", sym)
	}
}

func TestLoggerLevels(t *testing.T) {
	levels := []string{"DEBUG", "WARN", "ERROR", "INVALID_DEFAULT"}
	for _, lvl := range levels {
		cfg := obslog.Config{Level: lvl}
		if _, err := obslog.New(cfg); err != nil {
			t.Errorf("Failed to init logger with level %s: %v", lvl, err)
		}
	}
}

func TestConsoleColor(t *testing.T) {
	if obslog.ConsoleColor("ERROR") != obslog.ColorRed {
		t.Errorf("expected red for ERROR")
	}
	if obslog.ConsoleColor("UNKNOWN") != obslog.ColorReset {
		t.Errorf("expected reset for unknown level")
	}
}
