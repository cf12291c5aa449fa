package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingPrepare(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "logs", "twc.log")
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}

	conf := LoggingConfig{
		FileLogger:    LoggerConfig{Level: "normal", Destination: dest, Mode: "overwrite"},
		ConsoleLogger: LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "shown") || strings.Contains(string(data), "hidden") {
		t.Errorf("unexpected log content:\n%s", data)
	}
	if !strings.Contains(string(data), "twc") {
		t.Errorf("logger is not named:\n%s", data)
	}
}

func TestLoggingPrepare_Report(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	conf := LoggingConfig{
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "twc.log")},
		ConsoleLogger: LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	log.Debug("forced debug")
	_ = log.Sync()

	if _, ok := rpt.entries["final.log"]; !ok {
		t.Error("log file was not stored in the report")
	}
	data, err := os.ReadFile(filepath.Join(dir, "twc.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "forced debug") {
		t.Errorf("report should force debug file logging:\n%s", data)
	}
	if err := rpt.Close(); err != nil {
		t.Fatal(err)
	}
}
