package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func fileLogger(t *testing.T, lvl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oit.log")
	if err := Setup(Options{Level: lvl, File: path, Rotation: Rotation{MaxSizeMB: 1}}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() {
		install(zap.NewNop())
		level.SetLevel(zapcore.InfoLevel)
	})
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	return string(data)
}

func TestNopBeforeSetup(t *testing.T) {
	Named("test").Info("ignored", zap.Int("n", 1))
	Debug("ignored")
	Sugar.Infof("ignored %d", 2)
}

func TestFileOutputIsJSON(t *testing.T) {
	path := fileLogger(t, "debug")
	Named("oit").Info("moment buffers allocated", zap.Int("width", 640))

	line, _, _ := strings.Cut(readLog(t, path), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q: %v", line, err)
	}
	if entry["logger"] != "oit" || entry["width"] != float64(640) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestPackageFunctionsReportCaller(t *testing.T) {
	path := fileLogger(t, "info")
	Info("from test")

	var entry map[string]any
	line, _, _ := strings.Cut(readLog(t, path), "\n")
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatal(err)
	}
	caller, _ := entry["caller"].(string)
	if !strings.Contains(caller, "logger_test.go") {
		t.Errorf("caller = %q, want the test file", caller)
	}
}

func TestSetLevel(t *testing.T) {
	path := fileLogger(t, "warn")
	Info("dropped")
	Warn("kept")
	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	Debug("raised")

	out := readLog(t, path)
	for word, want := range map[string]bool{"dropped": false, "kept": true, "raised": true} {
		if strings.Contains(out, word) != want {
			t.Errorf("%q present = %v, want %v", word, !want, want)
		}
	}
}

func TestLevelNames(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zapcore.InfoLevel) })
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"bogus", zapcore.ErrorLevel, true},
	}
	for _, tt := range tests {
		err := SetLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetLevel(%q) error = %v", tt.in, err)
		}
		if Level() != tt.want {
			t.Errorf("after SetLevel(%q) level = %v, want %v", tt.in, Level(), tt.want)
		}
	}
}
