package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLog(t *testing.T) {
	// Just verify it doesn't panic
	s := &Settings{LogLevel: "info", Convert: ConvertSettings{Quality: 85}}
	Log(s)
}

func TestLogWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := &Settings{
		LogLevel: "debug",
		Convert:  ConvertSettings{Quality: 70, Widths: []int{400}, Concurrency: 2},
		Rewrite:  RewriteSettings{Prefix: "/images/"},
	}

	LogWithLogger(s, logger)

	output := buf.String()
	for _, want := range []string{"convert.quality", "value=70", "rewrite.prefix"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in log output, got: %s", want, output)
		}
	}
	// Optional settings are skipped when unset
	if strings.Contains(output, "dest_prefix") {
		t.Error("Expected no dest_prefix in log output when unset")
	}
	if strings.Contains(output, "dry_run") {
		t.Error("Expected no dry_run in log output when disabled")
	}
}

func TestLogWithLogger_InfoLevelIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWithLogger(&Settings{LogLevel: "info"}, logger)

	if buf.Len() != 0 {
		t.Errorf("Expected no output at info level, got: %s", buf.String())
	}
}

func TestSettingsLogValue(t *testing.T) {
	val := SettingsLogValue(Settings{LogLevel: "info", Convert: ConvertSettings{Widths: []int{400}}})
	if val.Kind() != slog.KindGroup {
		t.Errorf("Expected group kind, got %v", val.Kind())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &Settings{LogLevel: "info", LogFormat: LogFormatJSON})

	logger.Debug("hidden")
	logger.Info("Converted", "file", "hero.png")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Expected JSON log line: %v", err)
	}
	if entry["file"] != "hero.png" {
		t.Errorf("Expected file attribute, got %v", entry)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &Settings{LogLevel: "debug", LogFormat: LogFormatText})

	logger.Debug("Walking", "root", "/site")

	if !strings.Contains(buf.String(), "root=/site") {
		t.Errorf("Expected text log output, got: %s", buf.String())
	}
}
