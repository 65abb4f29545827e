package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"err", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewJSONToWriterAndFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "qbd.log")
	lg, closer, err := New(Options{Level: "info", Format: "json", Writer: &buf, File: file})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lg.Info("hello", "k", "v")
	lg.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected json record, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Error("expected debug record to be filtered")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"k":"v"`) {
		t.Errorf("expected record in log file, got %q", data)
	}
}

func TestNewRejectsBadFormat(t *testing.T) {
	if _, _, err := New(Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for unknown format")
	}
}
