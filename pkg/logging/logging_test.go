package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestCompactHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(h).With("file", "/tmp/diagrams/pets.drawio")

	log.Info("found classes", "count", 3, "classes", "Dog, Cat")

	line := buf.String()
	if !strings.HasPrefix(line, "[INFO]  ") {
		t.Errorf("Expected INFO prefix, got %q", line)
	}
	for _, want := range []string{"found classes |", "file=pets.drawio", "count=3", `classes="Dog, Cat"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
}

func TestCompactHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	log := slog.New(h)

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("INFO line should be filtered at WARN level")
	}
	if !strings.Contains(out, "[WARN]  ") {
		t.Errorf("Expected WARN line, got %q", out)
	}
}

func TestCompactHandler_Trace(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})

	slog.New(h).Log(context.Background(), LevelTrace, "rule evaluated")

	if !strings.HasPrefix(buf.String(), "[TRACE] ") {
		t.Errorf("Expected TRACE prefix, got %q", buf.String())
	}
}

func TestCompactHandler_Group(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, nil)

	slog.New(h).WithGroup("edge").Info("skipped", "source", "3")

	if !strings.Contains(buf.String(), "edge.source=3") {
		t.Errorf("Expected grouped key, got %q", buf.String())
	}
}

func TestLevelFromFlags(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
		wantErr   bool
	}{
		{"", 0, slog.LevelInfo, false},
		{"", 1, slog.LevelDebug, false},
		{"", 3, LevelTrace, false},
		{"WARN", 2, slog.LevelWarn, false},
		{"error", 0, slog.LevelError, false},
		{"loud", 0, slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := LevelFromFlags(tt.verbosity, tt.count)
		if (err != nil) != tt.wantErr {
			t.Errorf("LevelFromFlags(%q, %d) error = %v, wantErr %v", tt.verbosity, tt.count, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("LevelFromFlags(%q, %d) = %v, want %v", tt.verbosity, tt.count, got, tt.want)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "0123456789abcdef")

	if got := GetRequestID(ctx); got != "0123456789abcdef" {
		t.Errorf("GetRequestID() = %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("Expected empty request ID, got %q", got)
	}
}
