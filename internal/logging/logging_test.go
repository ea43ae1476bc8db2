package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/a11yscan/internal/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestStdoutLogger_WritesJSONWithComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewLogger(&buf, "info", "scanner")

	l.Info("scan finished", logging.Field{Key: "score", Value: 85})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["msg"] != "scan finished" {
		t.Errorf("unexpected msg: %v", lines[0]["msg"])
	}
	if lines[0]["component"] != "scanner" {
		t.Errorf("expected component scanner, got %v", lines[0]["component"])
	}
	if lines[0]["score"] != float64(85) {
		t.Errorf("expected score 85, got %v", lines[0]["score"])
	}
}

func TestStdoutLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewLogger(&buf, "warn", "")

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("expected only the warn line, got %v", lines)
	}
}

func TestStdoutLogger_WithKeepsFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewLogger(&buf, "debug", "").With(logging.Field{Key: "component", Value: "axe"})

	l.Error("evaluate failed", logging.Field{Key: "error", Value: errors.New("csp blocked")})

	lines := decodeLines(t, &buf)
	if lines[0]["component"] != "axe" {
		t.Errorf("expected persistent component field, got %v", lines[0]["component"])
	}
	if lines[0]["error"] != "csp blocked" {
		t.Errorf("expected error rendered as string, got %v", lines[0]["error"])
	}
}

func TestOrNop(t *testing.T) {
	t.Parallel()
	l := logging.OrNop(nil)
	l.Info("nothing happens")
	if l.With() == nil {
		t.Fatal("With on nop logger returned nil")
	}
}
