package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	Info("server launched", "pid", 4242, "port", 8000)

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("expected level marker in output, got %q", out)
	}
	if !strings.Contains(out, "server launched") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "pid=4242") || !strings.Contains(out, "port=8000") {
		t.Errorf("expected structured fields in output, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")

	Debug("not shown")
	Info("not shown either")
	Warn("shown")

	out := buf.String()
	if strings.Contains(out, "not shown") {
		t.Errorf("low-level records should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record should pass the filter, got %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")

	Info("heartbeat ok", "attempt", 1)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "heartbeat ok" {
		t.Errorf("expected msg field, got %v", record["msg"])
	}
	if record["attempt"] != float64(1) {
		t.Errorf("expected attempt field, got %v", record["attempt"])
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	l := With("component", "lifecycle")
	l.Info("state change", "state", "LAUNCHED")

	out := buf.String()
	if !strings.Contains(out, "component=lifecycle") {
		t.Errorf("expected pre-bound attr, got %q", out)
	}
	if !strings.Contains(out, "state=LAUNCHED") {
		t.Errorf("expected record attr, got %q", out)
	}
}
