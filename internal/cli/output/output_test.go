package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

type testRows struct{}

func (testRows) Headers() []string { return []string{"CHECK", "RESULT"} }
func (testRows) Rows() [][]string {
	return [][]string{
		{"runtime", "ok"},
		{"port", "in use"},
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintTable(&buf, testRows{}); err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"CHECK", "RESULT", "runtime", "in use"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]int{"attempts": 5}); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"attempts": 5`) {
		t.Errorf("unexpected JSON output: %s", buf.String())
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintYAML(&buf, map[string]string{"host": "localhost"}); err != nil {
		t.Fatalf("PrintYAML failed: %v", err)
	}
	if !strings.Contains(buf.String(), "host: localhost") {
		t.Errorf("unexpected YAML output: %s", buf.String())
	}
}

func TestPrintFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatTable, map[string]bool{"healthy": true}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"healthy": true`) {
		t.Errorf("expected JSON fallback, got: %s", buf.String())
	}
}
