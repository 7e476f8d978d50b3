package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"", FormatText},
		{"toml", FormatText},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewFormatterDefaults(t *testing.T) {
	f, err := NewFormatter(FormatText, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.Format() != FormatText {
		t.Errorf("Format() = %q, want text", f.Format())
	}
	if !f.Colored() {
		t.Error("Colored() = false, want true")
	}
}

func TestNewFormatterFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untested.md")
	f, err := NewFormatter(FormatMarkdown, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	// Redirecting to a file disables color.
	if f.Colored() {
		t.Error("Colored() = true for file output, want false")
	}

	table := NewTable("Untested functions", []string{"Name", "File", "Line"},
		[][]string{{"Ledger.post", "ledger.py", "4"}}, nil, nil)
	if err := f.Output(table); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	if !strings.Contains(string(content), "| Ledger.post | ledger.py | 4 |") {
		t.Errorf("file output missing table row, got:\n%s", content)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	if _, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false); err == nil {
		t.Error("NewFormatter() expected error for unwritable path")
	}
}

// renderTo runs one value through a formatter writing to buf.
func renderTo(t *testing.T, buf *bytes.Buffer, format Format, data any) {
	t.Helper()
	f := &Formatter{format: format, writer: buf}
	if err := f.Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
}

func TestFunctionListingText(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Functions in app.py", []string{"Name", "Lines", "Length", "Flags"},
		[][]string{
			{"main", "1-4", "4", "main"},
			{"Ledger.post", "10-14", "5", "member"},
		}, nil, nil)
	renderTo(t, &buf, FormatText, table)

	out := buf.String()
	for _, want := range []string{"Functions in app.py", "====", "main", "Ledger.post", "10-14"} {
		if !strings.Contains(out, want) {
			t.Errorf("text listing missing %q, got:\n%s", want, out)
		}
	}
}

func TestCoverageTableFooter(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Coverage", []string{"File", "Tested", "Total", "Ratio"},
		[][]string{
			{"app.py", "1", "4", "0.25"},
			{"util.py", "2", "2", "1.00"},
		},
		[]string{"Total", "3", "6", "0.50"}, nil)
	renderTo(t, &buf, FormatText, table)

	out := buf.String()
	if !strings.Contains(out, "util.py") {
		t.Errorf("coverage table missing row, got:\n%s", out)
	}
	if !strings.Contains(out, "Total") || !strings.Contains(out, "0.50") {
		t.Errorf("coverage table missing footer, got:\n%s", out)
	}
}

func TestTableMarkdownEscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Callers of run", []string{"Function", "Line", "Args"},
		[][]string{{"main", "3", "a | b"}}, nil, nil)
	renderTo(t, &buf, FormatMarkdown, table)

	out := buf.String()
	if !strings.Contains(out, "## Callers of run") {
		t.Errorf("markdown missing heading, got:\n%s", out)
	}
	if !strings.Contains(out, `a \| b`) {
		t.Errorf("markdown cell pipe not escaped, got:\n%s", out)
	}
	if !strings.Contains(out, "| --- | --- | --- |") {
		t.Errorf("markdown missing separator row, got:\n%s", out)
	}
}

func TestTableJSONPrefersData(t *testing.T) {
	var buf bytes.Buffer
	type fileCoverage struct {
		File  string  `json:"file"`
		Ratio float64 `json:"ratio"`
	}
	data := []fileCoverage{{File: "app.py", Ratio: 0.25}}
	table := NewTable("Coverage", []string{"File", "Ratio"},
		[][]string{{"app.py", "0.25"}}, nil, data)
	renderTo(t, &buf, FormatJSON, table)

	var got []fileCoverage
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].File != "app.py" || got[0].Ratio != 0.25 {
		t.Errorf("JSON output = %+v, want attached data", got)
	}
}

func TestTableJSONFallsBackToRows(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Unresolved", []string{"Name"}, [][]string{{"vanished"}}, nil, nil)
	renderTo(t, &buf, FormatJSON, table)

	var got []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0]["Name"] != "vanished" {
		t.Errorf("JSON output = %+v, want header-keyed rows", got)
	}
}

func scanSummaryReport() *Report {
	return &Report{
		Title: "Scan summary",
		Sections: []Renderable{
			NewTable("Entities", []string{"Kind", "Count"},
				[][]string{{"Files", "2"}, {"Functions", "5"}}, nil, nil),
			NewTable("Relationships", []string{"Kind", "Count"},
				[][]string{{"CONTAINS", "7"}, {"CALLS", "3"}}, nil, nil),
			NewTable("Coverage edges", []string{"Heuristic", "Count"},
				[][]string{{"naming_pattern", "1"}, {"import", "1"}, {"call", "2"}}, nil, nil),
		},
	}
}

func TestScanSummaryReportText(t *testing.T) {
	var buf bytes.Buffer
	renderTo(t, &buf, FormatText, scanSummaryReport())

	out := buf.String()
	for _, want := range []string{"Scan summary", "Entities", "Relationships", "Coverage edges", "naming_pattern"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q, got:\n%s", want, out)
		}
	}
	if strings.Index(out, "Entities") > strings.Index(out, "Coverage edges") {
		t.Error("report sections rendered out of order")
	}
}

func TestScanSummaryReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	renderTo(t, &buf, FormatMarkdown, scanSummaryReport())

	out := buf.String()
	if !strings.Contains(out, "# Scan summary") {
		t.Errorf("markdown report missing title heading, got:\n%s", out)
	}
	if !strings.Contains(out, "## Entities") || !strings.Contains(out, "## Coverage edges") {
		t.Errorf("markdown report missing section headings, got:\n%s", out)
	}
}

func TestScanSummaryReportJSON(t *testing.T) {
	var buf bytes.Buffer
	renderTo(t, &buf, FormatJSON, scanSummaryReport())

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["title"] != "Scan summary" {
		t.Errorf("JSON title = %v, want Scan summary", got["title"])
	}
	sections, ok := got["sections"].([]any)
	if !ok || len(sections) != 3 {
		t.Errorf("JSON sections = %v, want 3 entries", got["sections"])
	}
}

func TestReportJSONPrefersData(t *testing.T) {
	var buf bytes.Buffer
	report := &Report{
		Title:    "Scan summary",
		Sections: []Renderable{NewTable("Entities", []string{"Kind"}, nil, nil, nil)},
		Data:     map[string]int{"files_scanned": 2},
	}
	renderTo(t, &buf, FormatJSON, report)

	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["files_scanned"] != 2 {
		t.Errorf("JSON output = %v, want attached data", got)
	}
}

func TestOutputRawValue(t *testing.T) {
	stats := map[string]int{"resolved_calls": 3}

	var buf bytes.Buffer
	renderTo(t, &buf, FormatText, stats)
	if !strings.Contains(buf.String(), `"resolved_calls": 3`) {
		t.Errorf("raw text output = %q, want JSON", buf.String())
	}

	buf.Reset()
	renderTo(t, &buf, FormatMarkdown, stats)
	out := buf.String()
	if !strings.HasPrefix(out, "```json") || !strings.Contains(out, "```\n") {
		t.Errorf("raw markdown output not fenced, got:\n%s", out)
	}
}

func TestMessagePrefixes(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{format: FormatText, writer: &buf}

	f.Success("snapshot %s saved", "snap-1")
	f.Warning("skipping %s: parse error", "broken.py")
	f.Error("scan failed")
	f.Info("2 calls resolved")

	out := buf.String()
	for _, want := range []string{
		"snapshot snap-1 saved\n",
		"WARNING: skipping broken.py: parse error\n",
		"ERROR: scan failed\n",
		"2 calls resolved\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("messages missing %q, got:\n%s", want, out)
		}
	}
}

func TestRatioColor(t *testing.T) {
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	tests := []struct {
		ratio float64
		code  string
	}{
		{1.0, "32"},  // green
		{0.8, "32"},  // boundary is green
		{0.5, "33"},  // yellow
		{0.49, "31"}, // red
		{0.0, "31"},
	}
	for _, tt := range tests {
		got := RatioColor(tt.ratio, "0.50")
		if !strings.Contains(got, "\x1b["+tt.code+"m") {
			t.Errorf("RatioColor(%v) = %q, want code %s", tt.ratio, got, tt.code)
		}
		if !strings.Contains(got, "0.50") {
			t.Errorf("RatioColor(%v) dropped the text: %q", tt.ratio, got)
		}
	}
}

func TestTableTextColoredTitle(t *testing.T) {
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	table := NewTable("Untested functions", []string{"Name"}, [][]string{{"save"}}, nil, nil)
	if err := table.RenderText(&buf, true); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[1m") {
		t.Errorf("colored title missing bold code, got %q", buf.String())
	}
}

func TestEmptyTableStillRendersHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Unresolved", []string{"Name", "Call sites"}, nil, nil, nil)
	renderTo(t, &buf, FormatText, table)

	out := buf.String()
	if !strings.Contains(strings.ToUpper(out), "NAME") {
		t.Errorf("empty table missing headers, got:\n%s", out)
	}
}

func TestFormatterSequentialOutputs(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{format: FormatText, writer: &buf}

	for i, title := range []string{"Callers of post", "Callees of post"} {
		table := NewTable(title, []string{"Function", "Line"},
			[][]string{{"main", fmt.Sprintf("%d", i+1)}}, nil, nil)
		if err := f.Output(table); err != nil {
			t.Fatalf("Output() error: %v", err)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "Callers of post") || !strings.Contains(out, "Callees of post") {
		t.Errorf("sequential outputs lost a table, got:\n%s", out)
	}
}
