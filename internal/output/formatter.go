// Package output renders scan summaries and query results. Everything the
// CLI prints flows through a Formatter: tables and reports in text or
// markdown, or the underlying data as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Format selects the output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a user-supplied format name to a Format. Unknown names
// fall back to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// Renderable is implemented by values that know how to print themselves as
// text and markdown. RenderData supplies the value serialized under JSON.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	RenderData() any
}

// Formatter writes rendered output to stdout or a file.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter. A non-empty output path redirects to
// that file and disables color.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	f := &Formatter{format: format, writer: os.Stdout, colored: colored}
	if output != "" {
		sink, err := os.Create(output)
		if err != nil {
			return nil, fmt.Errorf("creating output file: %w", err)
		}
		f.writer = sink
		f.file = sink
		f.colored = false
	}
	return f, nil
}

// Close releases the output file, if any.
func (f *Formatter) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored reports whether color codes are emitted.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output renders data in the configured format. Renderable values draw
// themselves in text and markdown; anything else is serialized as JSON,
// fenced when the format is markdown.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	switch f.format {
	case FormatJSON:
		if ok {
			data = r.RenderData()
		}
		return f.writeJSON(data)
	case FormatMarkdown:
		if ok {
			return r.RenderMarkdown(f.writer)
		}
		fmt.Fprintln(f.writer, "```json")
		if err := f.writeJSON(data); err != nil {
			return err
		}
		fmt.Fprintln(f.writer, "```")
		return nil
	default:
		if ok {
			return r.RenderText(f.writer, f.colored)
		}
		return f.writeJSON(data)
	}
}

func (f *Formatter) writeJSON(data any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *Formatter) message(c func(string, ...any), prefix, format string, args ...any) {
	if f.colored {
		c(format, args...)
		return
	}
	fmt.Fprintf(f.writer, prefix+format+"\n", args...)
}

// Success prints a confirmation, green when colored.
func (f *Formatter) Success(format string, args ...any) {
	f.message(color.Green, "", format, args...)
}

// Warning prints a per-file diagnostic, yellow when colored.
func (f *Formatter) Warning(format string, args ...any) {
	f.message(color.Yellow, "WARNING: ", format, args...)
}

// Error prints a failure, red when colored.
func (f *Formatter) Error(format string, args ...any) {
	f.message(color.Red, "ERROR: ", format, args...)
}

// Info prints a supplementary line, cyan when colored.
func (f *Formatter) Info(format string, args ...any) {
	f.message(color.Cyan, "", format, args...)
}

// RatioColor colors a coverage ratio: green when most subjects carry a
// TESTS edge, yellow for partial coverage, red otherwise.
func RatioColor(ratio float64, text string) string {
	switch {
	case ratio >= 0.8:
		return color.GreenString(text)
	case ratio >= 0.5:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}
