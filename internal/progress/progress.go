// Package progress draws scan feedback on stderr. The engine only learns
// its file total after the directory walk, so the scan runs behind a
// spinner that counts files as they are parsed.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows an in-flight scan with a running file count.
type Spinner struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewSpinner starts a spinner labeled with the scan root.
func NewSpinner(label string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{bar: bar, label: label}
}

// Tick records one processed file. Safe to call from the worker pool.
func (s *Spinner) Tick() {
	s.bar.Add(1)
}

// FinishSuccess clears the spinner; the caller prints the scan summary.
func (s *Spinner) FinishSuccess() {
	s.bar.Finish()
	s.bar.Clear()
}

// FinishError clears the spinner and reports the failure on stderr.
func (s *Spinner) FinishError(err error) {
	s.bar.Finish()
	s.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s failed: %v\n", s.label, err)
}
