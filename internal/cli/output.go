// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// =============================================================================
// REPORTER
// =============================================================================

// lineReporter prints session reports as lines and counts them so a
// command can fail after the fact.
type lineReporter struct {
	mu    sync.Mutex
	w     io.Writer
	count int
}

func newLineReporter(w io.Writer) *lineReporter {
	return &lineReporter{w: w}
}

// Report implements session.Reporter.
func (r *lineReporter) Report(kind session.Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++

	label := "[Error]"
	if kind == session.KindValidation {
		label = "[Rejected]"
	}
	fmt.Fprintf(r.w, "%s %s\n", errorStyle.Render(label), message)
}

// Count returns how many reports were printed.
func (r *lineReporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// failure wraps err, or a bare validation failure, into a ReportedError
// when anything was reported.
func (r *lineReporter) failure(err error) error {
	n := r.Count()
	if n == 0 {
		return err
	}
	return &ReportedError{Count: n, Err: err}
}
