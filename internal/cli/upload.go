// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload.go - Upload command for pdfchat.
//
// Command: upload
// Short:   Upload PDFs and print the session id
//
// The session is kept open so the printed id can be used by other clients.
// Pass --delete to end it once the upload is confirmed.

package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jeranaias/pdfchat-tui/internal/document"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

const progressBarWidth = 30

func newUploadCommand(a *app) *cobra.Command {
	var deleteAfter bool
	cmd := &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload PDFs and print the session id",
		Long: `Uploads PDFs to a new backend session in one request and prints the
session id on stdout. Progress and a summary go to stderr.`,
		Example: `  pdfchat upload report.pdf appendix.pdf
  SESSION=$(pdfchat upload notes.pdf)`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: lineMode,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUpload(cmd.Context(), args, deleteAfter)
		},
	}
	cmd.Flags().BoolVar(&deleteAfter, "delete", false, "delete the session after the upload is confirmed")
	return cmd
}

func (a *app) runUpload(ctx context.Context, paths []string, deleteAfter bool) error {
	reporter := newLineReporter(a.stderr)

	var ctrl *session.Controller
	bar := newProgressPrinter(a.stderr, isTerminal(a.stderr))
	ctrl = a.newController(reporter, func() { bar.update(ctrl.Snapshot().Progress) })
	if deleteAfter {
		defer a.closeController(ctrl)
	}

	err := a.uploadPaths(ctx, ctrl, reporter, paths)
	bar.finish()
	if err != nil {
		return reporter.failure(err)
	}

	snap := ctrl.Snapshot()
	if len(snap.Files) == 0 {
		return reporter.failure(&UsageError{Field: "files", Reason: "no PDF was uploaded"})
	}

	var total int64
	for i, f := range snap.Files {
		total += f.Size
		fmt.Fprintf(a.stderr, "  %s %s %s\n",
			infoStyle.Render(fmt.Sprintf("%d.", i+1)),
			f.Name,
			infoStyle.Render(document.FormatMB(f.Size)))
	}
	fmt.Fprintf(a.stderr, "%s %d file(s), %s\n",
		commandStyle.Render("[Uploaded]"), len(snap.Files), document.HumanSize(total))
	fmt.Fprintln(a.stdout, snap.SessionID)

	if reporter.Count() > 0 {
		return reporter.failure(nil)
	}
	return nil
}

// =============================================================================
// PROGRESS
// =============================================================================

// progressPrinter redraws a single progress line on a terminal. Off a
// terminal it prints nothing.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	last    int
	drawn   bool
}

func newProgressPrinter(w io.Writer, enabled bool) *progressPrinter {
	return &progressPrinter{w: w, enabled: enabled, last: -1}
}

func (p *progressPrinter) update(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || percent == p.last || (percent == 0 && !p.drawn) {
		return
	}
	p.last = percent
	p.drawn = true
	fmt.Fprintf(p.w, "\r%s [%s] %3d%%",
		infoStyle.Render("Uploading"),
		styles.RenderProgressBar(progressBarWidth, float64(percent)),
		percent)
}

// finish ends the progress line if one was drawn.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
	p.last = -1
}
