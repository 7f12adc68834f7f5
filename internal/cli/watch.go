// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch.go - Directory watch command for pdfchat.
//
// Command: watch
// Short:   Upload PDFs as they appear in a directory
//
// All uploads go to one session, which is deleted on exit (Ctrl+C).

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	var existing bool
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Upload PDFs as they appear in a directory",
		Long: `Watches a directory (not its subdirectories) and uploads every PDF that
is created or rewritten there. Uploads are debounced and rate limited by the
[upload] settings in the config file. Press Ctrl+C to stop.`,
		Example: `  pdfchat watch ~/Downloads
  pdfchat watch --existing ./papers`,
		Args:        cobra.ExactArgs(1),
		Annotations: lineMode,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context(), args[0], existing)
		},
	}
	cmd.Flags().BoolVar(&existing, "existing", false, "also upload PDFs already in the directory")
	return cmd
}

func (a *app) runWatch(ctx context.Context, dir string, existing bool) error {
	reporter := newLineReporter(a.stderr)
	ctrl := a.newController(reporter, nil)
	defer a.closeController(ctrl)

	w, err := watch.New(dir, ctrl, watch.Options{
		Debounce:         a.cfg.WatchDebounce(),
		UploadsPerMinute: a.cfg.Upload.WatchUploadsPerMinute,
		IncludeExisting:  existing,
		Logger:           a.logger.Logger,
		OnUpload: func(path string, err error) {
			if err != nil {
				// The controller already reported why.
				a.logger.Debug("watched upload failed", zap.String("path", path), zap.Error(err))
				return
			}
			fmt.Fprintf(a.stdout, "%s %s\n", commandStyle.Render("[Uploaded]"), filepath.Base(path))
		},
	})
	if err != nil {
		return &UsageError{Field: "dir", Reason: err.Error()}
	}

	fmt.Fprintf(a.stderr, "%s %s %s\n",
		infoStyle.Render("Watching"), w.Dir(), infoStyle.Render("(Ctrl+C to stop)"))
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir(), err)
	}
	if id := ctrl.SessionID(); id != "" {
		fmt.Fprintf(a.stderr, "%s session %s\n", infoStyle.Render("Stopped; ending"), id)
	}
	return nil
}
