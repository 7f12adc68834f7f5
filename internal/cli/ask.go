// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command for pdfchat.
//
// Command: ask
// Short:   Upload PDFs and ask one question about them
//
// Examples:
//   pdfchat ask --file report.pdf "What are the key findings?"
//   pdfchat ask -f a.pdf -f b.pdf "Compare the two budgets"
//   pdfchat ask --raw -f notes.pdf "List the action items" > items.md
//
// Flags:
//   -f, --file PATH   PDF to upload first (repeatable)
//   --raw             Print the answer without markdown rendering

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/chat"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

type askOptions struct {
	files []string
	raw   bool
}

func newAskCommand(a *app) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Upload PDFs and ask one question about them",
		Long: `Uploads the given PDFs to a new session, asks one question and prints
the answer. The session is deleted afterwards.

The answer is rendered as markdown when stdout is a terminal.`,
		Example: `  pdfchat ask --file report.pdf "What are the key findings?"
  pdfchat ask -f a.pdf -f b.pdf "Compare the two budgets"`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: lineMode,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd.Context(), opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "PDF to upload before asking (repeatable)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the answer without markdown rendering")
	return cmd
}

func (a *app) runAsk(ctx context.Context, opts *askOptions, question string) error {
	if strings.TrimSpace(question) == "" {
		return &UsageError{
			Field:   "question",
			Reason:  "must not be empty",
			Example: `pdfchat ask --file report.pdf "What is the conclusion?"`,
		}
	}

	reporter := newLineReporter(a.stderr)
	ctrl := a.newController(reporter, nil)
	defer a.closeController(ctrl)

	if len(opts.files) > 0 {
		if err := a.uploadPaths(ctx, ctrl, reporter, opts.files); err != nil {
			return reporter.failure(err)
		}
		if reporter.Count() > 0 {
			return reporter.failure(nil)
		}
	}

	if err := ctrl.Send(ctx, question); err != nil {
		if answer, ok := lastAnswer(ctrl.Snapshot().Transcript); ok {
			fmt.Fprintln(a.stderr, warningStyle.Render(answer))
		}
		return reporter.failure(err)
	}

	answer, ok := lastAnswer(ctrl.Snapshot().Transcript)
	if !ok {
		return fmt.Errorf("no answer received")
	}
	a.logger.Debug("answer received", zap.Int("length", len(answer)))

	fmt.Fprintln(a.stdout, a.formatAnswer(answer, opts.raw))
	return nil
}

// uploadPaths opens paths and uploads the readable ones. Unreadable paths
// are reported like rejected files.
func (a *app) uploadPaths(ctx context.Context, ctrl *session.Controller, reporter session.Reporter, paths []string) error {
	files, unreadable := chat.OpenPaths(paths)
	for _, msg := range unreadable {
		reporter.Report(session.KindValidation, msg)
	}
	if len(files) == 0 {
		return nil
	}
	return ctrl.Upload(ctx, files)
}

// lastAnswer returns the content of the final assistant turn.
func lastAnswer(turns []model.Turn) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if !turns[i].IsUser() {
			return turns[i].Content, true
		}
	}
	return "", false
}

// formatAnswer renders markdown for terminals and leaves piped output raw.
func (a *app) formatAnswer(answer string, raw bool) string {
	if raw || !a.cfg.UI.RenderMarkdown || !styledOutput(a.stdout) {
		return answer
	}
	theme := styles.NewTheme(a.cfg.UI.Theme)
	rendered, err := chat.RenderMarkdown(answer, theme.GlamourStyle(), terminalWidth(a.stdout)-2)
	if err != nil {
		a.logger.Debug("markdown rendering failed", zap.Error(err))
		return answer
	}
	return rendered
}
