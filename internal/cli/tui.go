// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/chat"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// closeTimeout bounds the session DELETE sent on exit.
const closeTimeout = 3 * time.Second

// runTUI starts the full-screen chat interface and ends the backend
// session when it exits.
func (a *app) runTUI(ctx context.Context) error {
	if !stdinIsTerminal(a.stdin) {
		return &UsageError{
			Field:   "terminal",
			Reason:  "the interactive UI needs a terminal on stdin",
			Example: "pdfchat ask --file report.pdf \"What is the conclusion?\"",
		}
	}

	bridge := chat.NewBridge()
	ctrl := session.New(a.client(), session.Options{
		Reporter:           bridge,
		Logger:             a.logger.Logger,
		OnChange:           bridge.Notify,
		ProgressResetDelay: a.cfg.ProgressResetDelay(),
	})
	defer a.closeController(ctrl)

	model := chat.New(ctrl, chat.Options{
		Context:        ctx,
		Theme:          styles.NewTheme(a.cfg.UI.Theme),
		SaveTheme:      saveThemePreference,
		RenderMarkdown: a.cfg.UI.RenderMarkdown,
		Logger:         a.logger.Logger,
	})

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	bridge.Attach(program)

	a.logger.Info("TUI started", zap.String("backend", a.cfg.Backend.URL))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	a.logger.Info("TUI exited")
	return nil
}

// saveThemePreference persists a theme toggled in the UI. The file is
// re-read so environment overrides are not written back.
func saveThemePreference(preference string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}
	return cfg.SetTheme(preference)
}
