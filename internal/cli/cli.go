// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command, global flags and shared wiring for pdfchat.
//
// Usage:
//   pdfchat                      Start the TUI (default)
//   pdfchat ask --file a.pdf Q   Upload then ask one question
//   pdfchat chat                 Line-mode chat with history
//   pdfchat upload a.pdf b.pdf   Upload and print the session id
//   pdfchat watch DIR            Upload PDFs as they appear in DIR
//   pdfchat config [show|get|set|theme|keys|path]
//   pdfchat version

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/backend"
	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/logging"
	"github.com/jeranaias/pdfchat-tui/internal/session"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP
// =============================================================================

// app carries the state every command shares once flags are parsed.
type app struct {
	// Global flags
	apiURL  string
	verbose bool

	cfg    *config.Config
	logger *logging.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// setup loads configuration and builds the logger. consoleLogs adds a
// stderr sink when --verbose is set; the TUI owns the terminal so it never
// asks for one.
func (a *app) setup(cmd *cobra.Command, consoleLogs bool) error {
	a.stdin = cmd.InOrStdin()
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		return &configError{err: err}
	}
	if a.apiURL != "" {
		cfg.Backend.URL = a.apiURL
		if err := cfg.Validate(); err != nil {
			return &configError{err: fmt.Errorf("--api-url: %w", err)}
		}
	}
	a.cfg = cfg

	logFile, err := cfg.LogFile()
	if err != nil {
		return &configError{err: err}
	}
	opts := logging.Options{
		File:       logFile,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Verbose:    a.verbose,
	}
	if consoleLogs && a.verbose {
		opts.Console = a.stderr
	}
	logger, err := logging.New(opts)
	if err != nil {
		return &configError{err: fmt.Errorf("failed to initialize logger: %w", err)}
	}
	a.logger = logger
	a.logger.Debug("pdfchat starting",
		zap.String("command", cmd.Name()),
		zap.String("backend", cfg.Backend.URL),
		zap.String("version", Version))
	return nil
}

func (a *app) teardown() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// client returns a backend client configured from the loaded config.
func (a *app) client() *backend.Client {
	return backend.NewClient(a.cfg.Backend.URL).
		WithTimeout(a.cfg.RequestTimeout()).
		WithLogger(a.logger.Logger)
}

// newController creates a session controller for the line-mode commands.
func (a *app) newController(reporter session.Reporter, onChange func()) *session.Controller {
	return session.New(a.client(), session.Options{
		Reporter:           reporter,
		Logger:             a.logger.Logger,
		OnChange:           onChange,
		ProgressResetDelay: a.cfg.ProgressResetDelay(),
	})
}

// closeController ends the backend session with a bounded wait.
func (a *app) closeController(ctrl *session.Controller) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	ctrl.Close(ctx)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the pdfchat command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pdfchat",
		Short: "Chat with your PDF documents from the terminal",
		Long: `pdfchat uploads PDF documents to a PDF chat backend and lets you ask
questions about them.

Run without arguments to start the interactive terminal UI. The backend URL
comes from backend.url in ~/.pdfchat/config.toml, PDFCHAT_API_URL, or
--api-url, in increasing order of precedence.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoSetup] == "true" {
				return nil
			}
			return a.setup(cmd, cmd.Annotations[annotationConsoleLogs] == "true")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", "", "backend base URL (overrides config and PDFCHAT_API_URL)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging; line-mode commands also log to stderr")

	root.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newUploadCommand(a),
		newWatchCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// Command annotations read by the root PersistentPreRunE.
const (
	annotationNoSetup     = "pdfchat/no-setup"
	annotationConsoleLogs = "pdfchat/console-logs"
)

// lineMode marks a command that writes plain lines and may log to stderr.
var lineMode = map[string]string{annotationConsoleLogs: "true"}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		DisplayError(root.ErrOrStderr(), err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
