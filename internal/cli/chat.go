// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat REPL for pdfchat.
//
// Command: chat
// Short:   Chat about PDFs in a line-based REPL
//
// Interactive Commands (during chat):
//   /help, /h             Show available commands
//   /upload, /u PATHS     Upload PDFs (comma or space separated)
//   /files, /f            List staged files
//   /remove, /rm N        Remove staged file N from the list
//   /clear, /c            Clear the transcript
//   /save PATH            Save the transcript as markdown
//   /quit, /q             Exit chat
//   Ctrl+D                Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/document"
	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/chat"
	"github.com/jeranaias/pdfchat-tui/internal/util"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat about PDFs in a line-based REPL",
		Long: `Starts a line-based chat with input history. Upload PDFs with
/upload and ask questions by typing them. Type /help for all commands.`,
		Args:        cobra.NoArgs,
		Annotations: lineMode,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads history from historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() error {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	c.line.Close()
	return err
}

func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// REPL
// =============================================================================

// chatREPL holds the state of one line-mode chat.
type chatREPL struct {
	app      *app
	ctrl     *session.Controller
	out      io.Writer
	printed  int // transcript turns already shown
	reporter *lineReporter
}

func (a *app) runChat(ctx context.Context) error {
	reporter := newLineReporter(a.stderr)
	ctrl := a.newController(reporter, nil)
	defer a.closeController(ctrl)

	repl := &chatREPL{app: a, ctrl: ctrl, out: a.stdout, reporter: reporter}
	repl.printWelcome()

	input := NewChatCLI(historyPath())
	defer func() {
		if err := input.Close(); err != nil {
			a.logger.Debug("could not save chat history", zap.Error(err))
		}
	}()

	for {
		line, err := input.ReadInput(promptStyle.Render("pdfchat> "))
		if err != nil {
			// Ctrl+C, Ctrl+D and closed stdin all end the chat.
			fmt.Fprintln(a.stdout)
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		cont, err := repl.handleLine(ctx, line)
		if err != nil {
			fmt.Fprintf(a.stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		if !cont {
			return nil
		}
	}
}

// handleLine runs one line of input. It returns false when the chat should
// end.
func (r *chatREPL) handleLine(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, nil
	}
	if strings.HasPrefix(line, "/") {
		return r.handleSlashCommand(ctx, line)
	}
	if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
		return false, nil
	}

	err := r.ctrl.Send(ctx, line)
	r.printNewTurns()
	if err != nil && !errors.Is(err, session.ErrClosed) {
		r.app.logger.Debug("chat request failed", zap.Error(err))
	}
	return true, nil
}

// printNewTurns prints assistant turns added since the last call.
func (r *chatREPL) printNewTurns() {
	turns := r.ctrl.Snapshot().Transcript
	if r.printed > len(turns) {
		r.printed = 0
	}
	for _, turn := range turns[r.printed:] {
		if turn.IsUser() {
			continue
		}
		label := commandStyle.Render(turn.Role.DisplayName() + ":")
		if turn.Content == session.ApologyText {
			label = warningStyle.Render(turn.Role.DisplayName() + ":")
		}
		fmt.Fprintf(r.out, "%s\n%s\n\n", label, r.app.formatAnswer(turn.Content, false))
	}
	r.printed = len(turns)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (r *chatREPL) handleSlashCommand(ctx context.Context, line string) (bool, error) {
	command, rest, _ := strings.Cut(line, " ")
	command = strings.ToLower(command)
	rest = strings.TrimSpace(rest)

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()
		return true, nil

	case "/upload", "/u":
		paths := chat.ParsePaths(rest)
		if len(paths) == 0 {
			return true, &UsageError{Field: "/upload", Reason: "no paths given", Example: "/upload report.pdf appendix.pdf"}
		}
		before := len(r.ctrl.Snapshot().Files)
		if err := r.app.uploadPaths(ctx, r.ctrl, r.reporter, paths); err != nil {
			// Already reported by the controller.
			r.app.logger.Debug("upload failed", zap.Error(err))
			return true, nil
		}
		if added := len(r.ctrl.Snapshot().Files) - before; added > 0 {
			fmt.Fprintln(r.out, commandStyle.Render(fmt.Sprintf("[Uploaded %d file(s)]", added)))
		}
		return true, nil

	case "/files", "/f":
		r.printFiles()
		return true, nil

	case "/remove", "/rm":
		n, err := strconv.Atoi(rest)
		if err != nil || !r.ctrl.RemoveFile(n-1) {
			return true, &UsageError{Field: "file number", Reason: fmt.Sprintf("no staged file #%s", rest), Example: "/remove 1"}
		}
		fmt.Fprintln(r.out, commandStyle.Render(fmt.Sprintf("[Removed file #%d]", n)))
		return true, nil

	case "/clear", "/c":
		r.ctrl.ClearTranscript()
		r.printed = 0
		fmt.Fprintln(r.out, commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/save":
		if rest == "" {
			return true, &UsageError{Field: "/save", Reason: "no path given", Example: "/save transcript.md"}
		}
		return true, r.saveTranscript(rest)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func (r *chatREPL) saveTranscript(path string) error {
	paths := chat.ParsePaths(path)
	if len(paths) != 1 {
		return &UsageError{Field: "/save", Reason: "expected one path", Example: "/save transcript.md"}
	}
	content := model.ExportMarkdown(r.ctrl.Snapshot().Transcript)
	if err := util.AtomicWriteFile(paths[0], []byte(content), 0600, 0700); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	fmt.Fprintln(r.out, commandStyle.Render("[Saved to "+paths[0]+"]"))
	return nil
}

func (r *chatREPL) printFiles() {
	files := r.ctrl.Snapshot().Files
	if len(files) == 0 {
		fmt.Fprintln(r.out, infoStyle.Render("No files uploaded. Use /upload <path>."))
		return
	}
	fmt.Fprintln(r.out, welcomeStyle.Render(fmt.Sprintf("Files (%d)", len(files))))
	for i, f := range files {
		fmt.Fprintf(r.out, "  %s %s %s\n",
			infoStyle.Render(fmt.Sprintf("%d.", i+1)),
			f.Name,
			infoStyle.Render(document.FormatMB(f.Size)))
	}
}

func (r *chatREPL) printWelcome() {
	fmt.Fprintln(r.out, welcomeStyle.Render("PDF Chat Assistant"))
	fmt.Fprintln(r.out, infoStyle.Render("Backend: "+r.app.cfg.Backend.URL))
	fmt.Fprintln(r.out, infoStyle.Render("Upload PDFs with /upload <path>, then ask a question. /help lists commands."))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printHelp() {
	cmds := [][2]string{
		{"/upload PATHS", "Upload PDFs (comma or space separated)"},
		{"/files", "List staged files"},
		{"/remove N", "Remove staged file N from the list"},
		{"/clear", "Clear the transcript"},
		{"/save PATH", "Save the transcript as markdown"},
		{"/quit", "Exit chat"},
	}
	fmt.Fprintln(r.out, welcomeStyle.Render("Commands"))
	for _, c := range cmds {
		fmt.Fprintf(r.out, "  %-16s %s\n", commandStyle.Render(c[0]), infoStyle.Render(c[1]))
	}
}
