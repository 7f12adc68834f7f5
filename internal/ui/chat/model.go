// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/document"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// Controller is the session API the chat screen drives.
// *session.Controller implements it.
type Controller interface {
	Start(ctx context.Context) error
	Snapshot() session.Snapshot
	Upload(ctx context.Context, files []document.File) error
	Send(ctx context.Context, text string) error
	RemoveFile(index int) bool
	ClearTranscript()
}

// =============================================================================
// INPUT MODES
// =============================================================================

// inputMode selects what the input line is collecting.
type inputMode int

const (
	modeChat   inputMode = iota // Chat message
	modePaths                   // Paths to upload
	modeRemove                  // Number of the file to remove
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat Model.
type Options struct {
	// Context bounds every controller call. Defaults to Background.
	Context context.Context

	// Theme defaults to styles.NewTheme("auto").
	Theme *styles.Theme

	// SaveTheme persists a toggled theme preference. Nil skips saving.
	SaveTheme func(preference string) error

	// RenderMarkdown renders assistant answers with glamour.
	RenderMarkdown bool

	Logger *zap.Logger

	// Now drives the header greeting. Defaults to time.Now.
	Now func() time.Time
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctrl      Controller
	ctx       context.Context
	logger    *zap.Logger
	saveTheme func(string) error
	now       func() time.Time

	// Styling
	theme    *styles.Theme
	markdown *markdownRenderer

	// Dimensions
	width  int
	height int
	ready  bool

	// Latest controller state
	snap session.Snapshot

	// UI Components
	viewport  viewport.Model
	input     textinput.Model
	prompt    textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	help      help.Model
	keys      KeyMap
	mode      inputMode
	spinning  bool
	pending   int // sends and uploads dispatched but not yet done
	alerts    []string
	quitting  bool
	followEnd bool
}

// New creates the chat Model. No controller call is made until Init.
func New(ctrl Controller, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.PreferenceAuto)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Ask a question about your PDFs..."
	input.CharLimit = 4000
	input.Focus()

	prompt := textinput.New()
	prompt.CharLimit = 1024

	m := Model{
		ctrl:      ctrl,
		ctx:       opts.Context,
		logger:    opts.Logger.Named("tui"),
		saveTheme: opts.SaveTheme,
		now:       opts.Now,
		markdown:  newMarkdownRenderer(opts.RenderMarkdown),
		snap:      ctrl.Snapshot(),
		viewport:  viewport.New(0, 0),
		input:     input,
		prompt:    prompt,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      DefaultKeyMap(),
		followEnd: true,
	}
	m.applyTheme(opts.Theme)
	return m
}

// Init starts the initial session and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startSessionCmd())
}

// applyTheme restyles every component for t.
func (m *Model) applyTheme(t *styles.Theme) {
	t.SetSize(m.width, m.height)
	m.theme = t

	m.input.PromptStyle = t.InputPrompt
	m.input.PlaceholderStyle = t.InputPlaceholder
	m.prompt.PromptStyle = t.PathPrompt
	m.spinner.Style = t.Spinner
	m.help.Styles.ShortKey = t.ShortcutKey
	m.help.Styles.ShortDesc = t.ShortcutDesc
	m.help.Styles.ShortSeparator = t.Muted

	width := m.progress.Width
	m.progress = progress.New(progress.WithGradient(t.ProgressStart, t.ProgressEnd))
	if width > 0 {
		m.progress.Width = width
	}
	m.markdown.reset()
}

// Theme returns the active theme.
func (m Model) Theme() *styles.Theme {
	return m.theme
}

// Alerts returns the queued alert texts, oldest first.
func (m Model) Alerts() []string {
	out := make([]string, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) startSessionCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return SessionStartedMsg{Err: ctrl.Start(ctx)}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return SendDoneMsg{Err: ctrl.Send(ctx, text)}
	}
}

func (m Model) uploadCmd(paths []string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		files, unreadable := OpenPaths(paths)
		var err error
		if len(files) > 0 {
			err = ctrl.Upload(ctx, files)
		}
		return UploadDoneMsg{Unreadable: unreadable, Err: err}
	}
}

func (m Model) saveThemeCmd(preference string) tea.Cmd {
	save := m.saveTheme
	if save == nil {
		return nil
	}
	return func() tea.Msg {
		return ThemeSavedMsg{Preference: preference, Err: save(preference)}
	}
}
