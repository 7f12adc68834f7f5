// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Update handles messages for the chat screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.followEnd = m.viewport.AtBottom()
		return m, cmd

	case StateChangedMsg:
		return m.refresh()

	case AlertMsg:
		m.alerts = append(m.alerts, msg.Text)
		m.layout()
		return m, nil

	case SessionStartedMsg:
		if msg.Err != nil {
			m.logger.Debug("initial session failed", zap.Error(msg.Err))
		}
		return m.refresh()

	case SendDoneMsg:
		m.finishRequest()
		if msg.Err != nil {
			m.logger.Debug("send finished with error", zap.Error(msg.Err))
		}
		return m.refresh()

	case UploadDoneMsg:
		m.finishRequest()
		m.alerts = append(m.alerts, msg.Unreadable...)
		if msg.Err != nil {
			m.logger.Debug("upload finished with error", zap.Error(msg.Err))
		}
		return m.refresh()

	case ThemeSavedMsg:
		if msg.Err != nil {
			m.alerts = append(m.alerts, fmt.Sprintf("Could not save theme: %v", msg.Err))
			m.layout()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.mode == modeChat {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

// refresh re-reads the controller snapshot and starts the spinner when a
// request is in flight.
func (m Model) refresh() (tea.Model, tea.Cmd) {
	m.snap = m.ctrl.Snapshot()
	if m.mode == modeRemove && len(m.snap.Files) == 0 {
		m.leavePrompt()
	}
	m.layout()

	if m.busy() && !m.spinning {
		m.spinning = true
		return m, m.spinner.Tick
	}
	return m, nil
}

// busy reports whether a send or upload is in flight. It also covers the
// gap before the controller marks itself busy, such as a slow first
// session start.
func (m Model) busy() bool {
	return m.snap.Busy || m.pending > 0
}

func (m *Model) finishRequest() {
	if m.pending > 0 {
		m.pending--
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if key.Matches(msg, m.keys.Dismiss) {
		switch {
		case m.mode != modeChat:
			m.leavePrompt()
		case len(m.alerts) > 0:
			m.alerts = m.alerts[1:]
		}
		m.layout()
		return m, nil
	}

	if key.Matches(msg, m.keys.PageUp) {
		m.viewport.HalfViewUp()
		m.followEnd = false
		return m, nil
	}
	if key.Matches(msg, m.keys.PageDown) {
		m.viewport.HalfViewDown()
		m.followEnd = m.viewport.AtBottom()
		return m, nil
	}

	if m.mode != modeChat {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy() {
			return m, nil
		}
		m.input.Reset()
		m.followEnd = true
		m.pending++
		m.layout()
		return m, m.sendCmd(text)

	case key.Matches(msg, m.keys.Upload):
		if m.busy() {
			return m, nil
		}
		return m, m.enterPrompt(modePaths, "Upload PDFs: ", "path/to/file.pdf, other.pdf")

	case key.Matches(msg, m.keys.Remove):
		if len(m.snap.Files) == 0 {
			return m, nil
		}
		placeholder := fmt.Sprintf("1-%d", len(m.snap.Files))
		return m, m.enterPrompt(modeRemove, "Remove file #: ", placeholder)

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.ClearTranscript()
		return m.refresh()

	case key.Matches(msg, m.keys.Theme):
		next := m.theme.Toggled()
		m.applyTheme(next)
		m.layout()
		return m, m.saveThemeCmd(next.Preference)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Send) {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	value := strings.TrimSpace(m.prompt.Value())
	mode := m.mode
	m.leavePrompt()

	switch mode {
	case modePaths:
		paths := ParsePaths(value)
		if len(paths) == 0 || m.busy() {
			m.layout()
			return m, nil
		}
		m.pending++
		m.layout()
		return m, m.uploadCmd(paths)

	case modeRemove:
		n, err := strconv.Atoi(value)
		if err != nil || !m.ctrl.RemoveFile(n-1) {
			if value != "" {
				m.alerts = append(m.alerts, fmt.Sprintf("No staged file #%s", value))
			}
			m.layout()
			return m, nil
		}
		return m.refresh()
	}
	return m, nil
}

// enterPrompt switches the input line to a one-shot prompt.
func (m *Model) enterPrompt(mode inputMode, label, placeholder string) tea.Cmd {
	m.mode = mode
	m.prompt.Prompt = label
	m.prompt.Placeholder = placeholder
	m.prompt.Reset()
	m.input.Blur()
	m.layout()
	return m.prompt.Focus()
}

func (m *Model) leavePrompt() {
	m.mode = modeChat
	m.prompt.Blur()
	m.prompt.Reset()
	m.input.Focus()
}
