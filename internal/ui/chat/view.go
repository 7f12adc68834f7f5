// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pdfchat-tui/internal/document"
	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
	"github.com/jeranaias/pdfchat-tui/internal/util"
)

// Title is the header title.
const Title = "PDF Chat Assistant"

// ProcessingText accompanies the spinner while a request is in flight.
const ProcessingText = "Processing..."

const (
	sidePanelMaxWidth = 36
	narrowPanelRows   = 3
)

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if panel := m.renderFilePanel(); panel != "" {
		if m.theme.GetLayoutMode() == styles.LayoutWide {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
		} else {
			body = lipgloss.JoinVertical(lipgloss.Left, panel, body)
		}
	}

	sections := []string{m.renderHeader(), body}
	sections = append(sections, m.footerSections()...)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport to the space left by the other sections and
// refreshes its content.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	transcriptWidth := m.width
	panelHeight := 0
	if panel := m.renderFilePanel(); panel != "" {
		if m.theme.GetLayoutMode() == styles.LayoutWide {
			transcriptWidth -= lipgloss.Width(panel)
		} else {
			panelHeight = lipgloss.Height(panel)
		}
	}

	used := lipgloss.Height(m.renderHeader()) + panelHeight
	for _, s := range m.footerSections() {
		used += lipgloss.Height(s)
	}

	m.viewport.Width = max(transcriptWidth, 10)
	m.viewport.Height = max(m.height-used, 1)
	m.input.Width = max(m.width-len(m.input.Prompt)-4, 10)
	m.prompt.Width = max(m.width-len(m.prompt.Prompt)-4, 10)
	m.progress.Width = max(m.width-4, 10)

	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	if m.followEnd {
		m.viewport.GotoBottom()
	}
}

// footerSections returns everything below the transcript, in order.
func (m Model) footerSections() []string {
	var sections []string

	if m.snap.Progress > 0 {
		sections = append(sections, " "+m.progress.ViewAs(float64(m.snap.Progress)/100))
	}
	if m.busy() {
		sections = append(sections, " "+m.spinner.View()+" "+m.theme.Processing.Render(ProcessingText))
	}
	if len(m.alerts) > 0 {
		alert := m.theme.Alert.Render(styles.StatusIndicators.Warning + " " + m.alerts[0])
		hint := "esc to dismiss"
		if more := len(m.alerts) - 1; more > 0 {
			hint = fmt.Sprintf("esc to dismiss, %d more", more)
		}
		sections = append(sections, alert+" "+m.theme.AlertHint.Render(hint))
	}

	line := m.input.View()
	if m.mode != modeChat {
		line = m.prompt.View()
	}
	sections = append(sections, m.theme.InputContainer.Width(max(m.width, 1)).Render(line))
	sections = append(sections, " "+m.help.ShortHelpView(m.keys.ShortHelp()))
	return sections
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(Title)
	greeting := m.theme.Greeting.Render(styles.Greeting(m.now()))
	status := m.renderStatus()

	left := title + "  " + greeting
	inner := max(m.width-6, 0) // border + padding
	gap := inner - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(max(m.width-2, 1)).Render(left + strings.Repeat(" ", gap) + status)
}

func (m Model) renderStatus() string {
	switch m.snap.Status {
	case session.StatusConnected:
		return m.theme.StatusConnected.Render(styles.StatusIndicators.Success + " Connected")
	case session.StatusConnecting:
		return m.theme.StatusConnecting.Render(styles.StatusIndicators.Pending + " Connecting...")
	case session.StatusError:
		return m.theme.StatusError.Render(styles.StatusIndicators.Error + " Connection error")
	default:
		return m.theme.StatusDisconnected.Render(styles.StatusIndicators.Pending + " Disconnected")
	}
}

// =============================================================================
// FILE PANEL
// =============================================================================

func (m Model) renderFilePanel() string {
	files := m.snap.Files
	if len(files) == 0 {
		return ""
	}

	wide := m.theme.GetLayoutMode() == styles.LayoutWide
	width := m.width
	if wide {
		width = min(sidePanelMaxWidth, m.width/3)
	}
	nameWidth := max(width-16, 8)

	shown := files
	if !wide && len(files) > narrowPanelRows {
		shown = files[:narrowPanelRows]
	}

	lines := []string{m.theme.FilePanelTitle.Render(fmt.Sprintf("Files (%d)", len(files)))}
	for i, f := range shown {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			m.theme.FileIndex.Render(fmt.Sprintf("%d.", i+1)),
			m.theme.FileName.Render(util.TruncateMiddle(f.Name, nameWidth)),
			m.theme.FileSize.Render(document.FormatMB(f.Size)),
		))
	}
	if hidden := len(files) - len(shown); hidden > 0 {
		lines = append(lines, m.theme.Muted.Render(fmt.Sprintf("...and %d more", hidden)))
	}

	return m.theme.FilePanel.Width(width).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript(width int) string {
	turns := m.snap.Transcript
	if len(turns) == 0 {
		return m.theme.EmptyState.Render("Upload PDFs with ctrl+o, then ask a question about them.")
	}

	contentWidth := max(width-2, 10)
	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		blocks = append(blocks, m.renderTurn(turn, contentWidth))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderTurn(turn model.Turn, width int) string {
	label := m.theme.AssistantLabel
	body := m.theme.AssistantMessage
	if turn.IsUser() {
		label = m.theme.UserLabel
		body = m.theme.UserMessage
	}

	header := label.Render(turn.Role.DisplayName())
	if !turn.Timestamp.IsZero() {
		header += " " + m.theme.Timestamp.Render(turn.Timestamp.Format("15:04"))
	}

	if !turn.IsUser() {
		if rendered, ok := m.markdown.Render(turn.Content, m.theme.GlamourStyle(), width); ok {
			return header + "\n" + rendered
		}
	}
	return header + "\n" + body.Width(width).Render(turn.Content)
}
