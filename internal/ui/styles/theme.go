// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme preference names, as stored in the config file.
const (
	PreferenceAuto  = "auto"
	PreferenceDark  = "dark"
	PreferenceLight = "light"
)

// DetectDark reports whether the terminal has a dark background. Tests
// replace it.
var DetectDark = termenv.HasDarkBackground

// Theme holds all the styled components for the application.
type Theme struct {
	// Preference is what the user asked for: auto, dark or light.
	Preference string
	// IsDark is the resolved background.
	IsDark bool

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Greeting    lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	StatusConnected    lipgloss.Style
	StatusConnecting   lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusError        lipgloss.Style

	// ==========================================================================
	// FILE PANEL STYLES
	// ==========================================================================

	FilePanel      lipgloss.Style
	FilePanelTitle lipgloss.Style
	FileIndex      lipgloss.Style
	FileName       lipgloss.Style
	FileSize       lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT STYLES
	// ==========================================================================

	UserLabel        lipgloss.Style
	AssistantLabel   lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	Timestamp        lipgloss.Style
	EmptyState       lipgloss.Style

	// ==========================================================================
	// BUSY AND ALERT STYLES
	// ==========================================================================

	Spinner    lipgloss.Style
	Processing lipgloss.Style
	Alert      lipgloss.Style
	AlertHint  lipgloss.Style

	// ==========================================================================
	// INPUT AND FOOTER STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	PathPrompt       lipgloss.Style
	ShortcutKey      lipgloss.Style
	ShortcutDesc     lipgloss.Style
	Muted            lipgloss.Style

	// ProgressStart and ProgressEnd feed the bubbles progress gradient.
	ProgressStart string
	ProgressEnd   string
}

// NewTheme builds the theme for a stored preference. Unknown preferences
// behave like auto.
func NewTheme(preference string) *Theme {
	t := &Theme{Preference: normalizePreference(preference)}
	t.IsDark = ResolveDark(t.Preference)
	t.initStyles()
	return t
}

// ResolveDark maps a preference to a background, detecting it for auto.
func ResolveDark(preference string) bool {
	switch normalizePreference(preference) {
	case PreferenceDark:
		return true
	case PreferenceLight:
		return false
	default:
		return DetectDark()
	}
}

// Toggled returns the explicit opposite theme. Toggling from auto flips
// whatever auto resolved to.
func (t *Theme) Toggled() *Theme {
	next := PreferenceDark
	if t.IsDark {
		next = PreferenceLight
	}
	toggled := NewTheme(next)
	toggled.SetSize(t.Width, t.Height)
	return toggled
}

// GlamourStyle names the glamour standard style matching this theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return PreferenceDark
	}
	return PreferenceLight
}

func normalizePreference(p string) string {
	switch p {
	case PreferenceDark, PreferenceLight:
		return p
	default:
		return PreferenceAuto
	}
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	c := func(ac lipgloss.AdaptiveColor) lipgloss.Color { return pick(ac, t.IsDark) }

	// Header
	t.Header = lipgloss.NewStyle().
		Background(c(SurfaceDim)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Purple)).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Purple))

	t.Greeting = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Italic(true)

	// Status
	t.StatusConnected = lipgloss.NewStyle().Foreground(c(Emerald)).Bold(true)
	t.StatusConnecting = lipgloss.NewStyle().Foreground(c(Amber))
	t.StatusDisconnected = lipgloss.NewStyle().Foreground(c(TextMuted))
	t.StatusError = lipgloss.NewStyle().Foreground(c(Rose)).Bold(true)

	// File panel
	t.FilePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(c(Overlay)).
		BorderLeft(true).
		PaddingLeft(1)

	t.FilePanelTitle = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Bold(true)

	t.FileIndex = lipgloss.NewStyle().Foreground(c(Cyan))
	t.FileName = lipgloss.NewStyle().Foreground(c(TextPrimary))
	t.FileSize = lipgloss.NewStyle().Foreground(c(TextMuted))

	// Transcript
	t.UserLabel = lipgloss.NewStyle().Foreground(c(Cyan)).Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(c(Purple)).Bold(true)

	t.UserMessage = lipgloss.NewStyle().
		Foreground(c(UserBubbleFg)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(c(UserBubbleBorder)).
		BorderLeft(true).
		PaddingLeft(1)

	t.AssistantMessage = lipgloss.NewStyle().
		Foreground(c(AssistantBubbleFg)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(c(AssistantBubbleBorder)).
		BorderLeft(true).
		PaddingLeft(1)

	t.Timestamp = lipgloss.NewStyle().Foreground(c(TextMuted))

	t.EmptyState = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Italic(true)

	// Busy and alerts
	t.Spinner = lipgloss.NewStyle().Foreground(c(Purple))
	t.Processing = lipgloss.NewStyle().Foreground(c(TextSecondary)).Italic(true)

	t.Alert = lipgloss.NewStyle().
		Foreground(c(AlertFg)).
		Background(c(AlertBg)).
		Bold(true).
		Padding(0, 1)

	t.AlertHint = lipgloss.NewStyle().Foreground(c(TextMuted))

	// Input and footer
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(c(Overlay)).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().Foreground(c(Cyan)).Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(c(TextMuted)).Italic(true)
	t.PathPrompt = lipgloss.NewStyle().Foreground(c(Amber)).Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().Foreground(c(Cyan)).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(c(TextMuted))
	t.Muted = lipgloss.NewStyle().Foreground(c(TextMuted))

	t.ProgressStart = string(c(ProgressStart))
	t.ProgressEnd = string(c(ProgressEnd))
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 80 {
		return LayoutNarrow
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 80 columns: file panel above transcript
	LayoutWide                     // file panel beside transcript
)
