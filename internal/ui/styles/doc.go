// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the pdfchat TUI.

# Color System (colors.go)

Every color is a light/dark pair:

  - Purple - Title and assistant labels
  - Cyan - User labels, prompt and key hints
  - Emerald - Connected status
  - Amber - Connecting status and the path prompt
  - Rose - Errors and alerts

Unlike plain lipgloss AdaptiveColor use, the active Theme resolves each pair
itself, so a theme chosen by the user overrides terminal detection.

# Themes (theme.go)

A Theme is built from a stored preference: "auto" detects the terminal
background with termenv, "dark" and "light" force it. Toggled returns the
explicit opposite, which the UI persists back to the config file.

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.HeaderTitle.Render("PDF Chat Assistant")

# Helpers

  - Greeting: "Good Morning", "Good Afternoon" or "Good Evening"
  - RenderProgressBar: ASCII bar for line-oriented output
  - StatusIndicators: ASCII shapes that accompany status colors
*/
package styles
