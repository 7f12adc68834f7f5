// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated display text.
const Ellipsis = "..."

// TruncateWidth shortens s to at most maxWidth terminal columns, ending in
// Ellipsis when anything was cut. Wide (CJK) runes count as two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// TruncateMiddle keeps both ends of s, which suits file names whose
// extension matters: "quarterly-report-final.pdf" -> "quarterl...nal.pdf".
func TruncateMiddle(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis)+2 {
		return TruncateWidth(s, maxWidth)
	}

	keep := maxWidth - len(Ellipsis)
	tailWidth := keep / 2
	headWidth := keep - tailWidth

	head := runewidth.Truncate(s, headWidth, "")

	runes := []rune(s)
	width := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		w := runewidth.RuneWidth(runes[i])
		if width+w > tailWidth {
			break
		}
		width += w
		start = i
	}
	return head + Ellipsis + string(runes[start:])
}
