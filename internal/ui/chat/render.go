// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders assistant answers with glamour and caches the
// result per answer, style and width. It is shared by copies of Model.
type markdownRenderer struct {
	enabled bool

	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdownRenderer(enabled bool) *markdownRenderer {
	return &markdownRenderer{enabled: enabled, cache: make(map[string]string)}
}

// reset drops the renderer and cache after a theme change.
func (r *markdownRenderer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderer = nil
	r.cache = make(map[string]string)
}

// Render returns content as styled terminal text. It returns ok=false when
// rendering is disabled or fails, so callers fall back to plain text.
func (r *markdownRenderer) Render(content, style string, width int) (string, bool) {
	if !r.enabled || width <= 0 {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderer == nil || r.style != style || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", false
		}
		r.renderer, r.style, r.width = renderer, style, width
		r.cache = make(map[string]string)
	}

	if out, ok := r.cache[content]; ok {
		return out, true
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return "", false
	}
	out = strings.Trim(out, "\n")
	r.cache[content] = out
	return out, true
}

// RenderMarkdown renders markdown once for non-interactive output.
func RenderMarkdown(content, style string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
