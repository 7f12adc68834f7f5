// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"
)

// Transcript is the ordered list of chat turns shown to the user.
// Turns are only ever appended; Clear drops all of them at once.
type Transcript struct {
	turns []Turn
	now   func() time.Time
}

// NewTranscript creates an empty transcript that stamps turns with now.
// A nil now uses time.Now.
func NewTranscript(now func() time.Time) *Transcript {
	return &Transcript{now: now}
}

// Append adds a turn to the end of the transcript and returns it.
func (t *Transcript) Append(role Role, content string) Turn {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	turn := Turn{Role: role, Content: content, Timestamp: now()}
	t.turns = append(t.turns, turn)
	return turn
}

// Clear empties the transcript. Clearing an empty transcript is a no-op.
func (t *Transcript) Clear() {
	t.turns = nil
}

// Turns returns a copy of all turns in order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Last returns the most recent turn.
func (t *Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// ExportMarkdown renders turns as a Markdown document.
func ExportMarkdown(turns []Turn) string {
	var sb strings.Builder
	sb.WriteString("# PDF Chat Transcript\n\n")
	if len(turns) == 0 {
		sb.WriteString("_No messages._\n")
		return sb.String()
	}
	for _, turn := range turns {
		header := turn.Role.DisplayName()
		if !turn.Timestamp.IsZero() {
			header = fmt.Sprintf("%s (%s)", header, turn.Timestamp.Format("15:04"))
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", header, strings.TrimSpace(turn.Content))
	}
	return sb.String()
}
