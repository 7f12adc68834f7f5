// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/pdfchat-tui/internal/session"

// =============================================================================
// CONTROLLER MESSAGES
// =============================================================================

// StateChangedMsg signals that the controller state changed and the
// snapshot should be re-read.
type StateChangedMsg struct{}

// AlertMsg carries a user-facing failure from the controller's Reporter.
type AlertMsg struct {
	Kind session.Kind
	Text string
}

// =============================================================================
// OPERATION RESULTS
// =============================================================================

// SessionStartedMsg reports the initial session establishment.
type SessionStartedMsg struct {
	Err error
}

// SendDoneMsg reports that a chat request finished. Failures already
// appear in the transcript; Err is only logged.
type SendDoneMsg struct {
	Err error
}

// UploadDoneMsg reports that an upload finished.
type UploadDoneMsg struct {
	// Unreadable lists paths that could not be opened, with the reason.
	Unreadable []string
	Err        error
}

// ThemeSavedMsg reports whether the toggled theme was persisted.
type ThemeSavedMsg struct {
	Preference string
	Err        error
}
