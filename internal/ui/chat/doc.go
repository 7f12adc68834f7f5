// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat screen for pdfchat.
//
// The Model renders a session.Controller snapshot: header with greeting and
// connection status, transcript viewport, staged-file panel, upload
// progress, busy spinner, alert bar and input line. Every controller call
// runs inside a tea.Cmd so the event loop never blocks on the network.
//
// Controller callbacks arrive on other goroutines. A Bridge forwards them
// into the program as StateChangedMsg and AlertMsg:
//
//	bridge := chat.NewBridge()
//	ctrl := session.New(client, session.Options{Reporter: bridge, OnChange: bridge.Notify})
//	p := tea.NewProgram(chat.New(ctrl, chat.Options{...}), tea.WithAltScreen())
//	bridge.Attach(p)
//	_, err := p.Run()
//
// # Keys
//
//	Enter    send the message
//	Ctrl+O   upload files (prompts for paths)
//	Ctrl+X   remove a staged file (prompts for its number)
//	Ctrl+L   clear the transcript
//	Ctrl+T   toggle dark/light theme
//	Esc      dismiss an alert or cancel a prompt
//	Ctrl+C   quit
package chat
