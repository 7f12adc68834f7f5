// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the pdfchat command line.
//
// The root command starts the terminal UI. The line-mode commands (ask,
// chat, upload, watch) drive the same session controller and print plain
// lines, with markdown rendering when stdout is a terminal.
//
// # Commands
//
//   - (none): full-screen chat UI
//   - ask: upload PDFs, ask one question, print the answer
//   - chat: line REPL with /upload, /files, /remove, /clear, /save
//   - upload: upload PDFs and print the session id
//   - watch: upload PDFs as they appear in a directory
//   - config: show, get, set, theme, keys, path, reset
//   - version: build information
//
// # Exit Codes
//
// Execute maps errors to exit codes: 2 for usage errors and rejected files,
// 3 for configuration errors, 5 when the backend is unreachable, 6 when it
// answers with an error status and 8 on timeouts.
package cli
