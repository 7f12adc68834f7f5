// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// # Key Types
//
//   - Role: Turn author (user or assistant)
//   - Turn: Single ordered transcript entry with role, content and timestamp
//   - Transcript: Append-only ordered sequence of turns that can be cleared
//
// # Usage
//
//	var tr model.Transcript
//	tr.Append(model.RoleUser, "What is section 3 about?")
//	tr.Append(model.RoleAssistant, "Section 3 covers ...")
//	fmt.Print(model.ExportMarkdown(tr.Turns()))
//
// Transcript is not safe for concurrent use; its owner serializes access.
package model
