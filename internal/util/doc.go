// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and display helpers shared by the config,
// CLI and UI packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writes (config file, saved transcripts)
//   - TruncateWidth, TruncateMiddle: column-aware truncation for file names
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
//	label := util.TruncateMiddle(file.Name, 32)
package util
