// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document inspects local files and validates them for upload.
//
// Only PDF documents of at most 10 MiB are accepted. Validation happens
// before any network call, so rejected files never reach the backend.
//
// # Usage
//
//	f, err := document.FromPath("report.pdf")
//	if err != nil {
//	    return err
//	}
//	if err := document.Validate(f); err != nil {
//	    fmt.Println(err) // "report.pdf is too large. Maximum file size is 10MB."
//	}
package document
