// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/pdfchat-tui/internal/backend"
)

// Kind classifies a user-facing report.
type Kind string

const (
	KindValidation Kind = "validation" // File rejected before upload
	KindSession    Kind = "session"    // Session could not be established
	KindUpload     Kind = "upload"     // Backend rejected an upload
)

// Reporter shows a failure message to the user.
type Reporter interface {
	Report(kind Kind, message string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(kind Kind, message string)

// Report calls f(kind, message).
func (f ReporterFunc) Report(kind Kind, message string) {
	f(kind, message)
}

type nopReporter struct{}

func (nopReporter) Report(Kind, string) {}

// User-facing messages.
const (
	// SessionFailedText is reported when lazy session creation fails.
	SessionFailedText = "Failed to create session. Please try again."

	// ApologyText is appended as an assistant turn when a chat request fails.
	ApologyText = "Sorry, there was an error processing your request. Please try again."
)

// uploadFailureMessage returns the backend's detail for API errors and the
// error text for transport failures.
func uploadFailureMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
