// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error variables for common backend failures.
var (
	// ErrEmptySessionID indicates /start-session succeeded without an id.
	ErrEmptySessionID = errors.New("backend returned an empty session id")

	// ErrNoSession indicates a call that needs a session was made without one.
	ErrNoSession = errors.New("no session id")

	// ErrNoFiles indicates an upload was attempted with an empty batch.
	ErrNoFiles = errors.New("no files to upload")
)

// DefaultUploadFailure is shown when /upload fails without a detail message.
const DefaultUploadFailure = "Upload failed"

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Op     string // Endpoint operation, e.g. "upload"
	Status int    // HTTP status code
	Detail string // Backend-provided detail message, may be empty
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed (HTTP %d)", e.Op, e.Status)
}

// UserMessage returns the text to show the user for this error.
func (e *APIError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Op == "upload" {
		return DefaultUploadFailure
	}
	return e.Error()
}

// ProgressFunc receives upload progress as bytes written so far and the
// expected total. total may be zero when sizes are unknown.
type ProgressFunc func(sent, total int64)

// UploadResult is the decoded body of a successful /upload response.
type UploadResult struct {
	SessionID string `json:"session_id,omitempty"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// errorResponse is the backend's error envelope, e.g. {"detail": "..."}.
// Validation failures may carry a list instead of a string.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// detailText extracts a string detail, ignoring structured ones.
func (r errorResponse) detailText() string {
	var s string
	if err := json.Unmarshal(r.Detail, &s); err != nil {
		return ""
	}
	return s
}
