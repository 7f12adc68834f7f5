// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for pdfchat commands.
//
// Commands always return errors; Execute displays them once and maps them
// to an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jeranaias/pdfchat-tui/internal/backend"
	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/document"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid arguments or rejected files
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitBackendError indicates the backend answered with an error status
	ExitBackendError = 6
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError represents invalid user input.
type UsageError struct {
	Field   string // Argument or flag that was wrong
	Reason  string // Why it was rejected
	Example string // Example of valid usage (optional)
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ReportedError marks failures the session reporter already printed.
// Execute shows only its summary.
type ReportedError struct {
	Count int
	Err   error // Underlying failure; nil when only files were rejected
}

func (e *ReportedError) Error() string {
	if e.Count == 1 {
		return "1 problem reported"
	}
	return fmt.Sprintf("%d problems reported", e.Count)
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}

// configError wraps failures loading or validating the configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err in the standard format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("[ERROR]"), err.Error())
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr    *UsageError
		reportedErr *ReportedError
		docErr      *document.ValidationError
		cfgErr      *configError
		cfgVerrs    config.ValidateErrors
		apiErr      *backend.APIError
		netErr      net.Error
	)

	if errors.As(err, &reportedErr) && reportedErr.Err == nil {
		return ExitUsageError
	}

	switch {
	case errors.As(err, &usageErr), errors.As(err, &docErr):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &cfgVerrs):
		return ExitConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &apiErr):
		return ExitBackendError
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError
	}
	return ExitGeneralError
}
