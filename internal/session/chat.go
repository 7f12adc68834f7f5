// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// answerPreviewLen bounds answer text in debug logs.
const answerPreviewLen = 80

// Send posts one user message and appends the answer to the transcript.
//
// Whitespace-only text is a no-op. If a session cannot be established the
// failure is reported and the transcript is left untouched. A failed chat
// request is never reported: it becomes an assistant turn with ApologyText.
// The returned error still describes the failure for callers that need an
// exit status.
func (c *Controller) Send(ctx context.Context, text string) error {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil
	}

	sessionID, err := c.EstablishSession(ctx)
	if err != nil {
		c.logger.Warn("Failed to create session", zap.Error(err))
		c.reporter.Report(KindSession, SessionFailedText)
		return err
	}

	if !c.update(func() {
		c.transcript.Append(model.RoleUser, message)
		c.inflight++
	}) {
		return ErrClosed
	}

	answer, err := c.backend.Chat(ctx, sessionID, message)
	if err != nil {
		c.logger.Warn("Error sending message", zap.Error(err))
		c.update(func() {
			c.transcript.Append(model.RoleAssistant, ApologyText)
			c.endRequestLocked()
		})
		return fmt.Errorf("chat: %w", err)
	}

	var last model.Turn
	if c.update(func() {
		c.transcript.Append(model.RoleAssistant, answer)
		c.endRequestLocked()
		last, _ = c.transcript.Last()
	}) {
		c.logger.Debug("chat answered",
			zap.String("session_id", sessionID),
			zap.String("answer", last.Preview(answerPreviewLen)))
	}
	return nil
}
