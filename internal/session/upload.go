// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/document"
)

// Upload validates files, stages the accepted ones and sends them to the
// backend in one request.
//
// Rejected files are reported individually and never sent. If no file is
// accepted Upload does nothing. If a session cannot be established the
// upload aborts before anything is staged. When the backend rejects the
// batch, its detail is reported and exactly this batch is unstaged; files
// from earlier batches stay.
func (c *Controller) Upload(ctx context.Context, files []document.File) error {
	valid, rejected := document.Partition(files)
	for _, verr := range rejected {
		c.logger.Info("file rejected", zap.String("file", verr.Name), zap.Error(verr.Err))
		c.reporter.Report(KindValidation, verr.Error())
	}
	if len(valid) == 0 {
		return nil
	}

	sessionID, err := c.EstablishSession(ctx)
	if err != nil {
		c.logger.Warn("Failed to create session", zap.Error(err))
		c.reporter.Report(KindSession, SessionFailedText)
		return err
	}

	batch := make([]StagedFile, len(valid))
	ids := make(map[string]struct{}, len(valid))
	for i, f := range valid {
		batch[i] = StagedFile{ID: uuid.NewString(), Name: f.Name, Size: f.Size, MIMEType: f.MIMEType}
		ids[batch[i].ID] = struct{}{}
	}

	if !c.update(func() {
		c.files = append(c.files, batch...)
		c.inflight++
		c.progress = 0
		if c.progressTimer != nil {
			c.progressTimer.Stop()
			c.progressTimer = nil
		}
	}) {
		return ErrClosed
	}

	result, err := c.backend.Upload(ctx, sessionID, valid, c.trackProgress)
	if err != nil {
		c.logger.Warn("Error uploading files", zap.Int("count", len(valid)), zap.Error(err))
		if c.update(func() {
			c.files = removeByID(c.files, ids)
			c.progress = 0
			c.endRequestLocked()
		}) {
			c.reporter.Report(KindUpload, uploadFailureMessage(err))
		}
		return fmt.Errorf("upload: %w", err)
	}

	c.logger.Info("Upload successful", zap.Int("count", len(valid)), zap.String("session_id", sessionID))
	c.update(func() {
		// A returned id is only adopted when none is held.
		if c.sessionID == "" && result.SessionID != "" {
			c.sessionID = result.SessionID
		}
		c.progress = 100
		c.endRequestLocked()
		c.scheduleProgressResetLocked()
	})
	return nil
}

// trackProgress maps streamed bytes onto 0-99; 100 is reserved for a
// confirmed upload.
func (c *Controller) trackProgress(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(sent * 100 / total)
	if pct > 99 {
		pct = 99
	}

	c.mu.Lock()
	changed := !c.closed && pct > c.progress
	if changed {
		c.progress = pct
	}
	onChange := c.onChange
	c.mu.Unlock()

	if changed && onChange != nil {
		onChange()
	}
}

// scheduleProgressResetLocked must be called with c.mu held.
func (c *Controller) scheduleProgressResetLocked() {
	var timer *time.Timer
	timer = time.AfterFunc(c.resetDelay, func() {
		c.update(func() {
			if c.progressTimer == timer {
				c.progress = 0
				c.progressTimer = nil
			}
		})
	})
	c.progressTimer = timer
}

func removeByID(files []StagedFile, ids map[string]struct{}) []StagedFile {
	kept := files[:0:0]
	for _, f := range files {
		if _, drop := ids[f.ID]; !drop {
			kept = append(kept, f)
		}
	}
	return kept
}
