// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jeranaias/pdfchat-tui/internal/backend"
	"github.com/jeranaias/pdfchat-tui/internal/document"
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// ErrClosed is returned by operations started after Close.
var ErrClosed = errors.New("session controller closed")

// DefaultProgressResetDelay is how long a completed upload shows 100%.
const DefaultProgressResetDelay = 2 * time.Second

// Status reflects session-establishment state only, not per-request health.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Backend is the subset of the backend API the controller drives.
// *backend.Client implements it.
type Backend interface {
	StartSession(ctx context.Context) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Upload(ctx context.Context, sessionID string, files []document.File, progress backend.ProgressFunc) (backend.UploadResult, error)
	Chat(ctx context.Context, sessionID, message string) (string, error)
}

// StagedFile is an accepted file, either pending or confirmed uploaded.
type StagedFile struct {
	ID       string // Local id used to roll back one batch
	Name     string
	Size     int64
	MIMEType string
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	SessionID  string
	Status     Status
	Files      []StagedFile
	Transcript []model.Turn
	Busy       bool
	Progress   int // 0-100
}

// Options configures a Controller.
type Options struct {
	// Reporter receives validation, session and upload failures.
	Reporter Reporter

	// Logger receives diagnostic output. Defaults to a no-op logger.
	Logger *zap.Logger

	// OnChange is called after every state change, outside the lock.
	OnChange func()

	// ProgressResetDelay defaults to DefaultProgressResetDelay.
	ProgressResetDelay time.Duration

	// Now stamps transcript turns. Defaults to time.Now.
	Now func() time.Time
}

// Controller owns one backend session and the local state around it.
// All methods are safe for concurrent use.
type Controller struct {
	backend    Backend
	reporter   Reporter
	logger     *zap.Logger
	onChange   func()
	resetDelay time.Duration

	// sessionFlight collapses concurrent session creation into one request.
	sessionFlight singleflight.Group

	mu            sync.Mutex
	sessionID     string
	status        Status
	files         []StagedFile
	transcript    *model.Transcript
	inflight      int
	progress      int
	progressTimer *time.Timer
	closed        bool
}

// New creates a Controller. It makes no network calls until Start,
// EstablishSession, Upload or Send.
func New(b Backend, opts Options) *Controller {
	c := &Controller{
		backend:    b,
		reporter:   opts.Reporter,
		logger:     opts.Logger,
		onChange:   opts.OnChange,
		resetDelay: opts.ProgressResetDelay,
		status:     StatusDisconnected,
		transcript: model.NewTranscript(opts.Now),
	}
	if c.reporter == nil {
		c.reporter = nopReporter{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.resetDelay <= 0 {
		c.resetDelay = DefaultProgressResetDelay
	}
	c.logger = c.logger.Named("session")
	return c
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]StagedFile, len(c.files))
	copy(files, c.files)
	return Snapshot{
		SessionID:  c.sessionID,
		Status:     c.status,
		Files:      files,
		Transcript: c.transcript.Turns(),
		Busy:       c.inflight > 0,
		Progress:   c.progress,
	}
}

// SessionID returns the current session id, or "" if none.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Status returns the connection status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Busy reports whether an upload or chat request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// update applies fn under the lock and notifies observers. It returns
// false without calling fn once the controller is closed, so results that
// arrive after teardown are dropped.
func (c *Controller) update(fn func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn()
	onChange := c.onChange
	c.mu.Unlock()

	// Execute callback outside lock
	if onChange != nil {
		onChange()
	}
	return true
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// Start establishes the initial session. Failure is logged and returned,
// and leaves the status at StatusError; later operations retry lazily.
func (c *Controller) Start(ctx context.Context) error {
	if _, err := c.EstablishSession(ctx); err != nil {
		c.logger.Warn("Error starting session", zap.Error(err))
		return err
	}
	return nil
}

// EstablishSession returns the held session id, or creates a backend
// session and stores its id. At most one session is live per Controller.
//
// Concurrent callers share one in-flight request and all receive its
// result. The request itself is not cancelled when ctx is; ctx only bounds
// how long this caller waits.
func (c *Controller) EstablishSession(ctx context.Context) (string, error) {
	if c.Closed() {
		return "", ErrClosed
	}
	if id := c.SessionID(); id != "" {
		return id, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.sessionFlight.DoChan("start-session", func() (interface{}, error) {
		// A caller may have raced a flight that already finished.
		if id := c.SessionID(); id != "" {
			return id, nil
		}
		c.update(func() { c.status = StatusConnecting })

		id, err := c.backend.StartSession(flightCtx)
		if err != nil {
			c.update(func() { c.status = StatusError })
			return "", err
		}

		if !c.update(func() {
			c.sessionID = id
			c.status = StatusConnected
		}) {
			// Closed while the request was in flight: nobody will release it.
			if err := c.backend.DeleteSession(flightCtx, id); err != nil {
				c.logger.Warn("Error cleaning up session", zap.String("session_id", id), zap.Error(err))
			}
			return "", ErrClosed
		}
		c.logger.Info("session established", zap.String("session_id", id))
		return id, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("establish session: %w", res.Err)
		}
		return res.Val.(string), nil
	}
}


// Close releases the backend session, if any, with a best-effort
// DELETE. Failures are logged and never returned. Close is idempotent and
// never panics; results of operations still in flight are ignored.
func (c *Controller) Close(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during session teardown", zap.Any("panic", r))
		}
	}()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	id := c.sessionID
	if c.progressTimer != nil {
		c.progressTimer.Stop()
		c.progressTimer = nil
	}
	c.mu.Unlock()

	if id == "" {
		return
	}
	if err := c.backend.DeleteSession(ctx, id); err != nil {
		c.logger.Warn("Error cleaning up session", zap.String("session_id", id), zap.Error(err))
		return
	}
	c.logger.Info("session released", zap.String("session_id", id))
}

// =============================================================================
// LOCAL STATE OPERATIONS
// =============================================================================

// RemoveFile removes the staged file at index. It returns false when the
// index is out of range. No network call is made.
func (c *Controller) RemoveFile(index int) bool {
	removed := false
	c.update(func() {
		if index < 0 || index >= len(c.files) {
			return
		}
		c.files = append(c.files[:index:index], c.files[index+1:]...)
		removed = true
	})
	return removed
}

// ClearTranscript empties the transcript. No network call is made.
func (c *Controller) ClearTranscript() {
	c.update(func() { c.transcript.Clear() })
}

// endRequestLocked must be called with c.mu held.
func (c *Controller) endRequestLocked() {
	if c.inflight > 0 {
		c.inflight--
	}
}
