// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pdfchat-tui/internal/session"
)

// Sender is the part of *tea.Program the Bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge turns controller callbacks into program messages. It implements
// session.Reporter, and Notify fits session.Options.OnChange.
//
// Callbacks may fire inside Update (RemoveFile, ClearTranscript), where a
// synchronous program.Send would deadlock, so every send happens on its
// own goroutine. Alerts raised before Attach are held and flushed by it.
type Bridge struct {
	mu      sync.Mutex
	program Sender
	held    []AlertMsg

	notifyPending atomic.Bool
}

// NewBridge creates an unattached Bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a running program.
func (b *Bridge) Attach(p Sender) {
	b.mu.Lock()
	b.program = p
	held := b.held
	b.held = nil
	b.mu.Unlock()

	for _, msg := range held {
		go p.Send(msg)
	}
}

// Report implements session.Reporter.
func (b *Bridge) Report(kind session.Kind, message string) {
	msg := AlertMsg{Kind: kind, Text: message}

	b.mu.Lock()
	p := b.program
	if p == nil {
		b.held = append(b.held, msg)
	}
	b.mu.Unlock()

	if p != nil {
		go p.Send(msg)
	}
}

// Notify schedules a StateChangedMsg. Bursts of notifications that arrive
// before the previous one is delivered collapse into one.
func (b *Bridge) Notify() {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}
	if !b.notifyPending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		b.notifyPending.Store(false)
		p.Send(StateChangedMsg{})
	}()
}
