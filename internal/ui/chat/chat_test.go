// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pdfchat-tui/internal/backend"
	"github.com/jeranaias/pdfchat-tui/internal/document"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type stubBackend struct {
	mu       sync.Mutex
	startErr error
	chatGate chan struct{}
	answer   string
}

func (b *stubBackend) StartSession(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return "", b.startErr
	}
	return "sess-tui", nil
}

func (b *stubBackend) DeleteSession(context.Context, string) error { return nil }

func (b *stubBackend) Upload(context.Context, string, []document.File, backend.ProgressFunc) (backend.UploadResult, error) {
	return backend.UploadResult{}, nil
}

func (b *stubBackend) Chat(ctx context.Context, _, msg string) (string, error) {
	b.mu.Lock()
	gate, answer := b.chatGate, b.answer
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if answer == "" {
		answer = "You asked: " + msg
	}
	return answer, nil
}

type senderFunc func(tea.Msg)

func (f senderFunc) Send(msg tea.Msg) { f(msg) }

var morning = func() time.Time { return time.Date(2025, 1, 2, 9, 30, 0, 0, time.Local) }

func newTestModel(t *testing.T, b *stubBackend, opts Options) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.New(b, session.Options{})
	t.Cleanup(func() { ctrl.Close(context.Background()) })

	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.PreferenceDark)
	}
	if opts.Now == nil {
		opts.Now = morning
	}
	m := New(ctrl, opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0644))
	return path
}

// =============================================================================
// RENDERING
// =============================================================================

func TestView_HeaderAndEmptyState(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})

	view := m.View()
	assert.Contains(t, view, Title)
	assert.Contains(t, view, "Good Morning")
	assert.Contains(t, view, "Disconnected")
	assert.Contains(t, view, "Upload PDFs with ctrl+o")
	assert.NotContains(t, view, ProcessingText)
}

func TestView_BeforeWindowSize(t *testing.T) {
	ctrl := session.New(&stubBackend{}, session.Options{})
	defer ctrl.Close(context.Background())
	assert.Equal(t, "Loading...", New(ctrl, Options{Theme: styles.NewTheme(styles.PreferenceDark)}).View())
}

func TestSessionStart_UpdatesStatus(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})
	m = run(t, m, m.startSessionCmd())
	assert.Contains(t, m.View(), "Connected")

	failing, _ := newTestModel(t, &stubBackend{startErr: errors.New("down")}, Options{})
	failing = run(t, failing, failing.startSessionCmd())
	assert.Contains(t, failing.View(), "Connection error")
	assert.Empty(t, failing.Alerts(), "initial failure is not an alert")
}

// =============================================================================
// CHAT
// =============================================================================

func TestSend_RoundTrip(t *testing.T) {
	m, ctrl := newTestModel(t, &stubBackend{}, Options{})

	m = typeText(t, m, "What is in chapter 2?")
	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	assert.Empty(t, m.input.Value(), "input is cleared on send")

	m = run(t, m, cmd)
	view := m.View()
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "What is in chapter 2?")
	assert.Contains(t, view, "You asked: What is in chapter 2?")
	assert.Len(t, ctrl.Snapshot().Transcript, 2)
}

func TestSend_BlankInputIgnored(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})
	m = typeText(t, m, "   ")
	_, cmd := update(t, m, keyMsg(tea.KeyEnter))
	assert.Nil(t, cmd)
}

func TestBusy_DisablesSendAndUpload(t *testing.T) {
	gate := make(chan struct{})
	b := &stubBackend{chatGate: gate}
	m, ctrl := newTestModel(t, b, Options{})

	m = typeText(t, m, "first")
	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	require.Eventually(t, ctrl.Busy, time.Second, 5*time.Millisecond)
	m, tick := update(t, m, StateChangedMsg{})
	assert.NotNil(t, tick, "spinner starts when busy")
	assert.Contains(t, m.View(), ProcessingText)

	m = typeText(t, m, "second")
	m, cmd = update(t, m, keyMsg(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, "second", m.input.Value())

	m, cmd = update(t, m, keyMsg(tea.KeyCtrlO))
	assert.Nil(t, cmd)
	assert.Equal(t, modeChat, m.mode)

	close(gate)
	m, _ = update(t, m, <-done)
	assert.NotContains(t, m.View(), ProcessingText)
}

func TestBusy_GatesBeforeControllerIsBusy(t *testing.T) {
	m, ctrl := newTestModel(t, &stubBackend{}, Options{})

	// The send command has not run yet, so the controller is idle.
	m = typeText(t, m, "first")
	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	require.False(t, ctrl.Busy())
	assert.Contains(t, m.View(), ProcessingText)

	m, prompt := update(t, m, keyMsg(tea.KeyCtrlO))
	assert.Nil(t, prompt)
	assert.Equal(t, modeChat, m.mode)

	m = typeText(t, m, "second")
	m, second := update(t, m, keyMsg(tea.KeyEnter))
	assert.Nil(t, second)

	m = run(t, m, cmd)
	assert.NotContains(t, m.View(), ProcessingText)
	assert.Len(t, ctrl.Snapshot().Transcript, 2)

	m, _ = update(t, m, keyMsg(tea.KeyCtrlO))
	assert.Equal(t, modePaths, m.mode)
}

func TestClearTranscript(t *testing.T) {
	m, ctrl := newTestModel(t, &stubBackend{}, Options{})
	require.NoError(t, ctrl.Send(context.Background(), "hello"))
	m, _ = update(t, m, StateChangedMsg{})
	require.Contains(t, m.View(), "hello")

	m, _ = update(t, m, keyMsg(tea.KeyCtrlL))
	assert.Empty(t, ctrl.Snapshot().Transcript)
	assert.Contains(t, m.View(), "Upload PDFs with ctrl+o")
}

// =============================================================================
// FILES
// =============================================================================

func TestUpload_ThroughPathPrompt(t *testing.T) {
	m, ctrl := newTestModel(t, &stubBackend{}, Options{})
	path := writePDF(t, "annual report.pdf")

	m, _ = update(t, m, keyMsg(tea.KeyCtrlO))
	require.Equal(t, modePaths, m.mode)
	m.prompt.SetValue(`"` + path + `"`)

	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	assert.Equal(t, modeChat, m.mode)
	m = run(t, m, cmd)

	snap := ctrl.Snapshot()
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "annual report.pdf", snap.Files[0].Name)

	view := m.View()
	assert.Contains(t, view, "Files (1)")
	assert.Contains(t, view, "annual report.pdf")
	assert.Contains(t, view, "0.00 MB")
}

func TestUpload_UnreadablePathBecomesAlert(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})

	m, _ = update(t, m, keyMsg(tea.KeyCtrlO))
	m.prompt.SetValue("/no/such/file.pdf")
	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	m = run(t, m, cmd)

	require.Len(t, m.Alerts(), 1)
	assert.Contains(t, m.Alerts()[0], "Cannot open /no/such/file.pdf")
	assert.Contains(t, m.View(), "esc to dismiss")

	m, _ = update(t, m, keyMsg(tea.KeyEsc))
	assert.Empty(t, m.Alerts())
}

func TestPrompt_EscCancels(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})
	m, _ = update(t, m, keyMsg(tea.KeyCtrlO))
	m = typeText(t, m, "x.pdf")
	m, _ = update(t, m, keyMsg(tea.KeyEsc))
	assert.Equal(t, modeChat, m.mode)
	assert.Empty(t, m.prompt.Value())
}

func TestRemoveFile_ByNumber(t *testing.T) {
	m, ctrl := newTestModel(t, &stubBackend{}, Options{})
	a, b := writePDF(t, "a.pdf"), writePDF(t, "b.pdf")
	files, unreadable := OpenPaths([]string{a, b})
	require.Empty(t, unreadable)
	require.NoError(t, ctrl.Upload(context.Background(), files))
	m, _ = update(t, m, StateChangedMsg{})

	m, _ = update(t, m, keyMsg(tea.KeyCtrlX))
	require.Equal(t, modeRemove, m.mode)
	m = typeText(t, m, "9")
	m, _ = update(t, m, keyMsg(tea.KeyEnter))
	assert.Equal(t, []string{"No staged file #9"}, m.Alerts())
	assert.Len(t, ctrl.Snapshot().Files, 2)

	m, _ = update(t, m, keyMsg(tea.KeyCtrlX))
	m = typeText(t, m, "1")
	m, _ = update(t, m, keyMsg(tea.KeyEnter))

	snap := ctrl.Snapshot()
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "b.pdf", snap.Files[0].Name)
	assert.Contains(t, m.View(), "Files (1)")
}

func TestRemoveFile_NoFilesNoPrompt(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})
	m, cmd := update(t, m, keyMsg(tea.KeyCtrlX))
	assert.Nil(t, cmd)
	assert.Equal(t, modeChat, m.mode)
}

// =============================================================================
// ALERTS, THEME, QUIT
// =============================================================================

func TestAlerts_QueueAndDismiss(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})
	m, _ = update(t, m, AlertMsg{Kind: session.KindValidation, Text: "x.txt is not a PDF file. Only PDF files are allowed."})
	m, _ = update(t, m, AlertMsg{Kind: session.KindUpload, Text: "Corrupted PDF"})

	view := m.View()
	assert.Contains(t, view, "x.txt is not a PDF file")
	assert.Contains(t, view, "1 more")

	m, _ = update(t, m, keyMsg(tea.KeyEsc))
	assert.Equal(t, []string{"Corrupted PDF"}, m.Alerts())
	m, _ = update(t, m, keyMsg(tea.KeyEsc))
	assert.Empty(t, m.Alerts())
}

func TestThemeToggle_Persists(t *testing.T) {
	var saved []string
	m, _ := newTestModel(t, &stubBackend{}, Options{
		SaveTheme: func(p string) error {
			saved = append(saved, p)
			return nil
		},
	})
	require.True(t, m.Theme().IsDark)

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlT))
	assert.False(t, m.Theme().IsDark)
	m = run(t, m, cmd)
	assert.Equal(t, []string{styles.PreferenceLight}, saved)
	assert.Empty(t, m.Alerts())
}

func TestThemeToggle_SaveFailureAlerts(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{
		SaveTheme: func(string) error { return errors.New("read-only") },
	})
	m, cmd := update(t, m, keyMsg(tea.KeyCtrlT))
	m = run(t, m, cmd)
	require.Len(t, m.Alerts(), 1)
	assert.Contains(t, m.Alerts()[0], "read-only")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{}, Options{})
	m, cmd := update(t, m, keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Quitting())
	assert.Empty(t, m.View())
}

func TestMarkdownAnswers(t *testing.T) {
	b := &stubBackend{answer: "## Summary\n\nThe report covers **three** topics."}
	m, ctrl := newTestModel(t, b, Options{RenderMarkdown: true})
	require.NoError(t, ctrl.Send(context.Background(), "summarize"))
	m, _ = update(t, m, StateChangedMsg{})

	view := m.View()
	assert.Contains(t, view, "Summary")
	assert.Contains(t, view, "three")
	assert.NotContains(t, view, "**three**", "emphasis markers are rendered away")
}

// =============================================================================
// BRIDGE
// =============================================================================

func TestBridge_DeliversAlertsAndChanges(t *testing.T) {
	var (
		mu   sync.Mutex
		msgs []tea.Msg
	)
	sender := senderFunc(func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, msg)
	})
	count := func(match func(tea.Msg) bool) int {
		mu.Lock()
		defer mu.Unlock()
		n := 0
		for _, m := range msgs {
			if match(m) {
				n++
			}
		}
		return n
	}

	b := NewBridge()
	b.Notify() // dropped: nothing attached yet
	b.Report(session.KindSession, session.SessionFailedText)

	b.Attach(sender)
	require.Eventually(t, func() bool {
		return count(func(m tea.Msg) bool { return m == AlertMsg{Kind: session.KindSession, Text: session.SessionFailedText} }) == 1
	}, time.Second, 5*time.Millisecond)

	b.Notify()
	require.Eventually(t, func() bool {
		return count(func(m tea.Msg) bool {
			_, ok := m.(StateChangedMsg)
			return ok
		}) >= 1
	}, time.Second, 5*time.Millisecond)
}

// =============================================================================
// PATH PARSING
// =============================================================================

func TestParsePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want []string
	}{
		{"a.pdf", []string{"a.pdf"}},
		{"a.pdf, b.pdf", []string{"a.pdf", "b.pdf"}},
		{"a.pdf b.pdf\tc.pdf", []string{"a.pdf", "b.pdf", "c.pdf"}},
		{`"my file.pdf",'other one.pdf'`, []string{"my file.pdf", "other one.pdf"}},
		{"  ,, ", nil},
		{"~/docs/x.pdf", []string{filepath.Join(home, "docs/x.pdf")}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePaths(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
