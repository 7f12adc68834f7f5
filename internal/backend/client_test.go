// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pdfchat-tui/internal/document"
)

var pdfBytes = []byte("%PDF-1.4\n%%EOF\n")

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/")
}

func TestNewClient_Defaults(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
	assert.Equal(t, "http://example.test:9000", NewClient(" http://example.test:9000/ ").BaseURL())
}

func TestStartSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/start-session", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"session_id":"abc-123"}`))
	})

	id, err := client.StartSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestStartSession_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := client.StartSession(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
		assert.Equal(t, "start session", apiErr.Op)
	})

	t.Run("empty id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})
		_, err := client.StartSession(context.Background())
		assert.ErrorIs(t, err, ErrEmptySessionID)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		_, err := NewClient(server.URL).StartSession(context.Background())
		assert.Error(t, err)
	})
}

func TestDeleteSession_EscapesID(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteSession(context.Background(), "id with/slash"))
	assert.Equal(t, "/session/id%20with%2Fslash", gotPath)

	assert.ErrorIs(t, client.DeleteSession(context.Background(), ""), ErrNoSession)
}

func TestUpload_MultipartShape(t *testing.T) {
	type part struct {
		field, filename, contentType, body string
	}
	var (
		mu    sync.Mutex
		parts []part
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		mr, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(p)
			mu.Lock()
			parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(data)})
			mu.Unlock()
		}
		w.Write([]byte(`{"session_id":"from-upload","message":"ok"}`))
	})

	files := []document.File{
		document.FromBytes("one.pdf", document.PDFMIMEType, pdfBytes),
		document.FromBytes(`two "quoted".pdf`, document.PDFMIMEType, pdfBytes),
	}

	var lastSent, lastTotal int64
	result, err := client.Upload(context.Background(), "sess-1", files, func(sent, total int64) {
		lastSent, lastTotal = sent, total
	})
	require.NoError(t, err)
	assert.Equal(t, "from-upload", result.SessionID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, parts, 3)
	assert.Equal(t, part{field: "session_id", body: "sess-1"}, parts[0])
	assert.Equal(t, "files", parts[1].field)
	assert.Equal(t, "one.pdf", parts[1].filename)
	assert.Equal(t, document.PDFMIMEType, parts[1].contentType)
	assert.Equal(t, string(pdfBytes), parts[1].body)
	assert.Equal(t, `two "quoted".pdf`, parts[2].filename)

	assert.Equal(t, int64(2*len(pdfBytes)), lastTotal)
	assert.Greater(t, lastSent, lastTotal)
}

func TestUpload_EmptyResponseBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})

	result, err := client.Upload(context.Background(), "s", []document.File{
		document.FromBytes("a.pdf", document.PDFMIMEType, pdfBytes),
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.SessionID)
}

func TestUpload_ErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantUser   string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"Only PDF files are supported"}`, "Only PDF files are supported", "Only PDF files are supported"},
		{"list detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","files"],"msg":"field required"}]}`, "", DefaultUploadFailure},
		{"non-json body", http.StatusInternalServerError, `Internal Server Error`, "", DefaultUploadFailure},
		{"empty body", http.StatusBadGateway, ``, "", DefaultUploadFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Upload(context.Background(), "s", []document.File{
				document.FromBytes("a.pdf", document.PDFMIMEType, pdfBytes),
			}, nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantUser, apiErr.UserMessage())
		})
	}
}

func TestUpload_Preconditions(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Upload(context.Background(), "", []document.File{{Name: "a.pdf"}}, nil)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = client.Upload(context.Background(), "s", nil, nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestUpload_UnreadableFileAbortsRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{}`))
	})

	missing := document.File{Name: "gone.pdf", Path: "/definitely/not/here.pdf", MIMEType: document.PDFMIMEType}
	_, err := client.Upload(context.Background(), "s", []document.File{missing}, nil)
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, chatRequest{Message: "Hello", SessionID: "s-9"}, req)
		w.Write([]byte(`{"answer":"Hi! Ask me about your PDFs."}`))
	})

	answer, err := client.Chat(context.Background(), "s-9", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi! Ask me about your PDFs.", answer)
}

func TestChat_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"model offline"}`))
	})

	_, err := client.Chat(context.Background(), "s", "q")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "model offline", apiErr.Detail)
	assert.True(t, strings.Contains(apiErr.Error(), "HTTP 500"))
}

func TestChat_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Chat(ctx, "s", "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadResponse_SizeLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"`))
		w.Write([]byte(strings.Repeat("a", MaxResponseSize)))
		w.Write([]byte(`"}`))
	})

	_, err := client.Chat(context.Background(), "s", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}
