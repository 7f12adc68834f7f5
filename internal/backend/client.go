// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/pdfchat-tui/internal/document"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is used when no backend address is configured.
	DefaultBaseURL = "http://localhost:8001"

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent identifies this client to the backend.
	UserAgent = "pdfchat/0.1"
)

// Client is a client for the PDF chat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client for baseURL.
// The client has no request timeout; callers bound calls with a context.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: zap.NewNop(),
	}
}

// WithTimeout sets a per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger used for request/response logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("backend")
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// StartSession creates a new backend session and returns its id.
func (c *Client) StartSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start-session", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	body, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	if !isSuccess(status) {
		return "", newAPIError("start session", status, body)
	}

	var resp startSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse start session response: %w", err)
	}
	if resp.SessionID == "" {
		return "", ErrEmptySessionID
	}
	return resp.SessionID, nil
}

// DeleteSession releases a backend session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	endpoint := c.baseURL + "/session/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	body, status, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !isSuccess(status) {
		return newAPIError("delete session", status, body)
	}
	return nil
}

// Upload sends files to the backend as one multipart request tagged with
// sessionID. The body is streamed; progress, when non-nil, is called as
// bytes are written.
func (c *Client) Upload(ctx context.Context, sessionID string, files []document.File, progress ProgressFunc) (UploadResult, error) {
	if sessionID == "" {
		return UploadResult{}, ErrNoSession
	}
	if len(files) == 0 {
		return UploadResult{}, ErrNoFiles
	}

	pr, pw := io.Pipe()
	defer pr.Close()

	counter := &countingWriter{w: pw, total: document.TotalSize(files), progress: progress}
	mw := multipart.NewWriter(counter)

	go func() {
		pw.CloseWithError(writeUploadBody(mw, sessionID, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("uploading files",
		zap.Int("count", len(files)),
		zap.String("total_size", document.HumanSize(counter.total)))

	body, status, err := c.do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	if !isSuccess(status) {
		return UploadResult{}, newAPIError("upload", status, body)
	}

	var result UploadResult
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return UploadResult{}, fmt.Errorf("failed to parse upload response: %w", err)
		}
	}
	return result, nil
}

// Chat sends one user message and returns the assistant's answer.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" {
		return "", ErrNoSession
	}

	payload, err := json.Marshal(chatRequest{Message: message, SessionID: sessionID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	if !isSuccess(status) {
		return "", newAPIError("chat", status, body)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	return resp.Answer, nil
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

// do executes req and returns the size-limited body and status code.
// Request and response bodies are never logged.
func (c *Client) do(req *http.Request) ([]byte, int, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	log := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path))
	log.Debug("API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("API request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	log.Info("API response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, Status: status}
	var env errorResponse
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Detail = env.detailText()
	}
	return apiErr
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// writeUploadBody writes the multipart form: the session id field followed
// by one "files" part per document.
func writeUploadBody(mw *multipart.Writer, sessionID string, files []document.File) error {
	if err := mw.WriteField("session_id", sessionID); err != nil {
		return err
	}
	for _, f := range files {
		if err := writeFilePart(mw, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, f document.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", f.MIMEType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	return nil
}

// countingWriter reports bytes written through it to a ProgressFunc.
type countingWriter struct {
	w        io.Writer
	sent     atomic.Int64
	total    int64
	progress ProgressFunc
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 && cw.progress != nil {
		cw.progress(cw.sent.Add(int64(n)), cw.total)
	}
	return n, err
}
