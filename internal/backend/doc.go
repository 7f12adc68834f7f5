// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the PDF chat backend.
//
// The backend owns PDF ingestion, retrieval and answer generation. This
// package only speaks its four endpoints:
//
//   - POST   /start-session   create a session, returns {session_id}
//   - DELETE /session/{id}    release a session
//   - POST   /upload          multipart session_id + files, returns {session_id?}
//   - POST   /chat            JSON {message, session_id}, returns {answer}
//
// # Key Types
//
//   - Client: HTTP client for the backend
//   - APIError: non-2xx response with the backend's detail message
//   - UploadResult: decoded /upload response
//
// # Usage
//
//	client := backend.NewClient("http://localhost:8001")
//	id, err := client.StartSession(ctx)
//	answer, err := client.Chat(ctx, id, "What is the main finding?")
//
// Requests are never retried. A failure is terminal for that one call and
// the caller decides how to surface it.
package backend
