// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client side of the session/upload/chat lifecycle.
//
// A Controller holds the backend session id, connection status, the staged
// file list, the chat transcript, a busy indicator and upload progress. It
// guarantees that no upload or chat request is sent without a session id:
// when none exists one is created first, and the triggering action proceeds
// only if creation succeeds. Concurrent callers share a single in-flight
// creation request.
//
// # Error reporting
//
// Failures are surfaced two different ways on purpose:
//
//   - Validation, session and upload failures go to the Reporter, which
//     front ends render as alerts.
//   - Chat failures become an assistant turn in the transcript carrying
//     ApologyText and never reach the Reporter.
//
// Teardown failures are logged only.
//
// # Usage
//
//	ctrl := session.New(client, session.Options{Reporter: reporter})
//	_ = ctrl.Start(ctx)
//	defer ctrl.Close(context.Background())
//
//	files, _ := document.FromPath("paper.pdf")
//	_ = ctrl.Upload(ctx, []document.File{files})
//	_ = ctrl.Send(ctx, "What does the abstract claim?")
//	snap := ctrl.Snapshot()
package session
