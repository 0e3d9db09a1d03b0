// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the health-consultation backend.
//
// The backend exposes four endpoints:
//
//	POST /get_answer       {question}            -> {answer, cached?}
//	POST /ingest           (no body)             -> JSON status
//	POST /consult          consult.Request       -> {reply, pdf} | {error}
//	GET  /download-report  [?report=NAME]        -> PDF bytes
//
// Every call takes a context; callers bound it with a timeout and may
// cancel it. The client never retries.
//
// # Errors
//
// Transport failures come back as *ClientError and match the sentinels
// ErrTimeout, ErrCanceled and ErrUnreachable with errors.Is. Non-2xx
// responses come back as *StatusError carrying the server's message.
package backend
