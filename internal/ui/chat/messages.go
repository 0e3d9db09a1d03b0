// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/medconsult-tui/internal/backend"

// Fixed bot texts.
const (
	MsgContactError = "Error contacting server."
	MsgIndexBuilt   = "Index built from PDFs."
	MsgIndexFailed  = "Index build failed."
)

// AnswerMsg carries the result of a /get_answer call.
type AnswerMsg struct {
	ID     int
	Answer *backend.Answer
	Err    error
}

// IngestMsg carries the result of an /ingest call.
type IngestMsg struct {
	ID  int
	Err error
}
