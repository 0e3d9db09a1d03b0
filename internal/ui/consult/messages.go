// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consult

import (
	"github.com/jeranaias/medconsult-tui/internal/backend"
	domain "github.com/jeranaias/medconsult-tui/internal/consult"
	"github.com/jeranaias/medconsult-tui/internal/report"
)

// Fixed texts.
const (
	MsgContactError   = "Error contacting server."
	MsgServerError    = "Server error"
	MsgDownloadFailed = "Unable to download report."
)

// ConsultMsg carries the result of a /consult call.
type ConsultMsg struct {
	ID       int
	Request  domain.Request
	Response *domain.Response
	Err      error
}

// DownloadMsg carries the result of a report download and save.
type DownloadMsg struct {
	ID    int
	Saved *report.Saved
	Info  *report.Info
	// InspectErr is logged only; the report is already on disk
	InspectErr error
	Err        error
}

// errorText maps a consult failure to the text shown in place of results.
func errorText(err error) string {
	if msg := backend.ServerMessage(err); msg != "" {
		return msg
	}
	if backend.IsStatusError(err) {
		return MsgServerError
	}
	return MsgContactError
}
