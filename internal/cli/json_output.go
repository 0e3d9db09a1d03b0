// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output envelope for scripting.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/medconsult-tui/internal/consult"
)

// JSONResponse is the response envelope every command prints with --json.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// ErrorType classifies a failure (server_error, timeout, ...)
	ErrorType string `json:"error_type,omitempty"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// DATA TYPES
// =============================================================================

// VersionData is the data of "version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// AskData is the data of "ask --json".
type AskData struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Cached   bool   `json:"cached"`
	Status   int    `json:"status"`
}

// IngestData is the data of "ingest --json".
type IngestData struct {
	Message string `json:"message"`
}

// ReportData describes a saved report.
type ReportData struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
	Pages int    `json:"pages,omitempty"`
}

// ConsultData is the data of "consult --json".
type ConsultData struct {
	Request  consult.Request  `json:"request"`
	Response consult.Response `json:"response"`
	Result   ResultData       `json:"result"`
	Report   *ReportData      `json:"report,omitempty"`
}

// ResultData is the rendered result in machine-readable form.
type ResultData struct {
	Condition string   `json:"condition"`
	Medicines []string `json:"medicines"`
	Dose      string   `json:"dose,omitempty"`
	Tests     []string `json:"tests"`
	HomeCare  []string `json:"home_care"`
	RedFlag   string   `json:"red_flag"`
	Warnings  []string `json:"warnings"`
	HasReport bool     `json:"has_report"`
}

func newResultData(r consult.Result) ResultData {
	return ResultData{
		Condition: r.Condition,
		Medicines: r.Medicines,
		Dose:      r.Dose,
		Tests:     r.Tests,
		HomeCare:  r.HomeCare,
		RedFlag:   r.RedFlag,
		Warnings:  r.Warnings,
		HasReport: r.HasReport,
	}
}

// ConfigData is the data of "config show --json".
type ConfigData struct {
	Path   string      `json:"path"`
	Config interface{} `json:"config"`
}
