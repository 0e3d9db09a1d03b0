// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consult

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Request is the body of POST /consult.
type Request struct {
	Name     string `json:"name"`
	Age      string `json:"age"`
	Gender   string `json:"gender"`
	Severity string `json:"severity"`
	Symptoms string `json:"symptoms"`
	Duration string `json:"duration"`
	Disease  string `json:"disease"`
}

// NewRequest builds a Request with every field trimmed.
func NewRequest(name, age, gender, severity, symptoms, duration, disease string) Request {
	r := Request{
		Name:     name,
		Age:      age,
		Gender:   gender,
		Severity: severity,
		Symptoms: symptoms,
		Duration: duration,
		Disease:  disease,
	}
	return r.Trimmed()
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r Request) Trimmed() Request {
	return Request{
		Name:     strings.TrimSpace(r.Name),
		Age:      strings.TrimSpace(r.Age),
		Gender:   strings.TrimSpace(r.Gender),
		Severity: strings.TrimSpace(r.Severity),
		Symptoms: strings.TrimSpace(r.Symptoms),
		Duration: strings.TrimSpace(r.Duration),
		Disease:  strings.TrimSpace(r.Disease),
	}
}

// Reply is the opaque advice block of a consult response. Every field is
// optional; absent fields decode as "".
type Reply struct {
	Disease    string `json:"disease"`
	Medicine   string `json:"medicine"`
	Tests      string `json:"tests"`
	HomeRemedy string `json:"home_remedy"`
	Warning    string `json:"warning"`
	Dose       string `json:"dose,omitempty"`
}

// UnmarshalJSON accepts strings, numbers, string arrays and null for each
// field. Arrays are joined with ", " so SplitList yields the same items.
func (r *Reply) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := map[string]*string{
		"disease":     &r.Disease,
		"medicine":    &r.Medicine,
		"tests":       &r.Tests,
		"home_remedy": &r.HomeRemedy,
		"warning":     &r.Warning,
		"dose":        &r.Dose,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			*dst = ""
			continue
		}
		s, err := looseString(v)
		if err != nil {
			return fmt.Errorf("reply.%s: %w", key, err)
		}
		*dst = s
	}
	return nil
}

func looseString(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", nil
	}
	switch v[0] {
	case '"':
		var s string
		err := json.Unmarshal(v, &s)
		return s, err
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			s, err := looseString(it)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	case '{':
		return "", fmt.Errorf("unexpected object")
	default:
		// numbers and booleans keep their literal text
		return string(v), nil
	}
}

// Response is the success body of POST /consult.
type Response struct {
	Reply Reply  `json:"reply"`
	PDF   string `json:"pdf"`
}

// HasReport reports whether the backend produced a report file. The
// reference backend puts an "Error..." message into pdf when rendering failed.
func (r Response) HasReport() bool {
	p := strings.TrimSpace(r.PDF)
	return p != "" && !strings.HasPrefix(p, "Error")
}

// ReportRef returns the base name of the server-side report, used to
// correlate a download with this consult. Empty when there is no report.
func (r Response) ReportRef() string {
	if !r.HasReport() {
		return ""
	}
	p := strings.ReplaceAll(strings.TrimSpace(r.PDF), `\`, "/")
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
