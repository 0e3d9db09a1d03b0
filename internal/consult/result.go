// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consult

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// UnknownCondition is shown when the reply names no disease.
	UnknownCondition = "Unknown"
	// RedFlagYes and RedFlagNo are the red-flag indicator values.
	RedFlagYes = "Yes"
	RedFlagNo  = "No"
)

var listSeparator = regexp.MustCompile(`[,;]+`)

// SplitList splits s on runs of ',' or ';', trims each item and drops empty
// ones, preserving order. The result is never nil.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range listSeparator.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RedFlag returns "Yes" when warning has any non-whitespace content.
func RedFlag(warning string) string {
	if strings.TrimSpace(warning) != "" {
		return RedFlagYes
	}
	return RedFlagNo
}

// SeverityLabel title-cases a severity value for display ("high" -> "High").
func SeverityLabel(severity string) string {
	return cases.Title(language.English).String(severity)
}

// Result is the rendered form of a consult reply.
type Result struct {
	// Patient summary, echoed from the request
	Name     string
	Age      string
	Severity string

	Condition string
	Medicines []string
	Dose      string
	Tests     []string
	HomeCare  []string
	RedFlag   string
	Warnings  []string

	// ReportRef is set when a report can be downloaded
	ReportRef string
	// HasReport gates the download action
	HasReport bool
}

// BuildResult derives the result view from the submitted request and the
// backend response.
func BuildResult(req Request, resp Response) Result {
	condition := strings.TrimSpace(resp.Reply.Disease)
	if condition == "" {
		condition = UnknownCondition
	}

	return Result{
		Name:      req.Name,
		Age:       req.Age,
		Severity:  req.Severity,
		Condition: condition,
		Medicines: SplitList(resp.Reply.Medicine),
		Dose:      strings.TrimSpace(resp.Reply.Dose),
		Tests:     SplitList(resp.Reply.Tests),
		HomeCare:  SplitList(resp.Reply.HomeRemedy),
		RedFlag:   RedFlag(resp.Reply.Warning),
		Warnings:  SplitList(resp.Reply.Warning),
		ReportRef: resp.ReportRef(),
		HasReport: resp.HasReport(),
	}
}

// Section is one titled card of the result view.
type Section struct {
	Title string
	Lines []string
	// Items render as a bulleted list below Lines
	Items []string
}

// Sections returns the result cards in display order.
func (r Result) Sections() []Section {
	summary := Section{
		Title: "Patient Summary",
		Lines: []string{
			"Name: " + r.Name,
			"Age: " + r.Age,
			"Severity: " + r.Severity,
		},
	}

	meds := Section{Title: "Medicines", Items: r.Medicines}
	if r.Dose != "" {
		meds.Lines = []string{"Dose: " + r.Dose}
	}

	return []Section{
		summary,
		{Title: "Probable Condition", Lines: []string{r.Condition}},
		meds,
		{Title: "Recommended Tests", Items: r.Tests},
		{Title: "Home Care", Items: r.HomeCare},
		{Title: "Red Flags", Lines: []string{r.RedFlag}, Items: r.Warnings},
	}
}

// Text renders the result as plain text for terminals without styling.
func (r Result) Text() string {
	var b strings.Builder
	for i, s := range r.Sections() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.Title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(s.Title)))
		b.WriteString("\n")
		for _, l := range s.Lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
		for _, it := range s.Items {
			b.WriteString("  - ")
			b.WriteString(it)
			b.WriteString("\n")
		}
	}
	return b.String()
}
