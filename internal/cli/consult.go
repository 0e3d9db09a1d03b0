// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// consult.go - The "consult" and "report" commands.
//
// Examples:
//
//	medconsult consult --name Ann --age 30 --severity high --symptoms "fever and chills"
//	medconsult consult --symptoms cough --download --output ~/reports
//	medconsult report --output ~/reports
package cli

import (
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/medconsult-tui/internal/consult"
	"github.com/jeranaias/medconsult-tui/internal/report"
)

var consultFlags = []string{"name", "age", "gender", "severity", "symptoms", "duration", "disease", "download", "output"}

const consultUsage = `medconsult consult --name Ann --age 30 --severity high --symptoms "fever"`

// =============================================================================
// CONSULT
// =============================================================================

// HandleConsult submits a consultation, prints the result and optionally
// saves the report.
func HandleConsult(env *Env, args Args) error {
	p := NewArgParser(args.Raw, "download")
	if unknown := p.Unknown(consultFlags...); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: "--" + unknown[0], Reason: "unknown flag", Example: consultUsage}
	}

	severity, err := pickSeverity(env.Config.Consult.Severities, p.FlagOrDefault("severity", env.Config.Consult.DefaultSeverity))
	if err != nil {
		return err
	}

	req := consult.NewRequest(
		p.Flag("name"), p.Flag("age"), p.Flag("gender"), severity,
		p.Flag("symptoms"), p.Flag("duration"), p.Flag("disease"),
	)

	ctx, cancel := requestContext(env.Config.ConsultTimeout())
	resp, err := env.Client.Consult(ctx, req)
	cancel()
	if err != nil {
		log.Printf("CONSULT_ERROR | error=%v", err)
		return err
	}

	res := consult.BuildResult(req, *resp)
	data := ConsultData{Request: req, Response: *resp, Result: newResultData(res)}

	var summary string
	if p.BoolFlag("download") {
		if !res.HasReport {
			return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("no report available: %s", strings.TrimSpace(resp.PDF))}
		}
		data.Report, summary, err = downloadReport(env, res.ReportRef, p.Flag("output"))
		if err != nil {
			return err
		}
	}

	if env.JSON {
		return NewJSONResponse("consult", data).Print(env.Stdout)
	}

	fmt.Fprint(env.Stdout, renderResult(res, env.Pretty))
	if summary != "" {
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, SuccessStyle.Render(summary))
	} else if res.HasReport && !env.Quiet {
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, DimStyle.Render("Report available: medconsult report"))
	}
	return nil
}

// pickSeverity matches s case-insensitively against the configured set and
// returns the canonical value.
func pickSeverity(severities []string, s string) (string, error) {
	for _, v := range severities {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", &ValidationError{
		Field:   "severity",
		Value:   s,
		Reason:  "must be one of " + strings.Join(severities, ", "),
		Example: consultUsage,
	}
}

// renderResult formats the result cards, styled when pretty.
func renderResult(r consult.Result, pretty bool) string {
	if !pretty {
		return r.Text()
	}
	var b strings.Builder
	for i, s := range r.Sections() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(SectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, l := range s.Lines {
			if s.Title == "Red Flags" && l == consult.RedFlagYes {
				l = ErrorStyle.Render(l)
			}
			b.WriteString(l)
			b.WriteString("\n")
		}
		for _, it := range s.Items {
			item := "  - " + it
			if s.Title == "Red Flags" {
				item = WarningStyle.Render(item)
			}
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// =============================================================================
// REPORT
// =============================================================================

// HandleReport downloads the latest report for this client's session.
//
// Sessions live in the client's cookie jar, so a fresh process only finds a
// report when the backend ignores sessions or --report names one.
func HandleReport(env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	if unknown := p.Unknown("output", "report"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: "--" + unknown[0], Reason: "unknown flag", Example: "medconsult report --output DIR"}
	}

	data, summary, err := downloadReport(env, p.Flag("report"), p.Flag("output"))
	if err != nil {
		return err
	}
	if env.JSON {
		return NewJSONResponse("report", data).Print(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, SuccessStyle.Render(summary))
	if !env.Quiet {
		fmt.Fprintln(env.Stdout, DimStyle.Render(data.Path))
	}
	return nil
}

// downloadReport streams the report into the report directory (dir
// overrides config) and inspects it when configured to.
func downloadReport(env *Env, ref, dir string) (*ReportData, string, error) {
	rc := env.Config.Report
	if dir != "" {
		rc.Dir = dir
	}

	ctx, cancel := requestContext(env.Config.Timeout())
	defer cancel()

	rep, err := env.Client.DownloadReport(ctx, ref)
	if err != nil {
		return nil, "", fmt.Errorf("unable to download report: %w", err)
	}
	defer rep.Close()

	saved, err := report.Save(rc.Dir, rc.FileName, rep.Body)
	if err != nil {
		return nil, "", fmt.Errorf("unable to download report: %w", err)
	}
	log.Printf("REPORT_SAVED | path=%s bytes=%d", saved.Path, saved.Size)

	data := &ReportData{Path: saved.Path, Bytes: saved.Size}
	var info *report.Info
	if rc.Inspect {
		info, err = report.Inspect(saved.Path)
		if err != nil {
			log.Printf("REPORT_INSPECT_ERROR | path=%s error=%v", saved.Path, err)
		} else {
			data.Pages = info.Pages
		}
	}
	return data, report.Summary(saved, info), nil
}
