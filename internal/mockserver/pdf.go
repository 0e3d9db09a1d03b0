// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/jeranaias/medconsult-tui/internal/consult"
)

// RenderReport renders a one-page consultation report.
func RenderReport(req consult.Request, reply consult.Reply, at time.Time) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.SetTitle("Consultation Report", true)
	// Core fonts are cp1252; translate UTF-8 input
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, "Consultation Report", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, "Date: "+at.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	res := consult.BuildResult(req, consult.Response{Reply: reply})
	for _, sec := range res.Sections() {
		doc.SetFont("Helvetica", "B", 12)
		doc.CellFormat(0, 8, tr(sec.Title), "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		for _, line := range sec.Lines {
			doc.MultiCell(0, 6, tr(line), "", "L", false)
		}
		if len(sec.Items) == 0 && len(sec.Lines) == 0 {
			doc.MultiCell(0, 6, "None", "", "L", false)
		}
		for _, item := range sec.Items {
			doc.MultiCell(0, 6, tr("- "+item), "", "L", false)
		}
		doc.Ln(2)
	}

	doc.SetFont("Helvetica", "I", 8)
	doc.MultiCell(0, 5, "Generated by a mock backend. Not medical advice.", "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
