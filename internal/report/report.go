// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report saves downloaded consultation reports and inspects them.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/jeranaias/medconsult-tui/internal/util"
)

// DefaultFileName is the name a downloaded report is saved under.
const DefaultFileName = "health_report.pdf"

// maxUniqueAttempts bounds the " (N)" suffix search.
const maxUniqueAttempts = 10000

// Saved describes a report written to disk.
type Saved struct {
	Path string
	Size int64
}

// Save streams r into dir under name, picking "name (1).ext", "name (2).ext"
// ... when the name is taken, the way browsers do for downloads. The target
// name is reserved before streaming so concurrent saves never collide, and a
// failed stream leaves no file behind.
func Save(dir, name string, r io.Reader) (*Saved, error) {
	if name == "" {
		name = DefaultFileName
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid report file name %q", name)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	path, err := reserve(dir, name)
	if err != nil {
		return nil, err
	}

	n, err := util.AtomicWriteReader(path, r, 0644)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	return &Saved{Path: path, Size: n}, nil
}

// reserve creates an empty placeholder at the first free candidate name.
func reserve(dir, name string) (string, error) {
	for i := 0; i < maxUniqueAttempts; i++ {
		path := filepath.Join(dir, candidateName(name, i))

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create report file: %w", err)
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// candidateName is the i-th browser-style name: "a.pdf", "a (1).pdf", ...
func candidateName(name string, i int) string {
	if i == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), i, ext)
}

// =============================================================================
// INSPECTION
// =============================================================================

// Info summarizes a saved PDF.
type Info struct {
	Pages int
}

// Inspect opens a saved report and counts its pages.
func Inspect(path string) (info *Info, err error) {
	// The PDF parser panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("failed to parse PDF %s: %v", filepath.Base(path), r)
		}
	}()

	rd, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}

	return &Info{Pages: rd.NumPage()}, nil
}

// Summary formats the status-line text for a saved report.
func Summary(s *Saved, info *Info) string {
	base := filepath.Base(s.Path)
	if info == nil {
		return fmt.Sprintf("Report saved to %s", base)
	}
	pages := "pages"
	if info.Pages == 1 {
		pages = "page"
	}
	return fmt.Sprintf("Report saved to %s (%d %s)", base, info.Pages, pages)
}
