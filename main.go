// medconsult - A terminal client for the health-consultation backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medconsult-tui/internal/cli"
	"github.com/jeranaias/medconsult-tui/internal/config"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	if cmd == cli.CmdTUI {
		os.Exit(runTUI(args))
	}
	os.Exit(cli.Run(cmd, args))
}

// runTUI starts the TUI interface and returns the exit code.
func runTUI(args cli.Args) int {
	// The alternate screen owns the terminal; logs go to a file or nowhere
	if args.Verbose {
		closeLog, err := setupDebugLog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open debug log: %v\n", err)
			log.SetOutput(io.Discard)
		} else {
			defer closeLog()
		}
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, "tui", err, false)
		return cli.GetExitCode(err)
	}

	client, err := cli.NewClient(cfg)
	if err != nil {
		cli.DisplayError(os.Stderr, "tui", err, false)
		return cli.ExitConfigError
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	m := NewApp(client, cfg, theme)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running medconsult: %v\n", err)
		return cli.ExitGeneralError
	}
	return cli.ExitSuccess
}

// setupDebugLog points the standard logger at ~/.medconsult/debug.log.
func setupDebugLog() (func(), error) {
	if err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "medconsult")
	if err != nil {
		return nil, err
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { f.Close() }, nil
}
