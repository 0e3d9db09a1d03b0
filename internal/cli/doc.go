// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive commands
// of medconsult.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global flags plus the command's remaining arguments
//   - ArgParser: Shared flag/positional parser used by every command
//   - Env: The loaded config, backend client and output streams a command runs with
//   - ExitError: An error carrying the process exit code
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if cmd == cli.CmdTUI {
//	    runTUI(args)
//	    return
//	}
//	os.Exit(cli.Run(cmd, args))
//
// # Commands
//
//   - tui: Interactive terminal UI (default)
//   - ask: One question to /get_answer
//   - chat: Line-editing REPL over /get_answer and /ingest
//   - ingest: Rebuild the backend document index
//   - consult: Submit a consultation and print the result
//   - report: Download the latest report
//   - config: Show, get, set and list configuration keys
//   - mock-server: Run the built-in mock backend
//   - version: Version information
//
// Commands that support it print a JSON envelope with --json.
package cli
