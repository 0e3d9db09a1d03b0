// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for medconsult.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdIngest
	CmdConsult
	CmdReport
	CmdConfig
	CmdMockServer
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command word.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdIngest:
		return "ingest"
	case CmdConsult:
		return "consult"
	case CmdReport:
		return "report"
	case CmdConfig:
		return "config"
	case CmdMockServer:
		return "mock-server"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Server     string // --server URL
	ConfigPath string // --config PATH
	Timeout    int    // --timeout SECS (0 = config)
	JSON       bool
	Verbose    bool
	Quiet      bool

	// Command-specific
	Name       string // command word as typed
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args remaining after the command word
	Raw []string
}

const usageText = `medconsult - terminal client for the health-consultation backend

Usage:
  medconsult                      Start the TUI (default)
  medconsult ask "question"       Ask a single question
  medconsult chat                 Interactive chat REPL
  medconsult ingest               Rebuild the backend index from its PDFs
  medconsult consult [flags]      Submit a consultation
  medconsult report               Download the latest report
  medconsult config [show|get|set|path|keys]
  medconsult mock-server          Run the mock backend
  medconsult version              Show version information

Consult flags:
  --name NAME --age N --gender G --severity low|medium|high
  --symptoms TEXT --duration TEXT --disease TEXT
  --download                      Save the report after a successful consult
  --output DIR                    Directory for the saved report

Report flags:
  --output DIR                    Directory for the saved report
  --report NAME                   Ask for a specific server-side report

Config commands:
  medconsult config show          Print the effective configuration
  medconsult config get KEY       Print one value (dot notation, e.g. server.url)
  medconsult config set KEY VAL   Update the config file
  medconsult config path          Print the config file path
  medconsult config keys          List the settable keys

Mock server flags:
  --addr HOST:PORT                Listen address (default 127.0.0.1:5000)
  --latency DURATION              Delay every response (e.g. 2s)
  --db PATH                       SQLite file for the mock cache and history

Global flags:
  --server URL                    Backend base URL
  --config PATH                   Config file (TOML, YAML or JSON)
  --timeout SECS                  Request timeout
  --json                          JSON output
  -v, --verbose                   Log requests to stderr (TUI: ~/.medconsult/debug.log)
  -q, --quiet                     Minimal output

TUI keys:
  tab / shift+tab                 Switch between Chat and Consult
  F2 / F3                         Go to Chat / Consult
  F1                              Toggle full key help
  enter                           Send question / submit consultation
  alt+1..alt+9                    Quick-chip questions
  ctrl+b                          Build index
  ctrl+d                          Download report
  ctrl+y                          Copy last answer
  esc                             Cancel the request in flight
  ctrl+c, ctrl+q                  Quit

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "medconsult version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments (without the program name) and
// returns the command and args.
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Name = cmd
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.TrimSpace(strings.Join(NewArgParser(remaining).PositionalFrom(0), " "))
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "ingest", "index":
		return CmdIngest, parsedArgs

	case "consult":
		return CmdConsult, parsedArgs

	case "report", "download":
		return CmdReport, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "mock-server", "mock":
		return CmdMockServer, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags may appear anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		name, value, hasValue := strings.Cut(arg, "=")
		takeValue := func() (string, bool) {
			if hasValue {
				return value, true
			}
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		switch name {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--server":
			if v, ok := takeValue(); ok {
				parsed.Server = v
			}
		case "--config":
			if v, ok := takeValue(); ok {
				parsed.ConfigPath = v
			}
		case "--timeout":
			if v, ok := takeValue(); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					parsed.Timeout = n
				}
			}
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsed
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// Run executes a non-TUI command and returns the process exit code.
func Run(cmd Command, args Args) int {
	err := run(cmd, args, os.Stdout, os.Stderr)
	if err != nil {
		w := io.Writer(os.Stderr)
		if args.JSON {
			w = os.Stdout
		}
		DisplayError(w, cmd.String(), err, args.JSON)
	}
	return GetExitCode(err)
}

func run(cmd Command, args Args, stdout, stderr io.Writer) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(stdout)
		return nil
	case CmdVersion:
		return HandleVersion(stdout, args)
	case CmdUnknown:
		PrintUsage(stderr)
		return &ExitError{Code: ExitUsageError, Err: fmt.Errorf("unknown command %q", args.Name)}
	case CmdMockServer:
		SetupLogging(stderr, true)
		return HandleMockServer(args)
	}

	SetupLogging(stderr, args.Verbose)
	env, err := NewEnv(args, stdout, stderr)
	if err != nil {
		return err
	}

	switch cmd {
	case CmdAsk:
		return HandleAsk(env, args)
	case CmdChat:
		return HandleChat(env, args)
	case CmdIngest:
		return HandleIngest(env)
	case CmdConsult:
		return HandleConsult(env, args)
	case CmdReport:
		return HandleReport(env, args)
	case CmdConfig:
		return HandleConfig(env, args)
	}
	return &ExitError{Code: ExitUsageError, Err: fmt.Errorf("command %s cannot run here", cmd)}
}

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print(w)
	}
	PrintVersion(w)
	return nil
}
