// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Configuration, logging and backend client setup shared by the
// commands and the TUI.
package cli

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/config"
)

// Env is what a command runs with.
type Env struct {
	Config *config.Config
	Client *backend.Client

	Stdout io.Writer
	Stderr io.Writer

	JSON  bool
	Quiet bool
	// Pretty enables markdown and colors (stdout is a terminal)
	Pretty bool
}

// NewEnv loads the configuration and creates the backend client.
func NewEnv(args Args, stdout, stderr io.Writer) (*Env, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitConfigError, Err: err}
	}
	return &Env{
		Config: cfg,
		Client: client,
		Stdout: stdout,
		Stderr: stderr,
		JSON:   args.JSON,
		Quiet:  args.Quiet,
		Pretty: !args.JSON && isTerminal(stdout) && ColorsEnabled(),
	}, nil
}

// LoadConfig resolves the configuration: .env seeding, then the config file
// (--config or the default search), then environment overrides, then flags.
func LoadConfig(args Args) (*config.Config, error) {
	if err := config.LoadDotEnv(""); err != nil {
		log.Printf("CONFIG_DOTENV_ERROR | error=%v", err)
	}

	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, &ExitError{Code: ExitConfigError, Err: err}
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, &ExitError{Code: ExitConfigError, Err: err}
		}
		if err != nil {
			// Defaults are in use; keep going
			log.Printf("CONFIG_LOAD_ERROR | error=%v", err)
		}
	}

	ApplyFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, &ExitError{Code: ExitConfigError, Err: err}
	}

	config.SetGlobal(cfg)
	log.Printf("CONFIG_LOADED | server=%s timeout=%ds", cfg.Server.URL, cfg.Server.TimeoutSecs)
	return cfg, nil
}

// ApplyFlags applies global flag overrides to cfg.
func ApplyFlags(cfg *config.Config, args Args) {
	if args.Server != "" {
		cfg.Server.URL = args.Server
	}
	if args.Timeout > 0 {
		cfg.Server.TimeoutSecs = args.Timeout
		cfg.Server.ConsultTimeoutSecs = args.Timeout
	}
}

// NewClient creates the backend client for cfg.
func NewClient(cfg *config.Config) (*backend.Client, error) {
	return backend.NewClient(&backend.ClientConfig{
		BaseURL:   cfg.Server.URL,
		UserAgent: "medconsult/" + Version,
	})
}

// SetupLogging points the standard logger at w when verbose, else discards.
func SetupLogging(w io.Writer, verbose bool) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if verbose {
		log.SetOutput(w)
		return
	}
	log.SetOutput(io.Discard)
}

// requestContext returns a context bounded by timeout and cancelled on
// interrupt.
func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
