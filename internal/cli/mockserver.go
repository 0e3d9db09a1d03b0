// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// mockserver.go - Runs the local mock backend.
//
// Command: mock-server
//
// Flags:
//
//	--addr HOST:PORT    Listen address (default 127.0.0.1:5000)
//	--latency DURATION  Delay every response
//	--db PATH           SQLite file for the answer cache and chat history
//	                    (default: in memory)
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/medconsult-tui/internal/mockserver"
)

// shutdownTimeout bounds graceful shutdown of the mock backend.
const shutdownTimeout = 5 * time.Second

// HandleMockServer serves the mock backend until interrupted.
func HandleMockServer(args Args) error {
	p := NewArgParser(args.Raw)
	if unknown := p.Unknown("addr", "latency", "db"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: "--" + unknown[0], Reason: "unknown flag", Example: "medconsult mock-server --addr 127.0.0.1:5000"}
	}

	srv := mockserver.NewServer(p.FlagOrDefault("addr", mockserver.DefaultAddr)).
		WithLogger(log.New(os.Stderr, "[mock] ", log.LstdFlags))
	defer srv.Close()

	if v := p.Flag("latency"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return &ValidationError{Field: "latency", Value: v, Reason: "must be a duration", Example: "--latency 2s"}
		}
		srv.WithLatency(d)
	}

	if path := p.Flag("db"); path != "" {
		st, err := mockserver.OpenStore(path)
		if err != nil {
			return &ExitError{Code: ExitConfigError, Err: err}
		}
		srv.WithStore(st)
		log.Printf("MOCK_SERVER_STORE | path=%s", st.Path())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(os.Stderr, "Mock backend listening on http://%s (Ctrl+C to stop)\n", srv.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return &ExitError{Code: ExitGeneralError, Err: err}
		}
		return nil
	case sig := <-sigCh:
		log.Printf("MOCK_SERVER_SIGNAL | signal=%v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
