// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - The "ask" and "ingest" commands.
//
// Examples:
//
//	medconsult ask "What is flu?"
//	medconsult ask --json "What is flu?"
//	medconsult ingest
package cli

import (
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/medconsult-tui/internal/ui/chat"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// newMarkdown returns a glamour renderer for terminal output, or nil when
// output is not a terminal or markdown is turned off.
func newMarkdown(env *Env) *components.Markdown {
	if !env.Pretty || !env.Config.UI.Markdown {
		return nil
	}
	theme := styles.NewTheme(env.Config.UI.Theme)
	md, err := components.NewMarkdown(theme.GlamourStyle(), GetTerminalWidth()-4)
	if err != nil {
		log.Printf("MARKDOWN_ERROR | error=%v", err)
		return nil
	}
	return md
}

// =============================================================================
// ASK
// =============================================================================

// HandleAsk sends one question to /get_answer and prints the answer.
//
// A non-2xx response that still carries an answer is printed like any other
// answer, matching the TUI.
func HandleAsk(env *Env, args Args) error {
	question := strings.TrimSpace(args.Query)
	if question == "" {
		return ErrMissingArgument("question", `medconsult ask "What is flu?"`)
	}

	ctx, cancel := requestContext(env.Config.Timeout())
	defer cancel()

	ans, err := env.Client.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("%s (%w)", chat.MsgContactError, err)
	}

	if env.JSON {
		return NewJSONResponse("ask", AskData{
			Question: question,
			Answer:   ans.Text,
			Cached:   ans.Cached,
			Status:   ans.Status,
		}).Print(env.Stdout)
	}

	fmt.Fprintln(env.Stdout, strings.TrimRight(newMarkdown(env).Render(ans.Text), "\n"))
	if !env.Quiet {
		if ans.Cached {
			fmt.Fprintln(env.Stderr, DimStyle.Render("(cached)"))
		}
		if ans.Status >= 300 {
			fmt.Fprintln(env.Stderr, WarningStyle.Render(fmt.Sprintf("(server status %d)", ans.Status)))
		}
	}
	return nil
}

// =============================================================================
// INGEST
// =============================================================================

// HandleIngest asks the backend to rebuild its index and prints the fixed
// success or failure message.
func HandleIngest(env *Env) error {
	ctx, cancel := requestContext(env.Config.Timeout())
	defer cancel()

	if err := env.Client.Ingest(ctx); err != nil {
		log.Printf("INGEST_ERROR | error=%v", err)
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("%s (%w)", chat.MsgIndexFailed, err)}
	}

	if env.JSON {
		return NewJSONResponse("ingest", IngestData{Message: chat.MsgIndexBuilt}).Print(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, SuccessStyle.Render(chat.MsgIndexBuilt))
	return nil
}
