// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL for the medconsult CLI.
//
// Command: chat
//
// Interactive Commands (during chat):
//
//	/help, /h           Show available commands
//	/ingest             Rebuild the backend index
//	/chips              List the quick-chip questions
//	/chip N             Put chip N on the next prompt for editing
//	/history            Show the conversation so far
//	/quit, /q           Exit chat
//	Ctrl+D              Exit chat
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/medconsult-tui/internal/model"
	"github.com/jeranaias/medconsult-tui/internal/ui/chat"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
	AppendHistory(item string)
}

// ChatREPL is one interactive chat session. History lives in memory only.
type ChatREPL struct {
	env      *Env
	in       lineReader
	log      *model.Log
	chips    components.ChipBar
	markdown *components.Markdown

	// pending prefills the next prompt (set by /chip N)
	pending string
}

// NewChatREPL creates a REPL reading from in.
func NewChatREPL(env *Env, in lineReader) *ChatREPL {
	theme := styles.NewTheme(env.Config.UI.Theme)
	return &ChatREPL{
		env:      env,
		in:       in,
		log:      model.NewLog(),
		chips:    components.NewChipBar(env.Config.UI.Chips, theme),
		markdown: newMarkdown(env),
	}
}

// HandleChat runs the chat REPL on the terminal.
func HandleChat(env *Env, args Args) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	repl := NewChatREPL(env, line)
	if !env.Quiet {
		repl.printWelcome()
	}
	return repl.Run()
}

// Run reads lines until /quit or end of input.
func (r *ChatREPL) Run() error {
	for {
		input, err := r.in.PromptWithSuggestion("> ", r.pending, -1)
		r.pending = ""
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+C clears the line
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.env.Stdout)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if quit := r.Handle(input); quit {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the REPL should exit.
func (r *ChatREPL) Handle(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, "/") {
		return r.command(input)
	}

	r.in.AppendHistory(input)
	r.ask(input)
	return false
}

// Log returns the conversation log.
func (r *ChatREPL) Log() *model.Log {
	return r.log
}

func (r *ChatREPL) command(input string) bool {
	fields := strings.Fields(input)
	out := r.env.Stdout

	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h", "/?":
		printChatHelp(out)

	case "/ingest":
		r.ingest()

	case "/chips":
		if r.chips.Len() == 0 {
			fmt.Fprintln(out, DimStyle.Render("No quick chips configured."))
			break
		}
		fmt.Fprint(out, r.chips.List())

	case "/chip":
		if len(fields) < 2 {
			fmt.Fprintln(out, ErrorStyle.Render("Usage: /chip N"))
			break
		}
		n, err := strconv.Atoi(fields[1])
		q, ok := r.chips.Chip(n)
		if err != nil || !ok {
			fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("No chip %s (have %d)", fields[1], r.chips.Len())))
			break
		}
		r.pending = q

	case "/history":
		r.printHistory()

	default:
		fmt.Fprintf(out, "%s %s\n", ErrorStyle.Render("Unknown command:"), fields[0])
		fmt.Fprintln(out, DimStyle.Render("Type /help for commands."))
	}
	return false
}

// ask sends one question. Failures become the generic bot message.
func (r *ChatREPL) ask(question string) {
	r.log.AddUser(question)

	ctx, cancel := requestContext(r.env.Config.Timeout())
	defer cancel()

	ans, err := r.env.Client.Ask(ctx, question)
	if err != nil {
		log.Printf("ASK_ERROR | error=%v", err)
		r.log.AddBot(chat.MsgContactError, false)
		fmt.Fprintln(r.env.Stdout, ErrorStyle.Render(chat.MsgContactError))
		return
	}

	r.log.AddBot(ans.Text, ans.Cached)
	fmt.Fprintln(r.env.Stdout, strings.TrimRight(r.markdown.Render(ans.Text), "\n"))
	if ans.Cached && !r.env.Quiet {
		fmt.Fprintln(r.env.Stdout, DimStyle.Render("(cached)"))
	}
}

func (r *ChatREPL) ingest() {
	ctx, cancel := requestContext(r.env.Config.Timeout())
	defer cancel()

	if err := r.env.Client.Ingest(ctx); err != nil {
		log.Printf("INGEST_ERROR | error=%v", err)
		fmt.Fprintln(r.env.Stdout, ErrorStyle.Render(chat.MsgIndexFailed))
		return
	}
	fmt.Fprintln(r.env.Stdout, SuccessStyle.Render(chat.MsgIndexBuilt))
}

func (r *ChatREPL) printWelcome() {
	out := r.env.Stdout
	fmt.Fprintln(out, TitleStyle.Render("medconsult chat"))
	fmt.Fprintln(out, DimStyle.Render("Backend: "+r.env.Client.BaseURL()))
	fmt.Fprintln(out, DimStyle.Render("Type a question, /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(out)
}

func (r *ChatREPL) printHistory() {
	out := r.env.Stdout
	msgs := r.log.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No messages yet."))
		return
	}
	for _, m := range msgs {
		label := m.Role.DisplayName() + ":"
		if m.IsUser() {
			label = SectionStyle.Render(label)
		} else {
			label = TitleStyle.Render(label)
		}
		fmt.Fprintf(out, "%s %s\n", label, m.Preview(200))
	}
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	for _, row := range [][2]string{
		{"/ingest", "Rebuild the backend index"},
		{"/chips", "List the quick-chip questions"},
		{"/chip N", "Put chip N on the next prompt"},
		{"/history", "Show the conversation so far"},
		{"/quit", "Exit chat"},
	} {
		fmt.Fprintf(w, "  %s %s\n", RenderLabel(row[0]), row[1])
	}
}
