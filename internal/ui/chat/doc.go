// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat pane of the medconsult TUI.

The pane owns a question input, the chat log, a chip bar of preset
questions and two busy indicators: one for /get_answer and one for /ingest.

# Files

  - model.go: Model, constructor, Send / BuildIndex / ApplyChip / Cancel
  - update.go: Update loop and the tea.Cmd closures that call the backend
  - view.go: rendering
  - keys.go: key bindings
  - messages.go: result messages and the fixed bot texts

# Usage

	client, _ := backend.NewClient(&backend.ClientConfig{BaseURL: cfg.Server.URL})
	pane := chat.New(client, cfg, styles.NewTheme(cfg.UI.Theme))

Each backend call runs in its own tea.Cmd under a context with the
configured timeout. At most one question and one index build are in flight;
triggers are ignored while the matching request is outstanding. Esc cancels
whatever is in flight, and the cancelled request finishes on the ordinary
failure path.
*/
package chat
