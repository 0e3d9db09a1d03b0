// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable view pieces of the medconsult TUI.

  - Spinner: busy indicator with an elapsed timer (spinner.go)
  - MessageBubble / MessageList: chat log rendering (message.go)
  - Markdown: glamour renderer for bot answers (markdown.go)
  - ChipBar: numbered preset-question chips (chips.go)
  - RenderResult: consult result cards (result.go)
  - Alert: blocking modal that must be dismissed (alert.go)
  - StatusBar: footer with key hints and the latest status (statusbar.go)
  - Inflight: one outstanding backend call and its cancel function (inflight.go)

Components are plain values owned by a pane model. Stateful ones follow the
bubbletea shape (Update returns the updated value and a command).
*/
package components
