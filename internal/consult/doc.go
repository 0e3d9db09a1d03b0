// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package consult holds the consultation wire types and the pure logic that
// turns a backend reply into the result view shared by the TUI and the CLI.
//
// # Key Types
//
//   - Request: The structured consult form, every field trimmed
//   - Reply: The backend's free-text answer fields (all optional)
//   - Response: Reply plus the server-side report path
//   - Result: Display-ready sections derived from a Reply
//
// Nothing in this package performs I/O.
package consult
