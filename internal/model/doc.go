// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat log data structures.
//
// A Log is append-only: messages are never edited or removed, so the
// rendered chat always shows the full exchange in order.
package model
