// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the medconsult TUI.

Colors (colors.go) are Lip Gloss AdaptiveColor values, so each has a light
and a dark variant. Theme (theme.go) builds every style the panes use and
decides which variant applies:

	theme := styles.NewTheme(cfg.UI.Theme) // "dark", "light" or "auto"
	header := theme.HeaderTitle.Render("medconsult")

Spinner frames live in animations.go and convert to bubbles spinners with
SpinnerConfig.Bubble.
*/
package styles
