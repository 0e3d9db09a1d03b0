// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for medconsult.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend URL and request timeouts
//   - ReportConfig: Where downloaded reports are written
//   - ConsultConfig: Severity choices for the consultation form
//   - UIConfig: Theme, markdown rendering and quick-chip presets
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (--server, --timeout)
//   - Environment variables (MEDCONSULT_*), optionally seeded from ./.env
//   - ~/.medconsult/config.toml
//   - ~/.medconsult/config.yaml
//   - ~/.medconsult/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := context.WithTimeout(ctx, cfg.ConsultTimeout())
package config
