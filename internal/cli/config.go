// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for medconsult.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Display the effective configuration
//	get <key>           Print one value
//	set <key> <value>   Set a value in the config file
//	path                Show the config file path
//	keys                List all keys
//
// Examples:
//
//	medconsult config set server.url http://10.0.0.5:5000
//	medconsult config set report.dir ~/Documents/reports
//	medconsult config set ui.chips "What is flu?,How do I sleep better?"
//	medconsult config get server.timeout_secs
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/medconsult-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(env, args)
	case "get":
		return handleConfigGet(env, args.ConfigKey)
	case "set":
		return handleConfigSet(env, args)
	case "path":
		return handleConfigPath(env, args)
	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(env.Stdout, k)
		}
		return nil
	default:
		return &ExitError{
			Code: ExitUsageError,
			Err:  fmt.Errorf("unknown config subcommand: %s", args.Subcommand),
		}
	}
}

// handleConfigShow prints the effective configuration (file, env and flags
// applied) as TOML.
func handleConfigShow(env *Env, args Args) error {
	path := configFilePath(args)
	if env.JSON {
		return NewJSONResponse("config show", ConfigData{Path: path, Config: env.Config}).Print(env.Stdout)
	}

	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(env.Config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if env.Pretty {
		fmt.Fprintln(env.Stdout, TitleStyle.Render("medconsult Configuration"))
		fmt.Fprintln(env.Stdout, RenderSeparator())
	}
	fmt.Fprint(env.Stdout, b.String())
	if env.Pretty {
		fmt.Fprintln(env.Stdout, RenderSeparator())
		fmt.Fprintf(env.Stdout, "Config file: %s\n", DimStyle.Render(path))
	}
	return nil
}

func handleConfigGet(env *Env, key string) error {
	if key == "" {
		return ErrMissingArgument("key", "medconsult config get KEY")
	}
	val, err := env.Config.Get(key)
	if err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "server.url"}
	}
	if env.JSON {
		return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": val}).Print(env.Stdout)
	}
	if list, ok := val.([]string); ok {
		fmt.Fprintln(env.Stdout, strings.Join(list, ","))
		return nil
	}
	fmt.Fprintln(env.Stdout, val)
	return nil
}

// handleConfigSet edits the config file itself. Environment and flag
// overrides are not written back.
func handleConfigSet(env *Env, args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "medconsult config set KEY VALUE")
	}

	path := configFilePath(args)
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := loadByExt(cfg, path); err != nil {
			return &ExitError{Code: ExitConfigError, Err: err}
		}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error(), Example: "server.url"}
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	if args.ConfigPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return &ExitError{Code: ExitConfigError, Err: err}
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	if err := config.SaveToPath(cfg, path); err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	// Reflect the change in this run too
	_ = env.Config.Set(args.ConfigKey, args.ConfigVal)

	if env.JSON {
		return NewJSONResponse("config set", map[string]string{
			"key": args.ConfigKey, "value": args.ConfigVal, "path": path,
		}).Print(env.Stdout)
	}
	if !env.Quiet {
		fmt.Fprintf(env.Stdout, "%s %s = %s\n", SuccessStyle.Render("Set"), args.ConfigKey, args.ConfigVal)
	}
	return nil
}

func handleConfigPath(env *Env, args Args) error {
	path := configFilePath(args)
	if env.JSON {
		_, err := os.Stat(path)
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": err == nil,
		}).Print(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, path)
	return nil
}

// configFilePath is --config, else the first config file that exists, else
// the TOML location.
func configFilePath(args Args) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	var first string
	for _, fn := range []func() (string, error){config.ConfigPathTOML, config.ConfigPathYAML, config.ConfigPathJSON} {
		p, err := fn()
		if err != nil {
			continue
		}
		if first == "" {
			first = p
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return first
}

func loadByExt(cfg *config.Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return config.LoadJSON(cfg, path)
	case ".yaml", ".yml":
		return config.LoadYAML(cfg, path)
	default:
		return config.LoadTOML(cfg, path)
	}
}
