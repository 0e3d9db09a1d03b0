// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for medconsult.
//
// Supports TOML, YAML and JSON configuration formats, with sensible defaults,
// environment variable overrides (optionally seeded from a .env file), and
// validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.medconsult/config.toml
//   - ~/.medconsult/config.yaml
//   - ~/.medconsult/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/medconsult-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete medconsult configuration.
type Config struct {
	// Version of the config file layout
	Version string `toml:"version" yaml:"version" json:"version"`

	// Server is the consultation backend
	Server ServerConfig `toml:"server" yaml:"server" json:"server"`

	// Report controls where downloaded reports land
	Report ReportConfig `toml:"report" yaml:"report" json:"report"`

	// Consult holds the consultation form settings
	Consult ConsultConfig `toml:"consult" yaml:"consult" json:"consult"`

	// UI configuration
	UI UIConfig `toml:"ui" yaml:"ui" json:"ui"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// URL is the base URL of the backend (no trailing slash needed)
	URL string `toml:"url" yaml:"url" json:"url"`
	// TimeoutSecs bounds /get_answer, /ingest and /download-report calls
	TimeoutSecs int `toml:"timeout_secs" yaml:"timeout_secs" json:"timeout_secs"`
	// ConsultTimeoutSecs bounds /consult, which renders a PDF server-side
	ConsultTimeoutSecs int `toml:"consult_timeout_secs" yaml:"consult_timeout_secs" json:"consult_timeout_secs"`
}

// ReportConfig contains report download settings.
type ReportConfig struct {
	// Dir is the directory downloaded reports are saved to (empty = working directory)
	Dir string `toml:"dir" yaml:"dir" json:"dir"`
	// FileName is the preferred file name; taken names get " (N)" appended
	FileName string `toml:"file_name" yaml:"file_name" json:"file_name"`
	// Inspect opens the saved PDF and reports its page count
	Inspect bool `toml:"inspect" yaml:"inspect" json:"inspect"`
}

// ConsultConfig contains consultation form settings.
type ConsultConfig struct {
	// Severities is the fixed set offered by the severity radio group
	Severities []string `toml:"severities" yaml:"severities" json:"severities"`
	// DefaultSeverity is pre-selected so a value is always present
	DefaultSeverity string `toml:"default_severity" yaml:"default_severity" json:"default_severity"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "dark", "light" or "auto" (follow the terminal background)
	Theme string `toml:"theme" yaml:"theme" json:"theme"`
	// Markdown renders bot answers with glamour
	Markdown bool `toml:"markdown" yaml:"markdown" json:"markdown"`
	// Chips are the preset questions for the quick-chip bar
	Chips []string `toml:"chips" yaml:"chips" json:"chips"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultServerURL is where the reference backend listens.
const DefaultServerURL = "http://127.0.0.1:5000"

// DefaultChips are the built-in quick-chip questions.
var DefaultChips = []string{
	"What are the symptoms of flu?",
	"How can I lower a fever at home?",
	"When should I see a doctor for a headache?",
	"What is a healthy blood pressure?",
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			URL:                DefaultServerURL,
			TimeoutSecs:        60,
			ConsultTimeoutSecs: 120,
		},
		Report: ReportConfig{
			Dir:      "",
			FileName: "health_report.pdf",
			Inspect:  true,
		},
		Consult: ConsultConfig{
			Severities:      []string{"low", "medium", "high"},
			DefaultSeverity: "medium",
		},
		UI: UIConfig{
			Theme:    "dark",
			Markdown: true,
			Chips:    append([]string(nil), DefaultChips...),
		},
	}
}

// Timeout returns the request timeout for ordinary calls.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// ConsultTimeout returns the request timeout for /consult.
func (c *Config) ConsultTimeout() time.Duration {
	return time.Duration(c.Server.ConsultTimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the medconsult configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".medconsult"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML, then YAML, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	candidates := []struct {
		pathFn func() (string, error)
		load   func(*Config, string) error
		kind   string
	}{
		{ConfigPathTOML, LoadTOML, "TOML"},
		{ConfigPathYAML, LoadYAML, "YAML"},
		{ConfigPathJSON, LoadJSON, "JSON"},
	}

	for _, c := range candidates {
		path, err := c.pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		if err := c.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", c.kind, err)
			cfg = Default()
			continue
		}
		return finish(cfg)
	}

	out, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	// Return defaults (with any load error for informational purposes)
	return out, loadErr
}

// finish applies env overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
// The format is picked from the extension; anything unknown is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return finish(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	cfg.SetDefaults()
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# medconsult configuration file\n")
	b.WriteString("# Generated by medconsult - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveYAML saves the configuration to a YAML file.
func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveToPath saves the configuration in the format implied by the extension.
func SaveToPath(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SaveJSON(cfg, path)
	case ".yaml", ".yml":
		return SaveYAML(cfg, path)
	default:
		return SaveTOML(cfg, path)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server URL must be absolute http(s)
	if c.Server.URL == "" {
		errs = append(errs, ValidationError{Field: "server.url", Message: "must not be empty"})
	} else if u, err := url.Parse(c.Server.URL); err != nil {
		errs = append(errs, ValidationError{Field: "server.url", Message: fmt.Sprintf("invalid URL: %v", err)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("invalid scheme '%s', must be http or https", u.Scheme),
		})
	} else if u.Host == "" {
		errs = append(errs, ValidationError{Field: "server.url", Message: "missing host"})
	}

	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 3600, got %d", c.Server.TimeoutSecs),
		})
	}
	if c.Server.ConsultTimeoutSecs < 1 || c.Server.ConsultTimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "server.consult_timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 3600, got %d", c.Server.ConsultTimeoutSecs),
		})
	}

	if strings.ContainsAny(c.Report.FileName, `/\`) {
		errs = append(errs, ValidationError{
			Field:   "report.file_name",
			Message: "must be a bare file name",
		})
	}

	if len(c.Consult.Severities) == 0 {
		errs = append(errs, ValidationError{Field: "consult.severities", Message: "must list at least one severity"})
	} else {
		found := false
		for _, s := range c.Consult.Severities {
			if strings.TrimSpace(s) == "" {
				errs = append(errs, ValidationError{Field: "consult.severities", Message: "contains an empty severity"})
				break
			}
			if s == c.Consult.DefaultSeverity {
				found = true
			}
		}
		if !found {
			errs = append(errs, ValidationError{
				Field: "consult.default_severity",
				Message: fmt.Sprintf("'%s' is not one of: %s",
					c.Consult.DefaultSeverity, strings.Join(c.Consult.Severities, ", ")),
			})
		}
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(c.UI.Chips) > 9 {
		errs = append(errs, ValidationError{
			Field:   "ui.chips",
			Message: fmt.Sprintf("at most 9 chips are supported, got %d", len(c.UI.Chips)),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Server.ConsultTimeoutSecs == 0 {
		c.Server.ConsultTimeoutSecs = defaults.Server.ConsultTimeoutSecs
	}
	if c.Report.FileName == "" {
		c.Report.FileName = defaults.Report.FileName
	}
	if len(c.Consult.Severities) == 0 {
		c.Consult.Severities = defaults.Consult.Severities
	}
	if c.Consult.DefaultSeverity == "" {
		c.Consult.DefaultSeverity = defaults.Consult.DefaultSeverity
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if len(c.UI.Chips) == 0 {
		c.UI.Chips = defaults.UI.Chips
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// LoadDotEnv seeds the process environment from a .env file without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MEDCONSULT_SERVER_URL: overrides server.url
//   - MEDCONSULT_TIMEOUT: overrides server.timeout_secs (seconds)
//   - MEDCONSULT_REPORT_DIR: overrides report.dir
//   - MEDCONSULT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("MEDCONSULT_SERVER_URL"); u != "" {
		c.Server.URL = u
	}

	if t := os.Getenv("MEDCONSULT_TIMEOUT"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil {
			c.Server.TimeoutSecs = secs
		}
	}

	if dir := os.Getenv("MEDCONSULT_REPORT_DIR"); dir != "" {
		c.Report.Dir = dir
	}

	if theme := os.Getenv("MEDCONSULT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "server.url").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
// String slices accept a comma-separated string.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.url",
		"server.timeout_secs",
		"server.consult_timeout_secs",
		"report.dir",
		"report.file_name",
		"report.inspect",
		"consult.severities",
		"consult.default_severity",
		"ui.theme",
		"ui.markdown",
		"ui.chips",
	}
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
