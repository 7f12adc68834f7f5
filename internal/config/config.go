// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pdfchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pdfchat configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend API connection
	Backend BackendConfig `toml:"backend"`

	// Upload behavior, including the watch command
	Upload UploadConfig `toml:"upload"`

	// UI preferences
	UI UIConfig `toml:"ui"`

	// Log file settings
	Logging LoggingConfig `toml:"logging"`
}

// BackendConfig contains backend API settings.
type BackendConfig struct {
	// URL is the base URL of the PDF chat backend
	URL string `toml:"url"`
	// RequestTimeoutSecs bounds each HTTP request; 0 disables the timeout
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// UploadConfig contains upload and watch settings.
type UploadConfig struct {
	// ProgressResetMillis is how long a finished upload shows 100%
	ProgressResetMillis int `toml:"progress_reset_ms"`
	// WatchDebounceMillis waits for a file to settle before uploading it
	WatchDebounceMillis int `toml:"watch_debounce_ms"`
	// WatchUploadsPerMinute caps uploads started by the watch command
	WatchUploadsPerMinute int `toml:"watch_uploads_per_minute"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme"`
	// RenderMarkdown renders assistant answers with glamour
	RenderMarkdown bool `toml:"render_markdown"`
}

// LoggingConfig contains log file configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level"`
	// File is the log file path; empty means <config dir>/pdfchat.log
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Theme values.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			URL:                "http://localhost:8001",
			RequestTimeoutSecs: 0,
		},
		Upload: UploadConfig{
			ProgressResetMillis:   2000,
			WatchDebounceMillis:   500,
			WatchUploadsPerMinute: 30,
		},
		UI: UIConfig{
			Theme:          ThemeAuto,
			RenderMarkdown: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// RequestTimeout returns the per-request timeout, or 0 for none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutSecs) * time.Second
}

// ProgressResetDelay returns how long a finished upload shows 100%.
func (c *Config) ProgressResetDelay() time.Duration {
	return time.Duration(c.Upload.ProgressResetMillis) * time.Millisecond
}

// WatchDebounce returns the settle time for watched files.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Upload.WatchDebounceMillis) * time.Millisecond
}

// LogFile returns the configured log path, defaulting into the config dir.
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pdfchat.log"), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnv overrides the configuration directory.
const HomeEnv = "PDFCHAT_HOME"

// ConfigDir returns the pdfchat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pdfchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file. A missing file
// yields defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFile loads the default config file without environment overrides.
// Edits saved back from it do not capture PDFCHAT_* values.
func LoadFile() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		return cfg, nil
	}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep the values
// already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Not fatal: permissions are not fixable on every filesystem.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# pdfchat configuration file\n")
	buf.WriteString("# Generated by pdfchat - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetTheme validates and stores a theme preference, then saves the config
// to the default location.
func (c *Config) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !validTheme(theme) {
		return ValidationError{Field: "ui.theme", Message: fmt.Sprintf("must be one of auto, dark, light (got %q)", theme)}
	}
	c.UI.Theme = theme
	return Save(c)
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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Backend.URL == "" {
		errs = append(errs, ValidationError{"backend.url", "must not be empty"})
	} else if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"backend.url", fmt.Sprintf("must be an http(s) URL (got %q)", c.Backend.URL)})
	}
	if c.Backend.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{"backend.request_timeout_secs", "must not be negative"})
	}

	if c.Upload.ProgressResetMillis < 0 {
		errs = append(errs, ValidationError{"upload.progress_reset_ms", "must not be negative"})
	}
	if c.Upload.WatchDebounceMillis < 0 {
		errs = append(errs, ValidationError{"upload.watch_debounce_ms", "must not be negative"})
	}
	if c.Upload.WatchUploadsPerMinute <= 0 {
		errs = append(errs, ValidationError{"upload.watch_uploads_per_minute", "must be positive"})
	}

	if !validTheme(c.UI.Theme) {
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("must be one of auto, dark, light (got %q)", c.UI.Theme)})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("must be one of debug, info, warn, error (got %q)", c.Logging.Level)})
	}
	if c.Logging.MaxSizeMB <= 0 {
		errs = append(errs, ValidationError{"logging.max_size_mb", "must be positive"})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{"logging.max_backups", "must not be negative"})
	}
	if c.Logging.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{"logging.max_age_days", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validTheme(theme string) bool {
	switch theme {
	case ThemeAuto, ThemeDark, ThemeLight:
		return true
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PDFCHAT_API_URL: overrides backend.url
//   - PDFCHAT_THEME: overrides ui.theme
//   - PDFCHAT_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if apiURL := os.Getenv("PDFCHAT_API_URL"); apiURL != "" {
		c.Backend.URL = apiURL
	}
	if theme := os.Getenv("PDFCHAT_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
	if level := os.Getenv("PDFCHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its TOML key path, e.g. "ui.theme".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a configuration value by its TOML key path, converting
// strings to the field's type. The result is not validated.
func (c *Config) Set(key string, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer value %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean value %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Kind())
	}
	return nil
}

// lookup walks the struct by toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) == 0 || parts[0] == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		idx := fieldByTag(v.Type(), part)
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = v.Field(idx)
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
	}
	return v, nil
}

func fieldByTag(t reflect.Type, name string) int {
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag == name {
			return i
		}
	}
	return -1
}

// Keys returns all settable configuration keys in dot notation.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + strings.Split(f.Tag.Get("toml"), ",")[0]
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
