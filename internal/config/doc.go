// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and persistence for pdfchat.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Backend URL and request timeout
//   - UploadConfig: Progress reset delay and watch command limits
//   - UIConfig: Theme preference
//   - LoggingConfig: Log level and rotation
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (PDFCHAT_*)
//   - ~/.pdfchat/config.toml (or $PDFCHAT_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClient(cfg.Backend.URL).WithTimeout(cfg.RequestTimeout())
package config
