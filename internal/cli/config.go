// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for pdfchat.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)        Display the effective configuration
//   get <key>             Print one value
//   set <key> <value>     Set a value and save
//   theme <auto|dark|light>
//   keys                  List settable keys
//   path                  Show configuration file path
//   reset                 Reset to default configuration
//
// Examples:
//   pdfchat config set backend.url https://pdf.example.com
//   pdfchat config set backend.request_timeout_secs 60
//   pdfchat config theme light

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// =============================================================================
// CONFIG STYLES
// =============================================================================

var (
	configSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Cyan).
				MarginTop(1)

	configKeyStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(28)

	configValueStyle = lipgloss.NewStyle().
				Foreground(styles.Emerald)

	configPathStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
)

// configCommand returns cmd marked to skip the shared setup, so a broken
// config file can still be inspected and repaired.
func configCommand(a *app, cmd *cobra.Command) *cobra.Command {
	cmd.Annotations = map[string]string{annotationNoSetup: "true"}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		a.stdout = c.OutOrStdout()
		a.stderr = c.ErrOrStderr()
		return run(c, args)
	}
	return cmd
}

func newConfigCommand(a *app) *cobra.Command {
	var asTOML bool

	show := configCommand(a, &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.configShow(asTOML)
		},
	})
	show.Flags().BoolVar(&asTOML, "toml", false, "print as TOML")

	root := configCommand(a, &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long: `Shows and edits ~/.pdfchat/config.toml (or $PDFCHAT_HOME/config.toml).

"show" and "get" include PDFCHAT_* environment overrides. "set", "theme" and
"reset" edit the file only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.configShow(false)
		},
	})

	root.AddCommand(
		show,
		configCommand(a, &cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.configGet(args[0])
			},
		}),
		configCommand(a, &cobra.Command{
			Use:     "set <key> <value>",
			Short:   "Set a configuration value and save",
			Example: "  pdfchat config set backend.url https://pdf.example.com",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.configSet(args[0], args[1])
			},
		}),
		configCommand(a, &cobra.Command{
			Use:       "theme <auto|dark|light>",
			Short:     "Set the UI theme preference",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{config.ThemeAuto, config.ThemeDark, config.ThemeLight},
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.configTheme(args[0])
			},
		}),
		configCommand(a, &cobra.Command{
			Use:   "keys",
			Short: "List settable configuration keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, key := range config.Keys() {
					fmt.Fprintln(a.stdout, key)
				}
				return nil
			},
		}),
		configCommand(a, &cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return &configError{err: err}
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			},
		}),
		configCommand(a, &cobra.Command{
			Use:   "reset",
			Short: "Reset the configuration file to defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Save(config.Default()); err != nil {
					return &configError{err: err}
				}
				fmt.Fprintln(a.stdout, commandStyle.Render("[Configuration reset to defaults]"))
				return nil
			},
		}),
	)
	return root
}

// =============================================================================
// HANDLERS
// =============================================================================

func (a *app) configShow(asTOML bool) error {
	cfg, err := config.Load()
	if err != nil {
		return &configError{err: err}
	}
	if asTOML {
		fmt.Fprint(a.stdout, cfg.String())
		return nil
	}

	if path, err := config.ConfigPath(); err == nil {
		fmt.Fprintln(a.stdout, configPathStyle.Render(path))
	}

	section := ""
	for _, key := range config.Keys() {
		head, _, nested := strings.Cut(key, ".")
		if !nested {
			head = ""
		}
		if head != section {
			section = head
			fmt.Fprintln(a.stdout, configSectionStyle.Render("["+section+"]"))
		}
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "  %s %s\n",
			configKeyStyle.Render(key),
			configValueStyle.Render(formatConfigValue(value)))
	}
	return nil
}

func (a *app) configGet(key string) error {
	cfg, err := config.Load()
	if err != nil {
		return &configError{err: err}
	}
	value, err := cfg.Get(key)
	if err != nil {
		return &UsageError{Field: "key", Reason: err.Error(), Example: "pdfchat config keys"}
	}
	fmt.Fprintln(a.stdout, formatConfigValue(value))
	return nil
}

func (a *app) configSet(key, value string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return &configError{err: err}
	}
	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Field: "key", Reason: err.Error(), Example: "pdfchat config keys"}
	}
	if err := cfg.Validate(); err != nil {
		return &configError{err: err}
	}
	if err := config.Save(cfg); err != nil {
		return &configError{err: err}
	}
	fmt.Fprintf(a.stdout, "%s %s = %s\n", commandStyle.Render("[Saved]"), key, value)
	return nil
}

func (a *app) configTheme(theme string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return &configError{err: err}
	}
	if err := cfg.SetTheme(theme); err != nil {
		return &configError{err: err}
	}
	fmt.Fprintf(a.stdout, "%s theme = %s\n", commandStyle.Render("[Saved]"), cfg.UI.Theme)
	return nil
}

func formatConfigValue(v interface{}) string {
	if s, ok := v.(string); ok {
		if s == "" {
			return `""`
		}
		return s
	}
	return fmt.Sprint(v)
}
