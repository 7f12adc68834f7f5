// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jeranaias/pdfchat-tui/internal/document"
)

// ParsePaths splits user input into paths. Paths are separated by commas
// or whitespace; single or double quotes keep a path with spaces together.
// A leading ~ expands to the home directory.
func ParsePaths(input string) []string {
	var (
		paths   []string
		current strings.Builder
		quote   rune
		quoted  bool
	)
	flush := func() {
		if current.Len() > 0 || quoted {
			paths = append(paths, expandHome(current.String()))
		}
		current.Reset()
		quoted = false
	}

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			quoted = true
		case r == ',' || unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// OpenPaths resolves paths to files. Paths that cannot be opened are
// returned as messages; validation of the opened files is left to the
// controller.
func OpenPaths(paths []string) ([]document.File, []string) {
	var (
		files      []document.File
		unreadable []string
	)
	for _, p := range paths {
		f, err := document.FromPath(p)
		if err != nil {
			unreadable = append(unreadable, fmt.Sprintf("Cannot open %s: %v", p, err))
			continue
		}
		files = append(files, f)
	}
	return files, unreadable
}
