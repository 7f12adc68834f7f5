// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "transcript.md")

	require.NoError(t, AtomicWriteFile(path, []byte("# PDF Chat Transcript\n"), 0644, 0755))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# PDF Chat Transcript\n", string(content))
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, AtomicWriteFile(path, []byte("old"), 0600, 0700))
	require.NoError(t, AtomicWriteFile(path, []byte("new"), 0600, 0700))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAtomicWriteFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, AtomicWriteFile(path, []byte("x"), 0600, 0700))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAtomicWriteFile_ParentIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := AtomicWriteFile(filepath.Join(blocker, "child.txt"), []byte("x"), 0644, 0755)
	assert.Error(t, err)
}

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "paper.pdf", 20, "paper.pdf"},
		{"exact", "paper.pdf", 9, "paper.pdf"},
		{"cut with ellipsis", "a-very-long-name.pdf", 10, "a-very-..."},
		{"tiny width no ellipsis", "abcdef", 3, "abc"},
		{"zero", "abc", 0, ""},
		{"wide runes", "日本語ファイル.pdf", 9, "日本語..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWidth(tt.input, tt.maxWidth)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, runewidth.StringWidth(got), max(tt.maxWidth, 0))
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := TruncateMiddle("quarterly-report-final.pdf", 18)
	assert.Equal(t, "quarterl...nal.pdf", got)
	assert.Equal(t, 18, runewidth.StringWidth(got))

	assert.Equal(t, "short.pdf", TruncateMiddle("short.pdf", 18))
	assert.Equal(t, "ab", TruncateMiddle("abcdef", 2))
}
