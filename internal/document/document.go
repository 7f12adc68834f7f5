// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// PDFMIMEType is the only content type accepted for upload.
	PDFMIMEType = "application/pdf"

	// MaxFileSize is the per-file upload limit (10 MiB).
	MaxFileSize int64 = 10 * 1024 * 1024
)

var (
	// ErrNotPDF indicates the file content is not a PDF document.
	ErrNotPDF = errors.New("not a PDF file")

	// ErrTooLarge indicates the file exceeds MaxFileSize.
	ErrTooLarge = errors.New("file too large")

	// ErrIsDirectory indicates a directory was given where a file was expected.
	ErrIsDirectory = errors.New("is a directory")
)

// File is a user-selected file that may be uploaded.
type File struct {
	Name     string // Base name sent to the backend
	Path     string // Local path, empty for in-memory files
	Size     int64  // Size in bytes
	MIMEType string // Detected content type

	open func() (io.ReadCloser, error)
}

// Open returns a reader over the file contents.
// The caller must close the returned reader.
func (f File) Open() (io.ReadCloser, error) {
	if f.open != nil {
		return f.open()
	}
	if f.Path == "" {
		return nil, fmt.Errorf("%s: no content source", f.Name)
	}
	return os.Open(f.Path)
}

// FromPath stats a local file and detects its content type from the
// leading bytes of the file rather than its extension.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("cannot detect type of %s: %w", path, err)
	}

	return File{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     info.Size(),
		MIMEType: normalizeMIME(mt),
	}, nil
}

// FromBytes builds an in-memory File. The MIME type is detected from the
// content when mimeType is empty.
func FromBytes(name, mimeType string, data []byte) File {
	if mimeType == "" {
		mimeType = normalizeMIME(mimetype.Detect(data))
	}
	return File{
		Name:     name,
		Size:     int64(len(data)),
		MIMEType: mimeType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func normalizeMIME(mt *mimetype.MIME) string {
	if mt.Is(PDFMIMEType) {
		return PDFMIMEType
	}
	return mt.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes why a single file was rejected.
// Its message is suitable for showing directly to the user.
type ValidationError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotPDF):
		return fmt.Sprintf("%s is not a PDF file. Only PDF files are allowed.", e.Name)
	case errors.Is(e.Err, ErrTooLarge):
		return fmt.Sprintf("%s is too large. Maximum file size is 10MB.", e.Name)
	default:
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
}

// Unwrap returns the underlying sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the type and size constraints for one file.
// The type check runs first, matching the order users see the messages in.
func Validate(f File) error {
	if f.MIMEType != PDFMIMEType {
		return &ValidationError{Name: f.Name, Err: ErrNotPDF}
	}
	if f.Size > MaxFileSize {
		return &ValidationError{Name: f.Name, Err: ErrTooLarge}
	}
	return nil
}

// Partition splits files into those that pass Validate and the
// rejections, preserving input order in both.
func Partition(files []File) ([]File, []*ValidationError) {
	var valid []File
	var rejected []*ValidationError
	for _, f := range files {
		if err := Validate(f); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				rejected = append(rejected, verr)
			}
			continue
		}
		valid = append(valid, f)
	}
	return valid, rejected
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatMB renders a size as megabytes with two decimals ("4.77 MB").
func FormatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}

// HumanSize renders a size in IEC units for log lines ("4.8 MiB").
func HumanSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

// TotalSize sums the sizes of files.
func TotalSize(files []File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
