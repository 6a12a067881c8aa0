// Package security provides validation helpers for untrusted input such as
// palette pack archives.
package security

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrUnsafePath is returned for archive entry names that could escape the
	// extraction directory.
	ErrUnsafePath = errors.New("unsafe path")
	// ErrSizeLimit is returned by LimitedReader once its budget is spent.
	ErrSizeLimit = errors.New("decompression size limit exceeded")
)

// ValidateFilePath validates that filePath, an entry name read from an archive,
// stays inside baseDir once joined to it.
func ValidateFilePath(filePath, baseDir string) error {
	if filePath == "" {
		return fmt.Errorf("%w: empty file path", ErrUnsafePath)
	}

	// Check for dangerous patterns
	parts := strings.FieldsFunc(filepath.ToSlash(filePath), func(r rune) bool { return r == '/' })
	if slices.Contains(parts, "..") {
		return fmt.Errorf("%w: %q contains directory traversal (..)", ErrUnsafePath, filePath)
	}

	if filepath.IsAbs(filePath) || strings.HasPrefix(filepath.ToSlash(filePath), "/") {
		return fmt.Errorf("%w: absolute path %q", ErrUnsafePath, filePath)
	}

	// Ensure the final path would be within baseDir
	cleanFinal := filepath.Clean(filepath.Join(baseDir, filePath))
	cleanBase := filepath.Clean(baseDir)

	if !strings.HasPrefix(cleanFinal, cleanBase+string(filepath.Separator)) &&
		cleanFinal != cleanBase {
		return fmt.Errorf("%w: %q would escape %s", ErrUnsafePath, filePath, baseDir)
	}

	return nil
}

// SafeUint8 converts an integer to uint8, clamping values outside 0-255.
func SafeUint8(val int) uint8 {
	if val < 0 {
		return 0
	}
	if val > 255 {
		return 255
	}
	return uint8(val)
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// This prevents decompression bomb attacks when extracting archives.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, ErrSizeLimit
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
