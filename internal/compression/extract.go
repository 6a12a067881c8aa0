// Package compression extracts palette packs distributed as archives.
package compression

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/btg/internal/security"
	"github.com/jmylchreest/btg/internal/util"
)

// DefaultMaxFileSize caps each extracted file. Palette files are small JSON documents.
const DefaultMaxFileSize = 16 * 1024 * 1024

var (
	// ErrUnsupportedArchive is returned for archive names with no known extension.
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	// ErrFileExists is returned when an entry would overwrite a file and Overwrite is off.
	ErrFileExists = errors.New("file already exists")
)

// Options controls archive extraction.
type Options struct {
	// Match selects entries by their slash-separated name; nil extracts every regular file.
	Match func(name string) bool
	// MaxFileSize limits each extracted entry; 0 means DefaultMaxFileSize.
	MaxFileSize int64
	Overwrite   bool
	DryRun      bool
}

// ExtractResult contains the result of an extraction operation.
type ExtractResult struct {
	Archive string
	// Files lists destination paths in archive order (planned paths on a dry run).
	Files []string
	// Skipped lists entry names that were not selected by Match or were not regular files.
	Skipped []string
}

// ExtractArchive extracts the selected entries of the archive at path into destDir,
// keeping their relative layout. The format is detected from the file name:
// .zip, .tar.gz/.tgz, .tar.xz/.txz and .tar.bz2/.tbz/.tbz2 are supported.
func ExtractArchive(path, destDir string, opts Options, logger hclog.Logger) (*ExtractResult, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	x := &extractor{
		destDir: destDir,
		opts:    opts,
		logger:  logger,
		result:  &ExtractResult{Archive: path},
	}

	name := strings.ToLower(filepath.Base(path))
	var err error
	switch {
	case strings.HasSuffix(name, ".zip"):
		err = x.extractFromZip(path)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		err = x.extractFromTar(path, openGz)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		err = x.extractFromTar(path, openXz)
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz"), strings.HasSuffix(name, ".tbz2"):
		err = x.extractFromTar(path, openBz2)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedArchive, path)
	}
	if err != nil {
		return x.result, err
	}

	logger.Debug("archive extracted", "archive", path, "files", len(x.result.Files), "skipped", len(x.result.Skipped))
	return x.result, nil
}

// IsArchive reports whether name has an extension ExtractArchive understands.
func IsArchive(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

var archiveExtensions = []string{".tar.gz", ".tgz", ".tar.xz", ".txz", ".tar.bz2", ".tbz", ".tbz2", ".zip"}

// GetArchiveBaseName extracts the pack name from an archive filename.
// For example: "vanilla-woods_1.2.0.tar.gz" -> "vanilla-woods".
func GetArchiveBaseName(filename string) string {
	// Remove extension
	base := filepath.Base(filename)
	for _, ext := range archiveExtensions {
		if before, ok := strings.CutSuffix(base, ext); ok {
			base = before
			break
		}
	}

	// Find the part before the first underscore
	if idx := strings.Index(base, "_"); idx > 0 {
		return base[:idx]
	}

	return base
}

type extractor struct {
	destDir string
	opts    Options
	logger  hclog.Logger
	result  *ExtractResult
}

// selected reports whether a regular-file entry should be extracted.
func (x *extractor) selected(name string) bool {
	if x.opts.Match == nil || x.opts.Match(name) {
		return true
	}
	x.result.Skipped = append(x.result.Skipped, name)
	return false
}

// writeEntry validates name and copies r to its place under destDir.
func (x *extractor) writeEntry(name string, r io.Reader) error {
	if err := security.ValidateFilePath(name, x.destDir); err != nil {
		return err
	}
	destPath := filepath.Join(x.destDir, filepath.FromSlash(name))

	if !x.opts.Overwrite {
		if _, err := os.Stat(destPath); err == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, destPath)
		}
	}

	// Limit decompression size to prevent archive bombs
	data, err := io.ReadAll(security.NewLimitedReader(r, x.opts.MaxFileSize+1))
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if int64(len(data)) > x.opts.MaxFileSize {
		return fmt.Errorf("failed to extract %s: %w", name, security.ErrSizeLimit)
	}

	if x.opts.DryRun {
		x.logger.Info("would extract", "entry", name, "file", destPath, "dry_run", true)
	} else {
		if err := util.WriteFileAtomic(destPath, data, 0o644); err != nil {
			return err
		}
		x.logger.Debug("extracted", "entry", name, "file", destPath)
	}
	x.result.Files = append(x.result.Files, destPath)
	return nil
}
