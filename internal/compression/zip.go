package compression

import (
	"archive/zip"
	"fmt"
	"strings"
)

// extractFromZip extracts selected regular files from a zip archive.
func (x *extractor) extractFromZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to create zip reader: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		info := f.FileInfo()
		if info.IsDir() {
			continue
		}

		name := strings.TrimPrefix(f.Name, "./")
		if !info.Mode().IsRegular() {
			x.logger.Warn("skipping non-regular archive entry", "entry", name)
			x.result.Skipped = append(x.result.Skipped, name)
			continue
		}
		if !x.selected(name) {
			continue
		}

		if err := x.extractZipFile(f, name); err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) extractZipFile(f *zip.File, name string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open file in archive: %w", err)
	}
	defer rc.Close()

	return x.writeEntry(name, rc)
}
