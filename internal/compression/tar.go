package compression

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// extractFromTar walks a compressed tar archive and extracts selected regular files.
func (x *extractor) extractFromTar(path string, open opener) error {
	f, err := os.Open(path) // #nosec G304 - archive path supplied by the user, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	dr, err := open(bufio.NewReader(f))
	if err != nil {
		return err
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar archive: %w", err)
		}

		name := strings.TrimPrefix(header.Name, "./")
		switch header.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
		default:
			// links and devices are never extracted
			x.logger.Warn("skipping non-regular archive entry", "entry", name)
			x.result.Skipped = append(x.result.Skipped, name)
			continue
		}

		if !x.selected(name) {
			continue
		}
		if err := x.writeEntry(name, tr); err != nil {
			return err
		}
	}
}
