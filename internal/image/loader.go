// Package image provides utilities for loading, converting and saving texture images.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/util"
)

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path as straight-alpha NRGBA.
	Load(path string) (*image.NRGBA, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path and converts it to NRGBA.
// Supported formats: PNG, JPEG, GIF, WebP, BMP, TIFF. Images without an alpha
// channel come back fully opaque.
func (l *FileLoader) Load(path string) (*image.NRGBA, error) {
	// Validate path.
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	// Check if file exists.
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	// Check if it's a directory.
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	// Open the file.
	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode the image.
	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return ToNRGBA(img), nil
}

// Load is a convenience wrapper around FileLoader.Load.
func Load(path string) (*image.NRGBA, error) {
	return NewFileLoader().Load(path)
}

// ToNRGBA returns img as an *image.NRGBA with bounds starting at the origin.
// The result never aliases img's pixel buffer.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[srcOff:srcOff+b.Dx()*4])
		}
	case *image.Paletted:
		// Palette entries are converted exactly; draw would go through
		// premultiplied alpha and lose precision on translucent entries.
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := colour.FromColor(src.At(b.Min.X+x, b.Min.Y+y))
				dst.SetNRGBA(x, y, c.NRGBA())
			}
		}
	default:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}

	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// SavePNG encodes img as PNG and writes it atomically, creating parent directories.
func SavePNG(path string, img image.Image) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil { // #nosec G306 - texture outputs need standard read permissions
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// IsPNG reports whether path has a .png extension.
func IsPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}

// ScanPNGs returns the PNG files under dir in sorted order. When recursive is
// false only dir itself is listed. Symlinked files are followed.
func ScanPNGs(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var files []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		for _, entry := range entries {
			fullPath := filepath.Join(dir, entry.Name())

			// For symlinks, stat the target to determine if it's a file.
			info, err := os.Stat(fullPath)
			if err != nil || info.IsDir() {
				continue
			}
			if IsPNG(entry.Name()) {
				files = append(files, fullPath)
			}
		}
		slices.Sort(files)
		return files, nil
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsPNG(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	slices.Sort(files)
	return files, nil
}

// Pixels returns every pixel of img as a colour, row by row.
func Pixels(img *image.NRGBA) []colour.RGBA {
	b := img.Bounds()
	out := make([]colour.RGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := img.Pix[off+x*4 : off+x*4+4 : off+x*4+4]
			out = append(out, colour.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
		}
	}
	return out
}
