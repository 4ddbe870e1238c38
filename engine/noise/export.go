package noise

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// writeImage encodes img losslessly to path, picking the encoder from the extension.
func writeImage(tag, path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	log.Printf("[%s] Texture saved to %s", tag, path)
	return nil
}

// WriteImage exports any image the same way TextureGenerator.Export does. It is used for the
// volume preview contact sheet.
//
// Parameters:
//   - path: the destination file
//   - img: the image to write
//
// Returns:
//   - error: an I/O or encoding error
func WriteImage(path string, img image.Image) error {
	return writeImage("Export", path, img)
}
