package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	// Codecs for the image formats the pipeline accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PreprocessGrayscale decodes the image at path, converts it to grayscale
// with high-quality (Catmull-Rom) interpolation and writes the result as a
// PNG in the temp directory. The caller removes the returned file.
func PreprocessGrayscale(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.CatmullRom.Scale(gray, bounds, src, bounds, draw.Src, nil)

	out := filepath.Join(os.TempDir(), "fileprep_gray_"+uuid.NewString()+".png")
	dst, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer dst.Close()

	if err := png.Encode(dst, gray); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("encode grayscale png: %w", err)
	}

	return out, nil
}
