package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// convertImage runs OCR on an image file. A decodable image with no
// recognizable text degrades to a metadata stub rather than failing, so
// the caller always receives an uploadable payload.
func (s *Service) convertImage(ctx context.Context, path string) (*Result, error) {
	if !s.engine.Available() {
		return s.imageStub(path, "OCR engine is unavailable on this host"), nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	// The engine works on real files; stage the bytes in the OS temp dir
	// and guarantee removal on every exit path.
	tmp := filepath.Join(os.TempDir(), "fileprep_img_"+uuid.NewString()+filepath.Ext(path))
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return nil, &ConversionFailedError{Path: path, Strategy: "image", Err: err}
	}
	defer os.Remove(tmp)

	res, err := s.engine.Recognize(ctx, tmp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConversionFailedError{Path: path, Strategy: "image", Reason: "OCR engine error", Err: err}
	}

	if strings.TrimSpace(res.Text) == "" {
		return s.imageStub(path, "no text recognized in image"), nil
	}

	var b strings.Builder
	b.WriteString("=== IMAGE OCR EXTRACTION ===\n")
	fmt.Fprintf(&b, "File: %s\n", baseName(path))
	b.WriteString(res.QualityReport())
	b.WriteString("\n\n")
	b.WriteString(res.Text)
	b.WriteByte('\n')

	body := Compress(b.String(), int(s.tun.MaxFileSize), s.tun.CompressHeadTailLines)

	return &Result{
		ConvertedData:    []byte(body),
		Filename:         convertedName(path, "OCR", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodOCR,
		WasConverted:     true,
	}, nil
}

// imageStub is the fallback payload when OCR finds nothing or cannot run.
func (s *Service) imageStub(path, reason string) *Result {
	info, _ := s.fs.Stat(path)

	var b strings.Builder
	b.WriteString("=== IMAGE FILE METADATA ===\n")
	fmt.Fprintf(&b, "File: %s\n", baseName(path))
	fmt.Fprintf(&b, "Format: %s\n", strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if info != nil {
		fmt.Fprintf(&b, "Size: %s\n", humanize.IBytes(uint64(info.Size())))
		fmt.Fprintf(&b, "Modified: %s\n", info.ModTime().UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(&b, "Note: %s\n", reason)
	b.WriteString("Recommendation: if this image contains a document, rescan at higher resolution and re-upload.\n")

	return &Result{
		ConvertedData:    []byte(b.String()),
		Filename:         convertedName(path, "OCR", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodOCR,
		WasConverted:     true,
	}
}
