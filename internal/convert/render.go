package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// PageRenderer rasterizes PDF pages into images for OCR.
type PageRenderer interface {
	// Render writes up to maxPages page images and returns their paths in
	// page order plus a cleanup function. The caller always invokes
	// cleanup when it is non-nil, on every exit path.
	Render(ctx context.Context, pdfData []byte, maxPages int) (paths []string, cleanup func(), err error)
	// Available reports whether the renderer can run on this host.
	Available() bool
}

// pdftoppmRenderer shells out to pdftoppm (Poppler) to rasterize pages.
// Tesseract cannot read PDFs directly, so scanned documents are converted
// to per-page PNGs first.
type pdftoppmRenderer struct {
	binary string

	availableOnce sync.Once
	available     bool
}

// NewPdftoppmRenderer returns a renderer using the pdftoppm binary on PATH.
func NewPdftoppmRenderer() PageRenderer {
	return &pdftoppmRenderer{binary: "pdftoppm"}
}

func (r *pdftoppmRenderer) Available() bool {
	r.availableOnce.Do(func() {
		err := exec.Command(r.binary, "-v").Run()
		r.available = err == nil
	})
	return r.available
}

var pageNumberRe = regexp.MustCompile(`-(\d+)\.png$`)

func (r *pdftoppmRenderer) Render(ctx context.Context, pdfData []byte, maxPages int) ([]string, func(), error) {
	dir, err := os.MkdirTemp("", "fileprep_ocr_"+uuid.NewString()[:8])
	if err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdfData, 0600); err != nil {
		return nil, cleanup, fmt.Errorf("write temp pdf: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.binary,
		"-png",
		"-r", "150",
		"-f", "1",
		"-l", strconv.Itoa(maxPages),
		pdfPath,
		filepath.Join(dir, "page"),
	)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, cleanup, ctx.Err()
		}
		return nil, cleanup, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil || len(matches) == 0 {
		return nil, cleanup, fmt.Errorf("pdftoppm produced no page images")
	}

	// pdftoppm zero-pads page numbers, but sort numerically anyway so
	// ordering never depends on padding width.
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})

	return matches, cleanup, nil
}

func pageNumber(path string) int {
	m := pageNumberRe.FindStringSubmatch(path)
	if len(m) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
