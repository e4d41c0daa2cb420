package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// recognitionLanguages is the fixed multi-language hint set passed to the
// engine: most coverage for most documents without a language-selection
// surface. Not user-configurable.
const recognitionLanguages = "eng+spa+fra+deu+ita+por+chi_sim+jpn"

// Tesseract runs the tesseract CLI with TSV output to obtain per-word
// confidence scores. Images are converted to grayscale before recognition;
// on low-quality scans this improves accuracy noticeably at negligible cost.
type Tesseract struct {
	// Binary overrides the tesseract executable name, for tests.
	Binary string

	availableOnce sync.Once
	available     bool
}

// NewTesseract returns a Tesseract engine using the binary on PATH.
func NewTesseract() *Tesseract {
	return &Tesseract{Binary: "tesseract"}
}

// Available reports whether the tesseract binary can be executed. The
// result is cached for the lifetime of the engine.
func (t *Tesseract) Available() bool {
	t.availableOnce.Do(func() {
		err := exec.Command(t.Binary, "--version").Run()
		t.available = err == nil
	})
	return t.available
}

// Recognize runs OCR on the image at path and collects per-word confidence.
func (t *Tesseract) Recognize(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Grayscale preprocessing. If the image cannot be decoded (unsupported
	// codec), fall back to handing the original file to the engine.
	input := path
	if gray, err := PreprocessGrayscale(path); err == nil {
		input = gray
		defer os.Remove(gray)
	}

	cmd := exec.CommandContext(ctx, t.Binary, input, "stdout",
		"-l", recognitionLanguages,
		"--psm", "3",
		"tsv",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(stderr.String(), 300))
	}

	return parseTSV(stdout.String()), nil
}

// parseTSV extracts word-level text and confidence from tesseract TSV
// output. Columns: level page block par line word left top width height
// conf text. Non-word rows carry conf -1 and are skipped.
func parseTSV(out string) Result {
	var res Result
	var text strings.Builder

	lines := strings.Split(out, "\n")
	prevLine := ""
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			// Header row or trailing blank.
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}

		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}

		res.Segments = append(res.Segments, Segment{
			Text:       word,
			Confidence: conf / 100.0,
		})

		// New block/par/line combination starts a new output line.
		lineKey := strings.Join(cols[1:5], ":")
		if text.Len() > 0 {
			if lineKey != prevLine {
				text.WriteByte('\n')
			} else {
				text.WriteByte(' ')
			}
		}
		prevLine = lineKey
		text.WriteString(word)
	}

	res.Text = text.String()
	return res
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
