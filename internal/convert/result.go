package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Conversion method labels surfaced to users.
const (
	MethodPassthrough   = "Pass-through"
	MethodPDFExtraction = "PDF Text Extraction"
	MethodOCR           = "OCR (Tesseract)"
	MethodCSVSummary    = "CSV Summary"
	MethodAudioMetadata = "Audio Metadata"
	MethodVideoMetadata = "Video Metadata"
	MethodFileMetadata  = "File Metadata"
	MethodTextToPDF     = "Text to PDF"
)

// Result is the output of every strategy: the final payload plus enough
// metadata for the caller to message the user about what happened. A Result
// is constructed once per input file and immediately consumed by the upload
// step; it has no identity beyond the single call.
type Result struct {
	// ConvertedData is the final payload to upload. Never exceeds the
	// configured size ceiling once the compression gate has run.
	ConvertedData []byte
	// Filename is the derived name, original stem plus a method tag
	// (e.g. report_OCR.txt). Pass-through keeps the original name.
	Filename string
	// OriginalFilename is preserved for user-facing messaging.
	OriginalFilename string
	// Method is the human-readable conversion method label.
	Method string
	// WasConverted is false only for native pass-through.
	WasConverted bool
}

// convertedName derives the output filename: {stem}_{tag}{ext}.
func convertedName(original, tag, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return fmt.Sprintf("%s_%s%s", stem, tag, ext)
}

func baseName(path string) string {
	return filepath.Base(path)
}
