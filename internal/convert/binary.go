package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// convertBinary synthesizes a filesystem-metadata stub for formats nothing
// else can handle. Intentionally low effort: the design goal is "never
// silently fail", not extracting value from arbitrary binaries.
func (s *Service) convertBinary(path string) (*Result, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		ext = "unknown"
	}

	var b strings.Builder
	b.WriteString("=== FILE METADATA ===\n")
	fmt.Fprintf(&b, "File: %s\n", baseName(path))
	fmt.Fprintf(&b, "Type: %s (no converter available)\n", ext)
	fmt.Fprintf(&b, "Size: %s (%d bytes)\n", humanize.IBytes(uint64(info.Size())), info.Size())
	fmt.Fprintf(&b, "Modified: %s\n", info.ModTime().UTC().Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("The file content could not be interpreted by this pipeline.\n")
	b.WriteString("Recommendation: convert the file externally to a supported format (text, PDF, CSV) and re-upload.\n")

	return &Result{
		ConvertedData:    []byte(b.String()),
		Filename:         convertedName(path, "FileInfo", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodFileMetadata,
		WasConverted:     true,
	}, nil
}
