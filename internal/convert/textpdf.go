package convert

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// convertTextToPDF paginates plain text or markdown into a fixed-margin,
// fixed-font PDF for the inline-context destination, which only accepts
// PDF. The reverse of the usual direction: the pipeline synthesizes the
// destination's required format rather than normalizing away from it.
// Output is deterministic for a given input.
func (s *Service) convertTextToPDF(path string) (*Result, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	// A fixed creation date keeps the output byte-identical across runs,
	// which in turn keeps the content-addressed store deduplicating.
	doc.SetCreationDate(time.Unix(0, 0).UTC())
	doc.SetTitle(baseName(path), true)
	doc.SetAuthor("fileprep", true)
	doc.SetCreator("fileprep text-to-pdf", true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 25)

	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Helvetica", "I", 8)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	doc.SetFont("Helvetica", "", 11)

	// Pre-gate the text so the rendered document cannot blow past the
	// ceiling; PDF framing adds overhead on top of the raw text.
	text := Compress(string(data), int(s.tun.MaxFileSize/2), s.tun.CompressHeadTailLines)

	// The core font set is cp1252; translate what we can and let the
	// translator substitute the rest.
	tr := doc.UnicodeTranslatorFromDescriptor("")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			doc.Ln(5)
			continue
		}
		doc.MultiCell(0, 5, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, &ConversionFailedError{Path: path, Strategy: "text-to-pdf", Err: err}
	}

	if int64(buf.Len()) > s.tun.MaxFileSize {
		return nil, &ConversionFailedError{
			Path:     path,
			Strategy: "text-to-pdf",
			Reason:   "rendered PDF exceeds the size ceiling",
		}
	}

	return &Result{
		ConvertedData:    buf.Bytes(),
		Filename:         convertedName(path, "PDF", ".pdf"),
		OriginalFilename: baseName(path),
		Method:           MethodTextToPDF,
		WasConverted:     true,
	}, nil
}
