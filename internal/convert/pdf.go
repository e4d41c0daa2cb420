package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/openresponses/fileprep/internal/ocr"
)

// convertPDF extracts the native text layer page by page. A PDF with no
// extractable text is treated as scanned and falls through to OCR; a PDF
// that cannot be parsed at all degrades to an error-bearing metadata stub.
// It never fails outright for a structurally valid PDF.
func (s *Service) convertPDF(ctx context.Context, path string) (*Result, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	var meta string
	var pageTexts []string
	pages := 0
	totalChars := 0

	// The parser can panic on malformed files; contain it so a corrupt
	// page or document degrades instead of crashing the batch.
	func() {
		defer func() { _ = recover() }()

		reader, rerr := pdf.NewReader(f, info.Size())
		if rerr != nil {
			return
		}
		pages = reader.NumPage()
		meta = pdfMetadataBlock(reader)

		fonts := make(map[string]*pdf.Font)
		for i := 1; i <= pages; i++ {
			if ctx.Err() != nil {
				return
			}
			text := extractPageText(reader, i, fonts)
			totalChars += len(strings.TrimSpace(text))
			pageTexts = append(pageTexts, text)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if totalChars == 0 {
		// Image-based/scanned PDF (or unreadable): OCR fallback.
		return s.ocrPDF(ctx, path, pages)
	}

	var b strings.Builder
	if meta != "" {
		b.WriteString(meta)
		b.WriteByte('\n')
	}
	for i, text := range pageTexts {
		fmt.Fprintf(&b, "--- PAGE %d ---\n", i+1)
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}

	body := Compress(b.String(), int(s.tun.MaxFileSize), s.tun.CompressHeadTailLines)

	return &Result{
		ConvertedData:    []byte(body),
		Filename:         convertedName(path, "PDFExtract", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodPDFExtraction,
		WasConverted:     true,
	}, nil
}

// extractPageText pulls the text layer of one page, guarding against
// per-page parser panics. Corrupt pages yield empty text, not a failure.
func extractPageText(reader *pdf.Reader, pageNr int, fonts map[string]*pdf.Font) (text string) {
	defer func() { _ = recover() }()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return ""
	}

	for _, name := range page.Fonts() {
		if _, ok := fonts[name]; !ok {
			font := page.Font(name)
			fonts[name] = &font
		}
	}

	content, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return content
}

// pdfMetadataBlock renders the document Info dictionary (title, author,
// subject, creator, keywords) as a prepended metadata block.
func pdfMetadataBlock(reader *pdf.Reader) (block string) {
	defer func() { _ = recover() }()

	docInfo := reader.Trailer().Key("Info")
	if docInfo.IsNull() {
		return ""
	}

	var b strings.Builder
	for _, key := range []string{"Title", "Author", "Subject", "Creator", "Keywords"} {
		v := docInfo.Key(key)
		if v.IsNull() {
			continue
		}
		if text := strings.TrimSpace(v.Text()); text != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, text)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "=== DOCUMENT METADATA ===\n" + b.String()
}

// ocrPDF rasterizes up to the configured page cap and runs OCR per page,
// embedding per-page confidence markers and an overall quality rating.
// When no OCR tooling is available, or OCR finds nothing, it degrades to a
// metadata stub so the caller still gets an uploadable payload.
func (s *Service) ocrPDF(ctx context.Context, path string, pageCount int) (*Result, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	hasImages, pdfPages := detectImageStreams(bytes.NewReader(data))
	if pageCount == 0 {
		// The text-layer reader failed to parse the document; fall back to
		// pdfcpu's count so the page-cap note stays accurate.
		pageCount = pdfPages
	}

	if !s.renderer.Available() || !s.engine.Available() {
		return s.pdfStub(path, pageCount, hasImages, "no text layer found and OCR tooling is unavailable on this host"), nil
	}

	imagePaths, cleanup, err := s.renderer.Render(ctx, data, s.tun.OCRPageLimit)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.pdfStub(path, pageCount, hasImages, fmt.Sprintf("page rasterization failed: %v", err)), nil
	}

	var b strings.Builder
	var confidences []float64
	lowSegments := 0
	recognized := 0

	for i, imgPath := range imagePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, rerr := s.engine.Recognize(ctx, imgPath)
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A failed page is skipped, not fatal.
			fmt.Fprintf(&b, "--- PAGE %d --- (OCR ❌ failed)\n\n", i+1)
			continue
		}

		mean := res.MeanConfidence()
		confidences = append(confidences, mean)
		lowSegments += res.LowConfidenceCount()
		if strings.TrimSpace(res.Text) != "" {
			recognized++
		}

		fmt.Fprintf(&b, "--- PAGE %d --- %s\n", i+1, ocr.PageMarker(mean))
		b.WriteString(strings.TrimSpace(res.Text))
		b.WriteString("\n\n")
	}

	if recognized == 0 {
		return s.pdfStub(path, pageCount, hasImages, "OCR detected no text on any rasterized page"), nil
	}

	var header strings.Builder
	header.WriteString("=== SCANNED PDF: OCR EXTRACTION ===\n")
	mean := meanOf(confidences)
	fmt.Fprintf(&header, "OCR quality: %.0f%% (%s), %d low-confidence segment(s)\n",
		mean*100, ocr.QualityTier(mean), lowSegments)
	if pageCount > len(imagePaths) {
		fmt.Fprintf(&header, "Note: OCR limited to the first %d of %d pages.\n", len(imagePaths), pageCount)
	}
	header.WriteByte('\n')

	body := Compress(header.String()+b.String(), int(s.tun.MaxFileSize), s.tun.CompressHeadTailLines)

	return &Result{
		ConvertedData:    []byte(body),
		Filename:         convertedName(path, "OCR", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodOCR,
		WasConverted:     true,
	}, nil
}

// pdfStub is the last-resort payload for a PDF that yielded no text.
func (s *Service) pdfStub(path string, pageCount int, hasImages bool, reason string) *Result {
	info, _ := s.fs.Stat(path)

	var b strings.Builder
	b.WriteString("=== PDF DOCUMENT METADATA ===\n")
	fmt.Fprintf(&b, "File: %s\n", baseName(path))
	if info != nil {
		fmt.Fprintf(&b, "Size: %s\n", humanize.IBytes(uint64(info.Size())))
	}
	if pageCount > 0 {
		fmt.Fprintf(&b, "Pages: %d\n", pageCount)
	}
	fmt.Fprintf(&b, "Contains image streams: %t\n", hasImages)
	fmt.Fprintf(&b, "Extraction note: %s\n", reason)
	b.WriteString("Recommendation: convert this document externally (e.g. print to a text-based PDF) and re-upload.\n")

	return &Result{
		ConvertedData:    []byte(b.String()),
		Filename:         convertedName(path, "PDFExtract", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodPDFExtraction,
		WasConverted:     true,
	}
}

// detectImageStreams checks whether the PDF carries image XObjects, the
// signature of a scanned document, and returns the document's page count as
// a second opinion for files the text-layer reader could not parse.
func detectImageStreams(rs io.ReadSeeker) (bool, int) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return false, 0
	}

	if pctx.Optimize != nil {
		for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pctx, pageNr)) > 0 {
				return true, pctx.PageCount
			}
		}
	}

	// Fallback: scan the xref table for image-subtype stream objects.
	for _, entry := range pctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true, pctx.PageCount
			}
		}
	}
	return false, pctx.PageCount
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
