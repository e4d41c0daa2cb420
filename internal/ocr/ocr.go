// Package ocr wraps a text-recognition engine and reports per-segment
// confidence so callers can embed a quality rating alongside extracted text.
package ocr

import (
	"context"
	"fmt"
)

// Segment is one recognized text span with its confidence score.
type Segment struct {
	Text       string
	Confidence float64 // 0.0 - 1.0
}

// lowConfidenceThreshold marks segments the engine was unsure about.
const lowConfidenceThreshold = 0.5

// Result holds the output of a recognition pass over a single image.
type Result struct {
	Text     string
	Segments []Segment
}

// MeanConfidence returns the arithmetic mean confidence across segments,
// or 0 when nothing was recognized.
func (r Result) MeanConfidence() float64 {
	if len(r.Segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Segments {
		sum += s.Confidence
	}
	return sum / float64(len(r.Segments))
}

// LowConfidenceCount returns the number of segments below the
// low-confidence threshold.
func (r Result) LowConfidenceCount() int {
	n := 0
	for _, s := range r.Segments {
		if s.Confidence < lowConfidenceThreshold {
			n++
		}
	}
	return n
}

// QualityTier buckets a mean confidence into a human-readable rating. The
// tier feeds the embedded report string only; it never drives control flow.
func QualityTier(mean float64) string {
	switch {
	case mean >= 0.9:
		return "Excellent"
	case mean >= 0.75:
		return "Good"
	default:
		return "Fair"
	}
}

// QualityReport renders the report string embedded in converted output.
func (r Result) QualityReport() string {
	mean := r.MeanConfidence()
	return fmt.Sprintf("OCR quality: %.0f%% (%s), %d low-confidence segment(s)",
		mean*100, QualityTier(mean), r.LowConfidenceCount())
}

// PageMarker renders the per-page confidence marker for multi-page OCR.
func PageMarker(mean float64) string {
	icon := "❌"
	switch {
	case mean >= 0.8:
		icon = "✅"
	case mean >= lowConfidenceThreshold:
		icon = "⚠️"
	}
	return fmt.Sprintf("(OCR %s %.0f%%)", icon, mean*100)
}

// Engine is a text-recognition backend.
type Engine interface {
	// Recognize runs OCR on the image at path. A successfully decoded
	// image with no recognizable text returns an empty Result, not an
	// error, so callers can fall back to a metadata stub.
	Recognize(ctx context.Context, path string) (Result, error)
	// Available reports whether the backend can run on this host.
	Available() bool
}
