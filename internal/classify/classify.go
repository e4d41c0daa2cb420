package classify

import (
	"path/filepath"
	"strings"
)

// Strategy identifies the conversion algorithm selected for an input file.
// The set is closed: the converter dispatches over it with an exhaustive
// switch so an unhandled variant fails at compile time, not at runtime.
type Strategy int

const (
	// StrategyPassthrough forwards the original bytes unchanged.
	StrategyPassthrough Strategy = iota
	// StrategyPDF extracts the PDF text layer, falling back to OCR for
	// scanned documents.
	StrategyPDF
	// StrategyImage runs OCR on the image.
	StrategyImage
	// StrategyCSV produces a size-tiered tabular summary.
	StrategyCSV
	// StrategyAudio produces a metadata-only stub (duration, no transcript).
	StrategyAudio
	// StrategyVideo produces a metadata-only stub (duration, track counts).
	StrategyVideo
	// StrategyBinary produces a filesystem-metadata stub for unknown formats.
	StrategyBinary
	// StrategyTextToPDF paginates plain text into a PDF for destinations
	// that only accept PDF inline context.
	StrategyTextToPDF
)

func (s Strategy) String() string {
	switch s {
	case StrategyPassthrough:
		return "passthrough"
	case StrategyPDF:
		return "pdf"
	case StrategyImage:
		return "image"
	case StrategyCSV:
		return "csv"
	case StrategyAudio:
		return "audio"
	case StrategyVideo:
		return "video"
	case StrategyBinary:
		return "binary"
	case StrategyTextToPDF:
		return "text-to-pdf"
	default:
		return "unknown"
	}
}

// Destination is the downstream consumer of the converted payload. Each
// destination carries its own accepted-extension set, which is why routing
// cannot be a function of the extension alone.
type Destination int

const (
	// DestinationGeneral is the direct upload / chat attachment path.
	DestinationGeneral Destination = iota
	// DestinationVectorStore is the semantic-search indexer. Its indexer
	// does not extract text from PDFs itself and rejects CSV outright.
	DestinationVectorStore
	// DestinationChatInline is the inline-context attachment path, which
	// accepts only PDF for document content.
	DestinationChatInline
)

func (d Destination) String() string {
	switch d {
	case DestinationGeneral:
		return "general"
	case DestinationVectorStore:
		return "vector-store"
	case DestinationChatInline:
		return "chat-inline"
	default:
		return "unknown"
	}
}

// ParseDestination maps a CLI/config string to a Destination.
func ParseDestination(s string) (Destination, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general", "direct", "":
		return DestinationGeneral, true
	case "vector-store", "vectorstore", "vs":
		return DestinationVectorStore, true
	case "chat-inline", "inline":
		return DestinationChatInline, true
	default:
		return DestinationGeneral, false
	}
}

// Classifier routes a filename to a Strategy for a given destination.
// It holds an immutable Ruleset; classification is a pure function of
// (filename, destination) with no hidden state.
type Classifier struct {
	rules Ruleset
}

// NewClassifier builds a classifier from the given ruleset.
func NewClassifier(rules Ruleset) *Classifier {
	return &Classifier{rules: rules}
}

// Classify selects the conversion strategy for filename when targeting dest.
//
// The critical rule: pass-through is only safe when the destination itself
// can consume the format. A raw PDF is accepted by the upload API for the
// vector-store destination, but the indexer performs no text extraction, so
// the PDF strategy is forced there. CSV is rejected outright by the
// vector-store API and is always summarized. Unknown extensions are routed
// to a conversion strategy, never rejected.
func (c *Classifier) Classify(filename string, dest Destination) Strategy {
	ext := strings.ToLower(filepath.Ext(filename))

	switch dest {
	case DestinationVectorStore:
		return c.classifyVectorStore(ext)
	case DestinationChatInline:
		return c.classifyChatInline(ext)
	default:
		return c.classifyGeneral(ext)
	}
}

func (c *Classifier) classifyGeneral(ext string) Strategy {
	if c.rules.general[ext] {
		return StrategyPassthrough
	}
	return c.classifyByContent(ext)
}

func (c *Classifier) classifyVectorStore(ext string) Strategy {
	switch {
	case ext == ".pdf":
		// Nominally in the allow-list, but the indexer would produce zero
		// searchable content from raw PDF bytes. Force extraction.
		return StrategyPDF
	case c.rules.tabular[ext]:
		return StrategyCSV
	case c.rules.vectorStore[ext]:
		return StrategyPassthrough
	default:
		return c.classifyByContent(ext)
	}
}

func (c *Classifier) classifyChatInline(ext string) Strategy {
	switch {
	case ext == ".pdf":
		return StrategyPassthrough
	case c.rules.text[ext]:
		return StrategyTextToPDF
	default:
		return c.classifyGeneral(ext)
	}
}

// classifyByContent handles extensions outside the destination's allow-list.
// The guarantee is "always produce something uploadable": image, audio and
// video formats get their media strategies, everything else degrades to the
// filesystem-metadata stub.
func (c *Classifier) classifyByContent(ext string) Strategy {
	switch {
	case c.rules.image[ext]:
		return StrategyImage
	case c.rules.audio[ext]:
		return StrategyAudio
	case c.rules.video[ext]:
		return StrategyVideo
	case c.rules.tabular[ext]:
		return StrategyCSV
	default:
		return StrategyBinary
	}
}
