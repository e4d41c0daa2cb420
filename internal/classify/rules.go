package classify

// Ruleset holds the extension allow-lists for each destination plus the
// content-type sets used to pick a conversion strategy for everything else.
// A Ruleset is immutable once built; DefaultRuleset returns the production
// lists matching the downstream API family.
type Ruleset struct {
	general     map[string]bool
	vectorStore map[string]bool
	text        map[string]bool
	tabular     map[string]bool
	image       map[string]bool
	audio       map[string]bool
	video       map[string]bool
}

func toSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[e] = true
	}
	return set
}

// generalExtensions is the broad upload allow-list: documents, code, data,
// images, archives, office and scientific formats.
var generalExtensions = []string{
	// Documents
	".pdf", ".txt", ".md", ".markdown", ".rtf", ".tex",
	// Office
	".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
	// Code
	".c", ".cpp", ".cs", ".css", ".go", ".html", ".java", ".js", ".json",
	".php", ".py", ".rb", ".sh", ".sql", ".swift", ".kt", ".rs", ".ts",
	".xml", ".yaml", ".yml",
	// Data / scientific
	".csv", ".tsv", ".ipynb",
	// Images
	".png", ".jpg", ".jpeg", ".gif", ".webp",
	// Archives
	".zip", ".tar", ".gz",
}

// vectorStoreExtensions is the strict subset the semantic-search indexer
// accepts: plain text, markdown, code, and the office document formats it
// extracts itself. CSV, images and archives are deliberately absent.
var vectorStoreExtensions = []string{
	".c", ".cpp", ".cs", ".css", ".doc", ".docx", ".go", ".html", ".java",
	".js", ".json", ".md", ".pdf", ".php", ".pptx", ".py", ".rb", ".sh",
	".tex", ".ts", ".txt",
}

var textExtensions = []string{".txt", ".md", ".markdown"}

var tabularExtensions = []string{".csv", ".tsv"}

var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".heic",
}

var audioExtensions = []string{
	".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg", ".opus",
}

var videoExtensions = []string{
	".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v",
}

// DefaultRuleset returns the production allow-lists.
func DefaultRuleset() Ruleset {
	return NewRuleset(generalExtensions, vectorStoreExtensions)
}

// NewRuleset builds a ruleset from explicit destination allow-lists. The
// content-type sets (image/audio/video/tabular/text) are fixed; only the
// destination lists vary per deployment.
func NewRuleset(general, vectorStore []string) Ruleset {
	return Ruleset{
		general:     toSet(general),
		vectorStore: toSet(vectorStore),
		text:        toSet(textExtensions),
		tabular:     toSet(tabularExtensions),
		image:       toSet(imageExtensions),
		audio:       toSet(audioExtensions),
		video:       toSet(videoExtensions),
	}
}

// SupportedByDestination reports whether ext is natively accepted by dest
// without conversion. Used by uploaders to enforce their format contract.
func (r Ruleset) SupportedByDestination(ext string, dest Destination) bool {
	switch dest {
	case DestinationVectorStore:
		return r.vectorStore[ext]
	case DestinationChatInline:
		return ext == ".pdf"
	default:
		return r.general[ext]
	}
}
