package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/openresponses/fileprep/internal/classify"
)

// indexedDocument is the shape stored in the full-text index.
type indexedDocument struct {
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	IndexedAt time.Time `json:"indexed_at"`
}

// IndexStore is the local reference implementation of the vector-store
// upload capability: a full-text index that, like the real destination,
// accepts only its allow-listed extensions and performs no extraction of
// its own. Feeding it a raw PDF or CSV fails exactly the way the production
// indexer would, which is what the destination-aware router exists to
// prevent.
type IndexStore struct {
	mu     sync.Mutex
	index  bleve.Index
	rules  classify.Ruleset
	logger *slog.Logger
}

// IndexConfig holds configuration for the index store.
type IndexConfig struct {
	Path   string           // index directory; empty means in-memory
	Rules  classify.Ruleset // extension contract to enforce
	Logger *slog.Logger
}

// NewIndexStore opens (or creates) a bleve index at config.Path.
func NewIndexStore(config IndexConfig) (*IndexStore, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var index bleve.Index
	var err error
	if config.Path == "" {
		index, err = bleve.NewMemOnly(bleve.NewIndexMapping())
	} else {
		index, err = bleve.Open(config.Path)
		if err != nil {
			index, err = bleve.New(config.Path, bleve.NewIndexMapping())
		}
	}
	if err != nil {
		return nil, &StorageError{
			Operation: "open index",
			Path:      config.Path,
			Err:       err,
		}
	}

	return &IndexStore{
		index:  index,
		rules:  config.Rules,
		logger: config.Logger,
	}, nil
}

// Upload indexes a converted payload and returns an index:// handle.
// Payloads whose extension is outside the vector-store allow-list are
// rejected; the pipeline is expected to have converted them first.
func (s *IndexStore) Upload(ctx context.Context, data []byte, filename string, dest classify.Destination) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.rules.SupportedByDestination(ext, classify.DestinationVectorStore) {
		return "", &StorageError{
			Operation: "index payload",
			Path:      filename,
			Err:       fmt.Errorf("extension %s not accepted by vector-store destination", ext),
		}
	}

	id := ContentID(data)
	doc := indexedDocument{
		Filename:  filename,
		Content:   string(data),
		IndexedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	err := s.index.Index(id, doc)
	s.mu.Unlock()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to index payload",
			"error", err,
			"filename", filename,
			"id", id,
		)
		return "", &StorageError{
			Operation: "index payload",
			Path:      filename,
			Err:       err,
		}
	}

	s.logger.InfoContext(ctx, "payload indexed",
		"filename", filename,
		"id", id,
		"size", len(data),
	)

	return "index://" + id, nil
}

// Search runs a match query over indexed content. Exposed so callers can
// verify converted documents are actually searchable.
func (s *IndexStore) Search(query string, limit int) ([]string, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit

	res, err := s.index.Search(req)
	if err != nil {
		return nil, &StorageError{Operation: "search", Err: err}
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Close releases the underlying index.
func (s *IndexStore) Close() error {
	return s.index.Close()
}
