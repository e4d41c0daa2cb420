package storage

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/openresponses/fileprep/internal/classify"
)

// StorageError represents a storage-related failure
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage error during %s", e.Operation)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsRetryable indicates if this storage error is retryable. Storage errors
// are typically transient (I/O issues, locks, permissions).
func (e *StorageError) IsRetryable() bool {
	return true
}

// OutputConfig holds configuration for the output store.
type OutputConfig struct {
	BasePath   string
	Logger     *slog.Logger // Optional: custom logger
	FileSystem FileSystem   // Optional: custom filesystem (defaults to OS filesystem)
}

// OutputStore persists converted payloads under content-hash names, one
// subdirectory per destination. It is the local reference implementation of
// the upload capability for the general destination: deduplicated,
// deterministic, and safe to call concurrently from batch workers (writes
// are whole-file and content-addressed, so duplicate writes are idempotent).
type OutputStore struct {
	basePath string
	logger   *slog.Logger
	fs       FileSystem
}

// NewOutputStore creates an output store rooted at config.BasePath.
func NewOutputStore(config OutputConfig) (*OutputStore, error) {
	ctx := context.Background()

	if config.BasePath == "" {
		config.BasePath = "./output"
	}
	if config.FileSystem == nil {
		config.FileSystem = NewOSFileSystem()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, dest := range []classify.Destination{
		classify.DestinationGeneral,
		classify.DestinationVectorStore,
		classify.DestinationChatInline,
	} {
		path := filepath.Join(config.BasePath, dest.String())
		if err := config.FileSystem.MkdirAll(path, 0755); err != nil {
			config.Logger.ErrorContext(ctx, "failed to create output directory",
				"error", err,
				"path", path,
				"operation", "init",
			)
			return nil, &StorageError{
				Operation: "init - create directory",
				Path:      path,
				Err:       err,
			}
		}
	}

	config.Logger.InfoContext(ctx, "output store initialized",
		"base_path", config.BasePath,
	)

	return &OutputStore{
		basePath: config.BasePath,
		logger:   config.Logger,
		fs:       config.FileSystem,
	}, nil
}

// DestPath returns the storage directory for a destination.
func (s *OutputStore) DestPath(dest classify.Destination) string {
	return filepath.Join(s.basePath, dest.String())
}

// ContentID returns the hex-encoded SHA-256 of content, used for
// deterministic, deduplicating payload names.
func ContentID(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf("%x", hash)
}

// Upload stores a converted payload and returns a file:// handle. Payloads
// with identical content deduplicate to the same handle.
func (s *OutputStore) Upload(ctx context.Context, data []byte, filename string, dest classify.Destination) (string, error) {
	id := ContentID(data)

	ext := filepath.Ext(filename)
	path := filepath.Join(s.DestPath(dest), id+ext)

	if _, err := s.fs.Stat(path); err == nil {
		s.logger.DebugContext(ctx, "payload already stored (deduplication)",
			"destination", dest.String(),
			"id", id,
			"path", path,
		)
		return "file://" + id, nil
	}

	if err := s.fs.WriteFile(path, data, 0644); err != nil {
		s.logger.ErrorContext(ctx, "failed to store payload",
			"error", err,
			"destination", dest.String(),
			"id", id,
			"path", path,
			"operation", "upload",
		)
		return "", &StorageError{
			Operation: "store payload",
			Path:      path,
			Err:       err,
		}
	}

	s.logger.InfoContext(ctx, "payload stored",
		"destination", dest.String(),
		"id", id,
		"filename", filename,
		"size", len(data),
	)

	return "file://" + id, nil
}
