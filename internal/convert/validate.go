package convert

import (
	"os"

	"github.com/openresponses/fileprep/internal/storage"
)

// ValidateFile checks existence, non-emptiness and the size ceiling before
// any conversion work begins. Fail-fast: an oversized file is rejected
// before a single page is parsed or OCR'd.
func ValidateFile(fs storage.FileSystem, path string, maxSize int64) error {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileNotFoundError{Path: path}
		}
		return &ReadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &FileNotFoundError{Path: path}
	}
	if info.Size() == 0 {
		return &EmptyFileError{Path: path}
	}
	if info.Size() > maxSize {
		return &FileTooLargeError{Actual: info.Size(), Max: maxSize}
	}
	return nil
}
