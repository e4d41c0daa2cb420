package storage

import (
	"os"

	"github.com/spf13/afero"
)

// FileSystem is the filesystem surface the pipeline depends on. Backed by
// afero so conversion and storage logic run unchanged against the OS
// filesystem in production and an in-memory filesystem in tests.
type FileSystem interface {
	// Open opens a file for reading. The returned file supports ReadAt and
	// Seek, which the PDF readers require.
	Open(name string) (afero.File, error)
	// Stat returns a FileInfo describing the named file
	Stat(name string) (os.FileInfo, error)
	// ReadFile reads the file and returns its contents
	ReadFile(name string) ([]byte, error)
	// WriteFile writes data to a file
	WriteFile(name string, data []byte, perm os.FileMode) error
	// MkdirAll creates a directory and any necessary parent directories
	MkdirAll(path string, perm os.FileMode) error
	// ReadDir reads a directory and returns a list of DirEntry
	ReadDir(name string) ([]os.DirEntry, error)
	// Remove removes a named file or directory
	Remove(name string) error
	// RemoveAll removes a named directory and any children it contains
	RemoveAll(path string) error
}

// aferoFileSystem adapts an afero.Fs to the FileSystem interface.
type aferoFileSystem struct {
	fs afero.Fs
}

func (fs *aferoFileSystem) Open(name string) (afero.File, error) {
	return fs.fs.Open(name)
}

func (fs *aferoFileSystem) Stat(name string) (os.FileInfo, error) {
	return fs.fs.Stat(name)
}

func (fs *aferoFileSystem) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(fs.fs, name)
}

func (fs *aferoFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(fs.fs, name, data, perm)
}

func (fs *aferoFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return fs.fs.MkdirAll(path, perm)
}

func (fs *aferoFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	entries, err := afero.ReadDir(fs.fs, name)
	if err != nil {
		return nil, err
	}

	dirEntries := make([]os.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = &aferoDirEntry{info: entry}
	}
	return dirEntries, nil
}

func (fs *aferoFileSystem) Remove(name string) error {
	return fs.fs.Remove(name)
}

func (fs *aferoFileSystem) RemoveAll(path string) error {
	return fs.fs.RemoveAll(path)
}

// aferoDirEntry implements os.DirEntry using afero's os.FileInfo
type aferoDirEntry struct {
	info os.FileInfo
}

func (e *aferoDirEntry) Name() string               { return e.info.Name() }
func (e *aferoDirEntry) IsDir() bool                { return e.info.IsDir() }
func (e *aferoDirEntry) Type() os.FileMode          { return e.info.Mode().Type() }
func (e *aferoDirEntry) Info() (os.FileInfo, error) { return e.info, nil }

// NewOSFileSystem returns a FileSystem that uses the actual OS filesystem
func NewOSFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewOsFs()}
}

// NewMemMapFileSystem returns a FileSystem backed by afero's in-memory filesystem
func NewMemMapFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewMemMapFs()}
}

// NewAferoFileSystem wraps an afero.Fs in the FileSystem interface
func NewAferoFileSystem(fs afero.Fs) FileSystem {
	return &aferoFileSystem{fs: fs}
}
