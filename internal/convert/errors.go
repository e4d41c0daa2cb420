package convert

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FileNotFoundError indicates the input path does not resolve to a file.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// EmptyFileError indicates a zero-byte input.
type EmptyFileError struct {
	Path string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("file is empty: %s", e.Path)
}

// FileTooLargeError carries both the actual and maximum size so callers can
// render an exact message without re-deriving byte counts.
type FileTooLargeError struct {
	Actual int64
	Max    int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file is too large: %s exceeds the %s limit by %s",
		humanize.IBytes(uint64(e.Actual)),
		humanize.IBytes(uint64(e.Max)),
		humanize.IBytes(uint64(e.Actual-e.Max)))
}

// ReadError indicates an I/O failure mid-read (permissions, corruption).
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("unable to read file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ConversionFailedError indicates a strategy-specific failure. Fatal for
// this file only; batch siblings keep processing.
type ConversionFailedError struct {
	Path     string
	Strategy string
	Reason   string
	Err      error
}

func (e *ConversionFailedError) Error() string {
	msg := fmt.Sprintf("conversion failed for %s", e.Path)
	if e.Strategy != "" {
		msg += fmt.Sprintf(" (strategy: %s)", e.Strategy)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ConversionFailedError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError is a defensive terminal case. Unknown types fall to
// the binary-metadata strategy, so in practice this is unreachable.
type UnsupportedTypeError struct {
	Ext string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}
