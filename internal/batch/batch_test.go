package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openresponses/fileprep/internal/classify"
	"github.com/openresponses/fileprep/internal/convert"
	"github.com/openresponses/fileprep/internal/storage"
)

// recordingUploader stores uploads in memory and can be scripted to fail a
// fixed number of times per filename.
type recordingUploader struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	failures  map[string]int // remaining failures per filename
	retryable bool
	calls     int
}

func newRecordingUploader() *recordingUploader {
	return &recordingUploader{
		uploads:  make(map[string][]byte),
		failures: make(map[string]int),
	}
}

func (u *recordingUploader) Upload(ctx context.Context, data []byte, filename string, dest classify.Destination) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++

	if n := u.failures[filename]; n > 0 {
		u.failures[filename] = n - 1
		if u.retryable {
			return "", &storage.StorageError{Operation: "write", Path: filename, Err: errors.New("transient")}
		}
		return "", errors.New("permanent upload failure")
	}

	u.uploads[filename] = data
	return "mem://" + filename, nil
}

func newTestRunner(t *testing.T, fs storage.FileSystem, uploader Uploader) *Runner {
	t.Helper()
	service := convert.NewService(convert.Config{FileSystem: fs})
	return NewRunner(RunnerConfig{
		Service:  service,
		Uploader: uploader,
		Retry:    RetryConfig{MaxAttempts: 3, BaseDelay: 0, MaxDelay: 0},
	})
}

// A missing third file must not stop files four and five from converting.
func TestRun_ContinuesPastFailures(t *testing.T) {
	fs := storage.NewMemMapFileSystem()
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = fmt.Sprintf("/in/doc%d.txt", i)
		if i == 2 {
			continue // the corrupt slot: never written
		}
		require.NoError(t, fs.WriteFile(paths[i], []byte(fmt.Sprintf("document %d", i)), 0644))
	}

	uploader := newRecordingUploader()
	runner := newTestRunner(t, fs, uploader)

	summary := runner.Run(context.Background(), paths, classify.DestinationGeneral)

	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Outcomes, 5)

	// Outcomes keep input order regardless of completion order.
	for i, o := range summary.Outcomes {
		assert.Equal(t, paths[i], o.Path)
	}

	failed := summary.Outcomes[2]
	var notFound *convert.FileNotFoundError
	require.ErrorAs(t, failed.Err, &notFound)
	assert.Nil(t, failed.Result)
	assert.Empty(t, failed.Handle)

	for i, o := range summary.Outcomes {
		if i == 2 {
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, "mem://"+o.Result.Filename, o.Handle)
	}
	assert.Len(t, uploader.uploads, 4)
}

func TestRun_WithoutUploader(t *testing.T) {
	fs := storage.NewMemMapFileSystem()
	require.NoError(t, fs.WriteFile("/in/a.txt", []byte("alpha"), 0644))

	runner := newTestRunner(t, fs, nil)
	summary := runner.Run(context.Background(), []string{"/in/a.txt"}, classify.DestinationGeneral)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, summary.Outcomes[0].Handle)
	assert.NotNil(t, summary.Outcomes[0].Result)
}

func TestRun_RetriesTransientUploadFailures(t *testing.T) {
	fs := storage.NewMemMapFileSystem()
	require.NoError(t, fs.WriteFile("/in/a.txt", []byte("alpha"), 0644))

	uploader := newRecordingUploader()
	uploader.retryable = true
	uploader.failures["a.txt"] = 2 // fails twice, succeeds on the third try

	runner := newTestRunner(t, fs, uploader)
	summary := runner.Run(context.Background(), []string{"/in/a.txt"}, classify.DestinationGeneral)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, "mem://a.txt", summary.Outcomes[0].Handle)
	assert.Equal(t, 3, uploader.calls)
}

func TestRun_DoesNotRetryPermanentUploadFailures(t *testing.T) {
	fs := storage.NewMemMapFileSystem()
	require.NoError(t, fs.WriteFile("/in/a.txt", []byte("alpha"), 0644))

	uploader := newRecordingUploader()
	uploader.retryable = false
	uploader.failures["a.txt"] = 1

	runner := newTestRunner(t, fs, uploader)
	summary := runner.Run(context.Background(), []string{"/in/a.txt"}, classify.DestinationGeneral)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, uploader.calls)
	assert.NotNil(t, summary.Outcomes[0].Result, "conversion succeeded; only the upload failed")
}

// Many small files across a low concurrency limit: every slot is written
// exactly once and nothing is lost or duplicated.
func TestRun_BoundedConcurrency(t *testing.T) {
	fs := storage.NewMemMapFileSystem()
	paths := make([]string, 50)
	for i := range paths {
		paths[i] = fmt.Sprintf("/in/f%02d.txt", i)
		require.NoError(t, fs.WriteFile(paths[i], []byte(fmt.Sprintf("content %d", i)), 0644))
	}

	uploader := newRecordingUploader()
	service := convert.NewService(convert.Config{FileSystem: fs})
	runner := NewRunner(RunnerConfig{
		Service:     service,
		Uploader:    uploader,
		Concurrency: 3,
		Retry:       RetryConfig{MaxAttempts: 1},
	})

	summary := runner.Run(context.Background(), paths, classify.DestinationGeneral)

	assert.Equal(t, 50, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, uploader.uploads, 50)
}
