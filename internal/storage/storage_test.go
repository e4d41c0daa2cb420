package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openresponses/fileprep/internal/classify"
)

func TestOutputStore_UploadAndDedup(t *testing.T) {
	fs := NewMemMapFileSystem()
	store, err := NewOutputStore(OutputConfig{
		BasePath:   "/output",
		FileSystem: fs,
	})
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte("converted content")

	uri, err := store.Upload(ctx, payload, "doc_PDFExtract.txt", classify.DestinationGeneral)
	require.NoError(t, err)
	assert.Contains(t, uri, "file://")

	// Same content deduplicates to the same handle.
	uri2, err := store.Upload(ctx, payload, "other_name.txt", classify.DestinationGeneral)
	require.NoError(t, err)
	assert.Equal(t, uri, uri2)

	// Different content gets a different handle.
	uri3, err := store.Upload(ctx, []byte("different"), "doc.txt", classify.DestinationGeneral)
	require.NoError(t, err)
	assert.NotEqual(t, uri, uri3)
}

func TestOutputStore_CreatesDestinationDirs(t *testing.T) {
	fs := NewMemMapFileSystem()
	_, err := NewOutputStore(OutputConfig{
		BasePath:   "/out",
		FileSystem: fs,
	})
	require.NoError(t, err)

	for _, dir := range []string{"/out/general", "/out/vector-store", "/out/chat-inline"} {
		info, err := fs.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}

func TestContentID_Deterministic(t *testing.T) {
	a := ContentID([]byte("hello"))
	b := ContentID([]byte("hello"))
	c := ContentID([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestIndexStore_AcceptsConvertedText(t *testing.T) {
	store, err := NewIndexStore(IndexConfig{
		Rules: classify.DefaultRuleset(),
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	uri, err := store.Upload(ctx, []byte("quarterly revenue grew by twelve percent"), "report_PDFExtract.txt", classify.DestinationVectorStore)
	require.NoError(t, err)
	assert.Contains(t, uri, "index://")

	ids, err := store.Search("revenue", 10)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

// The index store enforces the same extension contract as the real
// destination: raw CSV is rejected, so the pipeline must summarize first.
func TestIndexStore_RejectsRawCSV(t *testing.T) {
	store, err := NewIndexStore(IndexConfig{
		Rules: classify.DefaultRuleset(),
	})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Upload(context.Background(), []byte("a,b,c\n1,2,3\n"), "data.csv", classify.DestinationVectorStore)
	require.Error(t, err)

	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
}
