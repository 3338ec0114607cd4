package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"avatar-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFile(path string) models.UploadedFile {
	return models.UploadedFile{
		Path:        path,
		Name:        "doc.txt",
		ContentType: "text/plain",
		UploadedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileIndexUpsertAndList(t *testing.T) {
	index := NewFileIndexStore(newMemBlobStore())

	require.NoError(t, index.Upsert(testFile("uploads/a")))
	require.NoError(t, index.Upsert(testFile("uploads/b")))

	files, err := index.List()
	require.NoError(t, err)
	require.Len(t, files, 2)

	// Upserting an existing path replaces, not duplicates.
	updated := testFile("uploads/a")
	updated.Tags = []string{"new"}
	require.NoError(t, index.Upsert(updated))

	files, err = index.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, []string{"new"}, files[0].Tags)
}

func TestFileIndexRemove(t *testing.T) {
	index := NewFileIndexStore(newMemBlobStore())
	require.NoError(t, index.Upsert(testFile("uploads/a")))

	require.NoError(t, index.Remove("uploads/a"))
	require.NoError(t, index.Remove("uploads/a")) // idempotent

	files, err := index.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileIndexVersionBumpsOnEveryWrite(t *testing.T) {
	blobs := newMemBlobStore()
	index := NewFileIndexStore(blobs)

	require.NoError(t, index.Upsert(testFile("uploads/a")))
	require.NoError(t, index.Upsert(testFile("uploads/b")))
	require.NoError(t, index.Remove("uploads/a"))

	data, err := blobs.Get(indexKey)
	require.NoError(t, err)
	var stored models.FileIndex
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, 3, stored.Version)
}

func TestFileIndexDetectsExternalWriter(t *testing.T) {
	blobs := newMemBlobStore()
	index := NewFileIndexStore(blobs)
	require.NoError(t, index.Upsert(testFile("uploads/a")))

	// The next Upsert reads the document twice: once to modify it and once for
	// the CAS check inside save. Sneak a newer version in between the two reads,
	// as an external writer would.
	firstLoadSeen := false
	blobs.getHook = func(key string, _ int) {
		if key != indexKey {
			return
		}
		if !firstLoadSeen {
			firstLoadSeen = true
			return
		}
		blobs.getHook = nil
		data, _ := json.Marshal(models.FileIndex{Version: 7})
		blobs.data[indexKey] = data
	}

	err := index.Upsert(testFile("uploads/b"))
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestFileIndexConcurrentUpserts(t *testing.T) {
	index := NewFileIndexStore(newMemBlobStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, index.Upsert(testFile(fmt.Sprintf("uploads/%d", i))))
		}(i)
	}
	wg.Wait()

	files, err := index.List()
	require.NoError(t, err)
	assert.Len(t, files, 10)
}
