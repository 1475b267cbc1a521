package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	return NewLocalProvider(dir), dir
}

func TestLocalProvider_PutObject(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	bucket := "reviews"
	key := "uploads/" + uuid.NewString() + "/reviews.txt"
	content := []byte("great product\nterrible support\n")

	err := provider.PutObject(context.Background(), bucket, key, bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, bucket, key))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalProvider_CreateBucket(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	bucket := "reviews"
	err := provider.CreateBucket(context.Background(), bucket)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(baseDir, bucket))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalProvider_GetObject(t *testing.T) {
	provider, _ := setupTestProvider(t)

	bucket := "reviews"
	key := "uploads/" + uuid.NewString() + "/reviews.csv"
	content := []byte("review\ngood stuff\n")

	require.NoError(t, provider.PutObject(context.Background(), bucket, key, bytes.NewReader(content)))

	data, err := provider.GetObject(context.Background(), bucket, key)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = provider.GetObject(context.Background(), bucket, "uploads/missing/reviews.csv")
	assert.Error(t, err)
}

func TestLocalProvider_GetObjectStream(t *testing.T) {
	provider, _ := setupTestProvider(t)

	bucket := "reviews"
	key := "uploads/" + uuid.NewString() + "/reviews.txt"
	content := []byte("line one\nline two\n")

	require.NoError(t, provider.PutObject(context.Background(), bucket, key, bytes.NewReader(content)))

	stream, err := provider.GetObjectStream(bucket, key)
	require.NoError(t, err)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalProvider_ListObjects(t *testing.T) {
	provider, _ := setupTestProvider(t)

	bucket := "reviews"
	taskId := uuid.NewString()

	keys := []string{
		"uploads/" + taskId + "/reviews.csv",
		"uploads/" + taskId + "/extra.txt",
		"uploads/other/reviews.json",
	}
	for _, key := range keys {
		require.NoError(t, provider.PutObject(context.Background(), bucket, key, bytes.NewReader([]byte("content"))))
	}

	objects, err := provider.ListObjects(context.Background(), bucket, "uploads/"+taskId+"/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	for _, obj := range objects {
		assert.Contains(t, obj.Name, "uploads/"+taskId+"/")
		assert.Equal(t, int64(len("content")), obj.Size)
	}

	all, err := provider.ListObjects(context.Background(), bucket, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
