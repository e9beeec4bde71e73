package storage

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestValidateFile(t *testing.T) {
	data, mime, err := ValidateFile(bytes.NewReader(pngBytes(t)), CategoryReport, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.NotEmpty(t, data)

	_, _, err = ValidateFile(strings.NewReader("plain text"), CategoryReport, 1024)
	assert.ErrorIs(t, err, ErrInvalidMimeType)

	_, _, err = ValidateFile(bytes.NewReader(nil), CategoryReport, 1024)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, _, err = ValidateFile(bytes.NewReader(pngBytes(t)), CategoryReport, 8)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)

	key := "reports/abc/photo.png"
	require.NoError(t, s.Put(ctx, key, bytes.NewReader([]byte("x")), "image/png"))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:8080/uploads/reports/abc/photo.png", s.GetURL(key))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorageKeepsKeysInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base, "/uploads")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "../escape.txt", strings.NewReader("x"), "text/plain"))
	ok, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)

}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/k.jpg", objectURL("https://cdn.example.com", "", "report-images", "k.jpg"))
	assert.Equal(t, "http://minio:9000/report-images/k.jpg", objectURL("", "http://minio:9000", "report-images", "k.jpg"))
	assert.Equal(t, "https://report-images.s3.amazonaws.com/k.jpg", objectURL("", "", "report-images", "k.jpg"))
	assert.Contains(t, PublicReadPolicy("report-images"), "arn:aws:s3:::report-images/*")
}
