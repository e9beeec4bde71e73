package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minewatch/minewatch-api/internal/pkg/imaging"
	"github.com/minewatch/minewatch-api/internal/pkg/storage"
)

// PhotoUploader stores report photos and returns their public URLs
type PhotoUploader interface {
	Upload(ctx context.Context, photos []PhotoFile) ([]string, error)
	// Remove deletes photos stored by a failed submission.
	Remove(ctx context.Context, urls []string)
}

// StoragePhotoUploader resizes photos and writes them to object storage
type StoragePhotoUploader struct {
	store     storage.Storage
	processor *imaging.Processor
	maxBytes  int64
	now       func() time.Time
}

// NewPhotoUploader creates an uploader over store
func NewPhotoUploader(store storage.Storage, processor *imaging.Processor, maxBytes int64) *StoragePhotoUploader {
	return &StoragePhotoUploader{
		store:     store,
		processor: processor,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

// Upload stores photos in order. On failure, photos already stored by this call are removed.
func (u *StoragePhotoUploader) Upload(ctx context.Context, photos []PhotoFile) ([]string, error) {
	urls := make([]string, 0, len(photos))
	keys := make([]string, 0, len(photos))

	for _, p := range photos {
		data, mimeType, err := storage.ValidateFile(bytes.NewReader(p.Data), storage.CategoryReport, u.maxBytes)
		if err != nil {
			u.removeKeys(ctx, keys)
			return nil, fmt.Errorf("validate %s: %w", p.Filename, err)
		}

		processed, err := u.processor.Process(data, mimeType)
		if err != nil {
			u.removeKeys(ctx, keys)
			return nil, fmt.Errorf("process %s: %w", p.Filename, err)
		}

		key := u.objectKey(processed.ContentType)
		if err := u.store.Put(ctx, key, bytes.NewReader(processed.Data), processed.ContentType); err != nil {
			u.removeKeys(ctx, keys)
			return nil, err
		}

		keys = append(keys, key)
		urls = append(urls, u.store.GetURL(key))
	}

	return urls, nil
}

// Remove deletes photos by URL, ignoring URLs this store did not produce
func (u *StoragePhotoUploader) Remove(ctx context.Context, urls []string) {
	keys := make([]string, 0, len(urls))
	for _, url := range urls {
		if key, ok := u.keyForURL(url); ok {
			keys = append(keys, key)
		}
	}
	u.removeKeys(ctx, keys)
}

func (u *StoragePhotoUploader) objectKey(contentType string) string {
	now := u.now().UTC()
	return fmt.Sprintf("reports/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), storage.GetExtensionForMime(contentType))
}

func (u *StoragePhotoUploader) keyForURL(url string) (string, bool) {
	prefix := u.store.GetURL("")
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}

func (u *StoragePhotoUploader) removeKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := u.store.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned report photo")
		}
	}
}
