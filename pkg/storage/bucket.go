package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/newsfeeder/pkg/domain"
)

// Uploader puts a local file into a bucket under the given object key
type Uploader interface {
	Upload(ctx context.Context, bucket, localPath, key string) error
}

// BucketWriter stores records in an object-storage bucket.
// Each record goes through a local temp file, which is removed only after a successful upload.
type BucketWriter struct {
	Bucket   string
	TempDir  string // os.TempDir() if empty
	Uploader Uploader
	Retries  int           // upload attempts, 3 if zero
	Delay    time.Duration // initial backoff delay, 500ms if zero
}

// Write uploads the record and returns its gs:// location. On upload failure the temp file
// is kept and its path is a part of the returned error.
func (w *BucketWriter) Write(ctx context.Context, rec domain.ArticleRecord) (string, error) {
	tmpDir := w.TempDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if err := os.MkdirAll(tmpDir, 0o750); err != nil {
		return "", fmt.Errorf("create temp folder %s: %w", tmpDir, err)
	}

	key := fileName()
	path, err := writeFile(tmpDir, key, rec)
	if err != nil {
		return "", err
	}

	retries, delay := w.Retries, w.Delay
	if retries <= 0 {
		retries = 3
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	retrier := repeater.NewBackoff(retries, delay, repeater.WithMaxDelay(10*time.Second))
	err = retrier.Do(ctx, func() error {
		return w.Uploader.Upload(ctx, w.Bucket, path, key)
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s, kept local copy %s: %w", key, w.Bucket, path, err)
	}

	if err := os.Remove(path); err != nil {
		lgr.Printf("[WARN] failed to remove temp file %s: %v", path, err)
	}
	lgr.Printf("[DEBUG] file %s uploaded to %s", path, key)
	return fmt.Sprintf("gs://%s/%s", w.Bucket, key), nil
}
