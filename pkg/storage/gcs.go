package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSParams defines parameters for NewGCSUploader
type GCSParams struct {
	Project  string // billing/quota project, optional
	Endpoint string // custom endpoint, i.e. a local emulator; disables authentication
}

// GCSUploader moves files between local disk and google cloud storage buckets.
// Made once per process and released with Close.
type GCSUploader struct {
	client *gcs.Client
}

// NewGCSUploader makes a storage client with application default credentials
func NewGCSUploader(ctx context.Context, params GCSParams) (*GCSUploader, error) {
	var opts []option.ClientOption
	if params.Project != "" {
		opts = append(opts, option.WithQuotaProject(params.Project))
	}
	if params.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(params.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("make storage client: %w", err)
	}
	return &GCSUploader{client: client}, nil
}

// Upload copies a local file to bucket/key
func (u *GCSUploader) Upload(ctx context.Context, bucket, localPath, key string) error {
	f, err := os.Open(localPath) //nolint:gosec // path made by the writer
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	obj := u.client.Bucket(bucket).Object(key)
	return writeObject(ctx, func(ctx context.Context) io.WriteCloser {
		w := obj.NewWriter(ctx)
		w.ContentType = "application/json"
		return w
	}, f, key)
}

// writeObject copies src into the writer made by newWriter. On copy failure the writer's
// context is canceled instead of closing it, so no partial object is committed.
func writeObject(ctx context.Context, newWriter func(ctx context.Context) io.WriteCloser, src io.Reader, key string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := newWriter(ctx)
	if _, err := io.Copy(w, src); err != nil {
		cancel()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", key, err)
	}
	return nil
}

// Download copies bucket/key to a local file, creating its folder if needed
func (u *GCSUploader) Download(ctx context.Context, bucket, key, localPath string) error {
	r, err := u.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open object %s: %w", key, err)
	}
	defer r.Close()

	if err := saveFile(localPath, r); err != nil {
		return fmt.Errorf("read object %s: %w", key, err)
	}
	return nil
}

// saveFile writes src to localPath, a partially written file is removed on failure
func saveFile(localPath string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return fmt.Errorf("create folder for %s: %w", localPath, err)
	}
	f, err := os.Create(localPath) //nolint:gosec // path comes from cli
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("copy to %s: %w", localPath, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(localPath)
		return fmt.Errorf("close %s: %w", localPath, err)
	}
	return nil
}

// Close releases the storage client
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
