package storage

import (
	"context"
	"fmt"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
)

// BlobStore writes output files to an object-store bucket.
type BlobStore struct {
	bucket    *blob.Bucket
	bucketURL string
	prefix    string
}

// NewBlobStore opens the bucket at the given URL.
func NewBlobStore(bucketURL, prefix string) (*BlobStore, error) {
	ctx := context.Background()

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}

	return &BlobStore{
		bucket:    bucket,
		bucketURL: bucketURL,
		prefix:    prefix,
	}, nil
}

// Write uploads data under the prefixed key.
func (s *BlobStore) Write(ctx context.Context, key string, data []byte) error {
	path := s.prefix + key

	w, err := s.bucket.NewWriter(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", path, err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write data to %s: %w", path, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", path, err)
	}

	return nil
}

// Exists checks if the key already holds an object.
func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, s.prefix+key)
}

// URI returns the bucket URL joined with the key.
func (s *BlobStore) URI(key string) string {
	return strings.TrimSuffix(s.bucketURL, "/") + "/" + s.prefix + key
}

// Close releases the bucket handle.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
