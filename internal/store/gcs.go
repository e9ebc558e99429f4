package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSBlobStore implements BlobStore on top of Cloud Storage.
type GCSBlobStore struct {
	client *storage.Client
}

// NewGCSBlobStore wraps an existing storage client.
func NewGCSBlobStore(client *storage.Client) *GCSBlobStore {
	return &GCSBlobStore{client: client}
}

func (s *GCSBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *GCSBlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	writer := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write to GCS object gs://%s/%s: %w", bucket, key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize GCS write for gs://%s/%s: %w", bucket, key, err)
	}
	return Locator(bucket, key), nil
}
