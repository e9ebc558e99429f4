// Package store abstracts the two storage systems the pipeline writes to:
// a blob store for derived artifacts and a document store for status records.
package store

import (
	"context"
	"fmt"
	"strings"
)

// BlobStore is key-value byte storage addressed by (bucket, key).
type BlobStore interface {
	// Get returns the full contents of the object.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put writes the object, overwriting any existing content at the key,
	// and returns its locator.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

// RecordStore is a document database supporting upsert-with-merge and
// field-level updates on records keyed by an identifier.
type RecordStore interface {
	// UpsertMerge creates the record or merges the given fields into it,
	// preserving fields not named.
	UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error
	// UpdateExisting updates fields on a record that must already exist.
	UpdateExisting(ctx context.Context, collection, id string, fields map[string]any) error
	// Get returns the record's fields.
	Get(ctx context.Context, collection, id string) (map[string]any, error)
}

// serverTimestamp is the type of the ServerTimestamp sentinel.
type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value that the record store replaces
// with a store-assigned timestamp at write time.
var ServerTimestamp = serverTimestamp{}

// Locator formats a blob reference as gs://{bucket}/{key}.
func Locator(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}

// ParseLocator splits a gs://{bucket}/{key} locator back into its parts.
func ParseLocator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "gs://")
	if !ok {
		return "", "", fmt.Errorf("locator %q does not start with gs://", locator)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("locator %q is missing a bucket or object name", locator)
	}
	return bucket, key, nil
}
