package store

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
)

// FirestoreRecordStore implements RecordStore on top of Firestore.
type FirestoreRecordStore struct {
	client *firestore.Client
}

// NewFirestoreRecordStore wraps an existing Firestore client.
func NewFirestoreRecordStore(client *firestore.Client) *FirestoreRecordStore {
	return &FirestoreRecordStore{client: client}
}

func (s *FirestoreRecordStore) UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, translateSentinels(fields), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreRecordStore) UpdateExisting(ctx context.Context, collection, id string, fields map[string]any) error {
	translated := translateSentinels(fields)

	// Sort the paths so update order is deterministic.
	paths := make([]string, 0, len(translated))
	for path := range translated {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	updates := make([]firestore.Update, 0, len(paths))
	for _, path := range paths {
		updates = append(updates, firestore.Update{Path: path, Value: translated[path]})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreRecordStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return snap.Data(), nil
}

// translateSentinels maps the store-agnostic ServerTimestamp sentinel to
// Firestore's server timestamp value.
func translateSentinels(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
