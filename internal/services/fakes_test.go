package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/legallense/docpipeline/internal/store"
)

// --- fake blob store ---

type fakeBlobStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	failGet      func(bucket, key string) error
	failPut      func(bucket, key string) error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func blobKey(bucket, key string) string {
	return bucket + "/" + key
}

func (f *fakeBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		if err := f.failGet(bucket, key); err != nil {
			return nil, err
		}
	}
	data, ok := f.objects[blobKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object gs://%s/%s does not exist", bucket, key)
	}
	return data, nil
}

func (f *fakeBlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut != nil {
		if err := f.failPut(bucket, key); err != nil {
			return "", err
		}
	}
	f.objects[blobKey(bucket, key)] = append([]byte(nil), data...)
	f.contentTypes[blobKey(bucket, key)] = contentType
	return store.Locator(bucket, key), nil
}

func (f *fakeBlobStore) object(bucket, key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[blobKey(bucket, key)]
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// --- fake record store ---

type fakeRecordStore struct {
	mu         sync.Mutex
	docs       map[string]map[string]any
	failUpsert func(collection, id string) error
	failUpdate func(collection, id string) error
	failGet    func(collection, id string) error
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{docs: make(map[string]map[string]any)}
}

func docKey(collection, id string) string {
	return collection + "/" + id
}

// resolveSentinels substitutes wall time for the server timestamp sentinel,
// like the real store does server side.
func resolveSentinels(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == store.ServerTimestamp {
			out[k] = time.Now()
			continue
		}
		out[k] = v
	}
	return out
}

func (f *fakeRecordStore) UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert != nil {
		if err := f.failUpsert(collection, id); err != nil {
			return err
		}
	}
	doc, ok := f.docs[docKey(collection, id)]
	if !ok {
		doc = make(map[string]any)
		f.docs[docKey(collection, id)] = doc
	}
	for k, v := range resolveSentinels(fields) {
		doc[k] = v
	}
	return nil
}

func (f *fakeRecordStore) UpdateExisting(ctx context.Context, collection, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		if err := f.failUpdate(collection, id); err != nil {
			return err
		}
	}
	doc, ok := f.docs[docKey(collection, id)]
	if !ok {
		return fmt.Errorf("no document to update: %s/%s", collection, id)
	}
	for k, v := range resolveSentinels(fields) {
		doc[k] = v
	}
	return nil
}

func (f *fakeRecordStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		if err := f.failGet(collection, id); err != nil {
			return nil, err
		}
	}
	doc, ok := f.docs[docKey(collection, id)]
	if !ok {
		return nil, fmt.Errorf("document %s/%s does not exist", collection, id)
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRecordStore) doc(collection, id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[docKey(collection, id)]
}

func (f *fakeRecordStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// --- fake extractor ---

type fakeExtractor struct {
	pages []string
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// --- fake notifier ---

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	err      error
}

func (f *fakeNotifier) Notify(ctx context.Context, docID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, docID)
	return nil
}
