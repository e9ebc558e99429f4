package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/legallense/docpipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIngestConfig = IngestConfig{
	ResultsBucket:     "results-bucket",
	UploadsCollection: "uploads",
}

func seedUpload(t *testing.T, blobs *fakeBlobStore, name, content string) {
	t.Helper()
	_, err := blobs.Put(context.Background(), "uploads-bucket", name, []byte(content), "application/pdf")
	require.NoError(t, err)
}

func TestIngest_Process(t *testing.T) {
	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	notifier := &fakeNotifier{}
	seedUpload(t, blobs, "uploads/contract.pdf", "contract body")
	ingest := NewIngest(blobs, records, notifier, testIngestConfig)

	err := ingest.Process(context.Background(), GCSEvent{Bucket: "uploads-bucket", Name: "uploads/contract.pdf"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"text_preview":"contract body"}`, string(blobs.object("results-bucket", "extracted/uploads/contract.pdf.json")))

	record := records.doc("uploads", "uploads/contract")
	require.NotNil(t, record)
	assert.Equal(t, models.StatusTextExtracted, record["status"])
	assert.Equal(t, "gs://uploads-bucket/uploads/contract.pdf", record["sourceLocator"])
	assert.Equal(t, "gs://results-bucket/extracted/uploads/contract.pdf.json", record["textPreviewLocator"])

	assert.Equal(t, []string{"uploads/contract"}, notifier.notified)
}

func TestIngest_ProcessTruncatesPreview(t *testing.T) {
	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	seedUpload(t, blobs, "big.pdf", strings.Repeat("y", 5000))
	ingest := NewIngest(blobs, records, nil, testIngestConfig)

	err := ingest.Process(context.Background(), GCSEvent{Bucket: "uploads-bucket", Name: "big.pdf"})
	require.NoError(t, err)

	preview := string(blobs.object("results-bucket", "extracted/big.pdf.json"))
	assert.Contains(t, preview, strings.Repeat("y", 1000))
	assert.NotContains(t, preview, strings.Repeat("y", 1001))
}

func TestIngest_ProcessNotificationFailureIsNotFatal(t *testing.T) {
	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	notifier := &fakeNotifier{err: fmt.Errorf("processor unreachable")}
	seedUpload(t, blobs, "contract.pdf", "body")
	ingest := NewIngest(blobs, records, notifier, testIngestConfig)

	// The trigger's success is defined solely by artifact and record
	// persistence.
	err := ingest.Process(context.Background(), GCSEvent{Bucket: "uploads-bucket", Name: "contract.pdf"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTextExtracted, records.doc("uploads", "contract")["status"])
}

func TestIngest_ProcessWithoutNotifier(t *testing.T) {
	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	seedUpload(t, blobs, "contract.pdf", "body")
	ingest := NewIngest(blobs, records, nil, testIngestConfig)

	err := ingest.Process(context.Background(), GCSEvent{Bucket: "uploads-bucket", Name: "contract.pdf"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTextExtracted, records.doc("uploads", "contract")["status"])
}

func TestIngest_ProcessIsIdempotent(t *testing.T) {
	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	seedUpload(t, blobs, "contract.pdf", "body")
	ingest := NewIngest(blobs, records, nil, testIngestConfig)

	event := GCSEvent{Bucket: "uploads-bucket", Name: "contract.pdf"}
	require.NoError(t, ingest.Process(context.Background(), event))
	blobCount := blobs.count()
	require.NoError(t, ingest.Process(context.Background(), event))

	assert.Equal(t, blobCount, blobs.count())
	assert.Equal(t, models.StatusTextExtracted, records.doc("uploads", "contract")["status"])
}

func TestIngest_ProcessMissingSource(t *testing.T) {
	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	ingest := NewIngest(blobs, records, nil, testIngestConfig)

	err := ingest.Process(context.Background(), GCSEvent{Bucket: "uploads-bucket", Name: "missing.pdf"})
	require.Error(t, err)
	assert.Zero(t, records.count())
}

func TestIngest_ProcessRejectsEmptyEvent(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(previous)

	blobs := newFakeBlobStore()
	records := newFakeRecordStore()
	ingest := NewIngest(blobs, records, nil, testIngestConfig)

	err := ingest.Process(context.Background(), GCSEvent{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, blobs.count())
	assert.Zero(t, records.count())

	// A rejected event is turned away before it logs as in-progress work.
	assert.NotContains(t, logs.String(), "Processing new GCS object")
}
