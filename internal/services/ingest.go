package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/legallense/docpipeline/internal/models"
	"github.com/legallense/docpipeline/internal/notify"
	"github.com/legallense/docpipeline/internal/store"
)

const previewLimit = 1000

// GCSEvent is the storage object-finalize event payload the ingest trigger
// receives.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// IngestConfig holds configuration for the ingest trigger.
type IngestConfig struct {
	ResultsBucket     string
	UploadsCollection string
}

// Ingest reacts to a newly uploaded object: it persists a text preview
// artifact and an upload record, then nudges the downstream processor.
// Success is defined solely by artifact and record persistence; the
// notification is a best-effort, at-most-once hint.
type Ingest struct {
	blobs    store.BlobStore
	records  store.RecordStore
	notifier notify.Notifier // nil disables notification
	config   IngestConfig
}

func NewIngest(blobs store.BlobStore, records store.RecordStore, notifier notify.Notifier, config IngestConfig) *Ingest {
	return &Ingest{blobs: blobs, records: records, notifier: notifier, config: config}
}

// Process handles one uploaded object. Re-invocation with the same object
// overwrites the preview blob and upserts the same record, so retries are
// safe.
func (s *Ingest) Process(ctx context.Context, e GCSEvent) error {
	if e.Bucket == "" || e.Name == "" {
		return fmt.Errorf("%w: event is missing bucket or object name", ErrValidation)
	}

	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new GCS object.")

	data, err := s.blobs.Get(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download uploaded object", "error", err)
		return fmt.Errorf("failed to download uploaded object: %w", err)
	}

	preview := map[string]string{"text_preview": truncateRunes(string(data), previewLimit)}
	previewJSON, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("failed to serialize preview: %w", err)
	}

	previewKey := fmt.Sprintf("extracted/%s.json", e.Name)
	previewLocator, err := s.blobs.Put(ctx, s.config.ResultsBucket, previewKey, previewJSON, "application/json")
	if err != nil {
		logCtx.Error("Failed to upload preview artifact", "error", err)
		return fmt.Errorf("failed to upload preview artifact: %w", err)
	}

	docID := strings.TrimSuffix(e.Name, ".pdf")
	fields := map[string]any{
		"status":             models.StatusTextExtracted,
		"sourceLocator":      store.Locator(e.Bucket, e.Name),
		"textPreviewLocator": previewLocator,
	}
	if err := s.records.UpsertMerge(ctx, s.config.UploadsCollection, docID, fields); err != nil {
		logCtx.Error("Failed to upsert upload record", "error", err)
		return fmt.Errorf("failed to upsert upload record: %w", err)
	}
	logCtx = logCtx.With("documentId", docID)
	logCtx.Info("Preview artifact and upload record persisted.")

	if s.notifier == nil {
		logCtx.Info("No downstream processor configured. Skipping notification.")
		return nil
	}
	if err := s.notifier.Notify(ctx, docID); err != nil {
		// At-most-once, no-retry hint: a missed notification never fails
		// the trigger or rolls back the record.
		logCtx.Warn("Failed to notify downstream processor.", "error", err)
		return nil
	}
	logCtx.Info("Notified downstream processor.")
	return nil
}
