package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/legallense/docpipeline/internal/models"
	"github.com/legallense/docpipeline/internal/store"
	"golang.org/x/sync/errgroup"
)

const summaryLimit = 1000

// ResultWriterConfig holds the storage targets for derived artifacts.
type ResultWriterConfig struct {
	ProcessedBucket   string
	UploadsCollection string
	ResultsCollection string
}

// ResultWriter persists all artifacts derived from a processed file and
// advances the upload record to a terminal status.
//
// Writes are ordered so that the upload record can only read "completed"
// after the result record and its blobs exist. The two stores are not
// transactional with each other: a crash between the result record write and
// the upload record update leaves the upload record non-terminal even though
// a result exists. Detecting and repairing that gap would need a durable
// intent log and a reconciliation sweep, which this pipeline does not carry.
type ResultWriter struct {
	blobs   store.BlobStore
	records store.RecordStore
	config  ResultWriterConfig
}

func NewResultWriter(blobs store.BlobStore, records store.RecordStore, config ResultWriterConfig) *ResultWriter {
	return &ResultWriter{blobs: blobs, records: records, config: config}
}

// Save uploads the full text, entities and per-page blobs, upserts the
// result record and marks the upload record completed. On any failure it
// attempts a best-effort update of the upload record to "failed" with the
// captured error message, then returns the original error. Artifact keys are
// deterministic per file, so a retry overwrites rather than duplicates.
func (w *ResultWriter) Save(ctx context.Context, fileID, ownerID, fullText string, pages []string, entities map[string]any, processorVersion string) error {
	logCtx := slog.With("fileId", fileID, "ownerId", ownerID)

	if err := w.persist(ctx, fileID, ownerID, fullText, pages, entities, processorVersion); err != nil {
		w.markFailed(ctx, logCtx, fileID, err)
		return err
	}
	logCtx.Info("Results persisted.", "pageCount", len(pages))
	return nil
}

func (w *ResultWriter) persist(ctx context.Context, fileID, ownerID, fullText string, pages []string, entities map[string]any, processorVersion string) error {
	fullTextLocator, err := w.blobs.Put(ctx, w.config.ProcessedBucket, fmt.Sprintf("fulltexts/%s.txt", fileID), []byte(fullText), "text/plain")
	if err != nil {
		return fmt.Errorf("failed to upload full text: %w", err)
	}

	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("failed to serialize entities: %w", err)
	}
	entitiesLocator, err := w.blobs.Put(ctx, w.config.ProcessedBucket, fmt.Sprintf("entities/%s.json", fileID), entitiesJSON, "application/json")
	if err != nil {
		return fmt.Errorf("failed to upload entities: %w", err)
	}

	// Page blobs are supplementary to the full text and are not referenced
	// by the terminal status transition, so a partial set left behind by a
	// failed upload is acceptable.
	if err := w.uploadPages(ctx, fileID, pages); err != nil {
		return err
	}

	resultFields := map[string]any{
		"fileId":              fileID,
		"ownerId":             ownerID,
		"summaryText":         truncateRunes(fullText, summaryLimit),
		"fullTextLocator":     fullTextLocator,
		"entitiesLocator":     entitiesLocator,
		"pageCount":           len(pages),
		"entitiesCount":       len(entities),
		"processorVersion":    processorVersion,
		"status":              models.StatusCompleted,
		"processingTimestamp": store.ServerTimestamp,
	}
	if err := w.records.UpsertMerge(ctx, w.config.ResultsCollection, fileID, resultFields); err != nil {
		return fmt.Errorf("failed to write result record: %w", err)
	}

	uploadFields := map[string]any{
		"status":                models.StatusCompleted,
		"processingCompletedAt": store.ServerTimestamp,
		"resultId":              fileID,
	}
	if err := w.records.UpdateExisting(ctx, w.config.UploadsCollection, fileID, uploadFields); err != nil {
		return fmt.Errorf("failed to mark upload record completed: %w", err)
	}
	return nil
}

func (w *ResultWriter) uploadPages(ctx context.Context, fileID string, pages []string) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)

	for i, pageText := range pages {
		pageNumber := i + 1
		key := fmt.Sprintf("pages/%s/page-%d.txt", fileID, pageNumber)
		text := pageText

		eg.Go(func() error {
			if _, err := w.blobs.Put(gctx, w.config.ProcessedBucket, key, []byte(text), "text/plain"); err != nil {
				return fmt.Errorf("page %d: %w", pageNumber, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to upload page text: %w", err)
	}
	return nil
}

// markFailed is the compensation path: it moves the upload record to a
// terminal "failed" state so it never silently remains stuck in
// "processing". Errors from the compensation write itself are swallowed;
// the original failure takes precedence.
func (w *ResultWriter) markFailed(ctx context.Context, logCtx *slog.Logger, fileID string, cause error) {
	logCtx.Error("Result persistence failed.", "error", cause)

	fields := map[string]any{
		"status":                models.StatusFailed,
		"errorMessage":          cause.Error(),
		"processingCompletedAt": store.ServerTimestamp,
	}
	if err := w.records.UpdateExisting(ctx, w.config.UploadsCollection, fileID, fields); err != nil {
		logCtx.Error("CRITICAL: Failed to update upload record to failed after a processing error.", "updateError", err)
	}
}

// truncateRunes returns the first limit characters of s. Truncation is by
// code point, not byte, and not word-boundary aware.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
