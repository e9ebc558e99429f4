package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/legallense/docpipeline/internal/annotate"
	"github.com/legallense/docpipeline/internal/extract"
	"github.com/legallense/docpipeline/internal/models"
	"github.com/legallense/docpipeline/internal/store"
)

// ProcessorVersion tags the extraction/annotation logic version written into
// every result record.
const ProcessorVersion = "v1.0"

// ProcessorConfig holds configuration for the processing stage.
type ProcessorConfig struct {
	UploadsCollection string
}

// Processor is the pipeline's processing stage: it downloads the source
// file, extracts page texts, annotates them and delegates all persistence to
// the ResultWriter. It performs no retries of its own; retry decisions
// belong to the caller or the surrounding infrastructure.
type Processor struct {
	blobs     store.BlobStore
	records   store.RecordStore
	extractor extract.Extractor
	annotator annotate.Annotator
	writer    *ResultWriter
	config    ProcessorConfig
}

func NewProcessor(blobs store.BlobStore, records store.RecordStore, extractor extract.Extractor, annotator annotate.Annotator, writer *ResultWriter, config ProcessorConfig) *Processor {
	return &Processor{
		blobs:     blobs,
		records:   records,
		extractor: extractor,
		annotator: annotator,
		writer:    writer,
		config:    config,
	}
}

// Process runs the full stage for one file and returns the page count.
// Validation failures are reported before any side effect.
func (p *Processor) Process(ctx context.Context, req models.ProcessRequest) (int, error) {
	if req.FileID == "" || req.OwnerID == "" || req.GCSPath == "" {
		return 0, fmt.Errorf("%w: file_id, owner_id, and gcs_path are required", ErrValidation)
	}

	logCtx := slog.With("fileId", req.FileID, "ownerId", req.OwnerID)
	logCtx.Info("Processing file.", "gcsPath", req.GCSPath)

	bucket, key, err := store.ParseLocator(req.GCSPath)
	if err != nil {
		return 0, fmt.Errorf("invalid gcs_path: %w", err)
	}

	data, err := p.blobs.Get(ctx, bucket, key)
	if err != nil {
		return 0, fmt.Errorf("failed to download source file: %w", err)
	}

	pages, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("failed to extract text: %w", err)
	}
	fullText := strings.Join(pages, "\n")

	entities, err := p.annotator.Annotate(ctx, fullText)
	if err != nil {
		return 0, fmt.Errorf("failed to annotate text: %w", err)
	}

	if err := p.writer.Save(ctx, req.FileID, req.OwnerID, fullText, pages, entities, ProcessorVersion); err != nil {
		return 0, err
	}
	return len(pages), nil
}

// ProcessByID resolves a document from its upload record and runs the same
// stage. This is the entry the ingest trigger's notification lands on.
func (p *Processor) ProcessByID(ctx context.Context, docID string) (int, error) {
	if docID == "" {
		return 0, fmt.Errorf("%w: doc_id is required", ErrValidation)
	}

	record, err := p.records.Get(ctx, p.config.UploadsCollection, docID)
	if err != nil {
		return 0, fmt.Errorf("failed to load upload record for %s: %w", docID, err)
	}

	ownerID, _ := record["ownerId"].(string)
	sourceLocator, _ := record["sourceLocator"].(string)
	if sourceLocator == "" {
		return 0, fmt.Errorf("upload record %s has no sourceLocator", docID)
	}
	if ownerID == "" {
		return 0, fmt.Errorf("upload record %s has no ownerId", docID)
	}

	// Advisory only; the writer owns the terminal transitions.
	fields := map[string]any{"status": models.StatusProcessing}
	if err := p.records.UpsertMerge(ctx, p.config.UploadsCollection, docID, fields); err != nil {
		slog.Warn("Could not mark upload record as processing.", "documentId", docID, "error", err)
	}

	return p.Process(ctx, models.ProcessRequest{
		FileID:  docID,
		OwnerID: ownerID,
		GCSPath: sourceLocator,
	})
}

// HandleProcess is the HTTP handler for direct processing requests.
func (p *Processor) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		writeProcessError(w, http.StatusBadRequest, "could not parse JSON body")
		return
	}

	pageCount, err := p.Process(r.Context(), req)
	if err != nil {
		writeProcessFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessResponse{
		Status:    "success",
		Message:   fmt.Sprintf("Processed and saved results for %s", req.FileID),
		PageCount: pageCount,
	})
}

// HandleProcessByID is the HTTP handler for the ingest trigger's
// notification.
func (p *Processor) HandleProcessByID(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessByIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		writeProcessError(w, http.StatusBadRequest, "could not parse JSON body")
		return
	}

	pageCount, err := p.ProcessByID(r.Context(), req.DocID)
	if err != nil {
		writeProcessFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessResponse{
		Status:    "success",
		Message:   fmt.Sprintf("Processed and saved results for %s", req.DocID),
		PageCount: pageCount,
	})
}

func writeProcessFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrValidation) {
		writeProcessError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeProcessError(w, http.StatusInternalServerError, err.Error())
}

func writeProcessError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, models.ProcessResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
