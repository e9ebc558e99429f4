package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/legallense/docpipeline/internal/annotate"
	"github.com/legallense/docpipeline/internal/extract"
	"github.com/legallense/docpipeline/internal/gcp"
	"github.com/legallense/docpipeline/internal/services"
	"github.com/legallense/docpipeline/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("Processor service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	processedBucket := gcp.GetEnv("PROCESSED_BUCKET", "legal-lense-processed")

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return err
	}

	annotator, err := buildAnnotator(ctx, projectID)
	if err != nil {
		return err
	}

	blobs := store.NewGCSBlobStore(storageClient)
	records := store.NewFirestoreRecordStore(firestoreClient)
	uploadsCollection := gcp.GetEnv("UPLOADS_COLLECTION", "uploads")

	writer := services.NewResultWriter(blobs, records, services.ResultWriterConfig{
		ProcessedBucket:   processedBucket,
		UploadsCollection: uploadsCollection,
		ResultsCollection: gcp.GetEnv("RESULTS_COLLECTION", "results"),
	})
	processor := services.NewProcessor(blobs, records, extract.NewPDFExtractor(), annotator, writer, services.ProcessorConfig{
		UploadsCollection: uploadsCollection,
	})

	router := chi.NewRouter()
	router.Post("/", processor.HandleProcess)
	router.Post("/process", processor.HandleProcessByID)

	port := gcp.GetEnv("PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Processor service listening.", "port", port, "processedBucket", processedBucket)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("Shutting down.", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildAnnotator selects the entity annotation implementation. The static
// placeholder is the default; the Vertex implementation is opt-in.
func buildAnnotator(ctx context.Context, projectID string) (annotate.Annotator, error) {
	switch gcp.GetEnv("ANNOTATOR", "static") {
	case "vertex":
		return annotate.NewVertex(ctx, projectID, gcp.GetEnv("VERTEX_AI_REGION", "us-central1"))
	default:
		return annotate.NewStatic(), nil
	}
}
