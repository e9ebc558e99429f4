package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/legallense/docpipeline/internal/gcp"
	"github.com/legallense/docpipeline/internal/notify"
	"github.com/legallense/docpipeline/internal/services"
	"github.com/legallense/docpipeline/internal/store"
)

var (
	ingestInstance *services.Ingest
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ProcessUpload", processUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func newIngest(ctx context.Context) (*services.Ingest, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	config := services.IngestConfig{
		ResultsBucket:     gcp.GetEnv("RESULTS_BUCKET", ""),
		UploadsCollection: gcp.GetEnv("UPLOADS_COLLECTION", "uploads"),
	}
	if config.ResultsBucket == "" {
		return nil, fmt.Errorf("RESULTS_BUCKET environment variable must be set")
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ingest := services.NewIngest(
		store.NewGCSBlobStore(storageClient),
		store.NewFirestoreRecordStore(firestoreClient),
		notifier,
		config,
	)
	slog.Info("Ingest trigger initialized.", "resultsBucket", config.ResultsBucket)
	return ingest, nil
}

// buildNotifier picks the downstream handoff from the environment: a direct
// HTTP nudge when PROCESSOR_URL is set, a workflow execution when
// WORKFLOW_ID is set, otherwise none.
func buildNotifier(ctx context.Context, projectID string) (notify.Notifier, error) {
	if processorURL := gcp.GetEnv("PROCESSOR_URL", ""); processorURL != "" {
		return notify.NewHTTPNotifier(processorURL), nil
	}
	if workflowID := gcp.GetEnv("WORKFLOW_ID", ""); workflowID != "" {
		client, err := executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		return notify.NewWorkflowNotifier(client, projectID, gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"), workflowID)
	}
	return nil, nil
}

// processUpload is the Cloud Function entry point for GCS finalize events.
func processUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		ingestInstance, initErr = newIngest(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return ingestInstance.Process(ctx, gcsEvent)
}
