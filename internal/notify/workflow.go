package notify

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowNotifier hands the document off by launching a Cloud Workflows
// execution instead of calling the processor directly. Useful when the
// downstream pipeline is orchestrated rather than a single service.
type WorkflowNotifier struct {
	client           *executions.Client
	projectID        string
	workflowLocation string
	workflowID       string
}

func NewWorkflowNotifier(client *executions.Client, projectID, location, workflowID string) (*WorkflowNotifier, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowNotifier: projectID, location and workflowID must all be set")
	}
	return &WorkflowNotifier{
		client:           client,
		projectID:        projectID,
		workflowLocation: location,
		workflowID:       workflowID,
	}, nil
}

func (n *WorkflowNotifier) Notify(ctx context.Context, docID string) error {
	payloadBytes, err := json.Marshal(map[string]any{"docId": docID})
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}

	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", n.projectID, n.workflowLocation, n.workflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := n.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution for %s: %w", docID, err)
	}
	return nil
}
