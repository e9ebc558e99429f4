// Package notify hands a document off to the downstream processing stage.
// Delivery is at-most-once and best-effort: a failed notification is logged
// by the caller and never retried, since the upload record already persists
// the state a reconciliation pass would need.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier signals the downstream processor that a document is ready.
type Notifier interface {
	Notify(ctx context.Context, docID string) error
}

// HTTPNotifier posts {"doc_id": id} to the processor's /process endpoint.
// The client timeout is deliberately short so a dead processor cannot block
// the ingest path.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPNotifier(baseURL string) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, docID string) error {
	payload, err := json.Marshal(map[string]string{"doc_id": docID})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/process", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to notify processor for %s: %w", docID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("processor returned status %d for %s", resp.StatusCode, docID)
	}
	return nil
}
